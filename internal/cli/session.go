package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/Dicklesworthstone/kcwrap/internal/config"
	"github.com/Dicklesworthstone/kcwrap/internal/session"
	"github.com/spf13/cobra"
)

type sessionPayload struct {
	SessionID         string     `json:"session_id"`
	Backend           string     `json:"backend"`
	Path              string     `json:"path"`
	LastConfirmedAt   *time.Time `json:"last_confirmed_at,omitempty"`
	ConfirmedContexts []string   `json:"confirmed_contexts"`
}

func init() {
	sessionCmd.AddCommand(sessionShowCmd)
	sessionCmd.AddCommand(sessionPathCmd)
	sessionCmd.AddCommand(sessionTokenCmd)
	rootCmd.AddCommand(sessionCmd)
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect the confirmation session of this shell",
}

var sessionShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the confirmations recorded for the current session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		id, st, err := loadSession(cfg)
		if err != nil {
			return err
		}
		path, err := sessionPath(cfg, id)
		if err != nil {
			return err
		}

		payload := sessionPayload{
			SessionID:         id,
			Backend:           cfg.Session.Backend,
			Path:              path,
			ConfirmedContexts: confirmedContexts(st),
		}
		if len(st.ConfirmedContexts) > 0 {
			ts := st.LastConfirmedAt
			payload.LastConfirmedAt = &ts
		}

		out, err := newWriter(cmd)
		if err != nil {
			return err
		}
		if out.Structured() {
			return out.Write(payload)
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "session: %s\n", payload.SessionID)
		fmt.Fprintf(w, "store:   %s (%s)\n", payload.Path, payload.Backend)
		if payload.LastConfirmedAt == nil {
			fmt.Fprintln(w, "no confirmations recorded")
			return nil
		}
		fmt.Fprintf(w, "last confirmed: %s\n", payload.LastConfirmedAt.Format(time.RFC3339))
		for _, c := range payload.ConfirmedContexts {
			fmt.Fprintf(w, "  %s\n", c)
		}
		return nil
	},
}

var sessionPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print where the current session's state is stored",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		identity, err := session.IdentityFor(cfg.Session.Identity, cfg.Session.TokenEnv)
		if err != nil {
			return err
		}
		id, err := identity.SessionID()
		if err != nil {
			return fmt.Errorf("resolving session id: %w", err)
		}
		path, err := sessionPath(cfg, id)
		if err != nil {
			return err
		}

		out, err := newWriter(cmd)
		if err != nil {
			return err
		}
		if out.Structured() {
			return out.Write(map[string]any{"session_id": id, "backend": cfg.Session.Backend, "path": path})
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
		return err
	},
}

var sessionTokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print a new session token as a shell export",
	Long: `Print a new session token. Evaluate it to share confirmations between
the current shell and its subshells:

  eval "$(kcwrap session token)"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		token := session.NewToken()

		out, err := newWriter(cmd)
		if err != nil {
			return err
		}
		if out.Structured() {
			return out.Write(map[string]any{"env": cfg.Session.TokenEnv, "token": token})
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "export %s=%s\n", cfg.Session.TokenEnv, token)
		return err
	},
}

// sessionPath names the file or database row holding id's state.
func sessionPath(cfg config.Config, id string) (string, error) {
	if cfg.Session.Backend == "sqlite" {
		if err := session.ValidateID(id); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s#%s", cfg.Session.DatabasePath, id), nil
	}
	return session.NewFileStore(cfg.Session.StateDir).Path(id)
}

func confirmedContexts(st *session.State) []string {
	out := make([]string, 0, len(st.ConfirmedContexts))
	for c, ok := range st.ConfirmedContexts {
		if ok {
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}
