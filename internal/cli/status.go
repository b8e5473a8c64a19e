package cli

import (
	"fmt"
	"time"

	"github.com/Dicklesworthstone/kcwrap/internal/classify"
	"github.com/Dicklesworthstone/kcwrap/internal/config"
	"github.com/Dicklesworthstone/kcwrap/internal/core"
	"github.com/Dicklesworthstone/kcwrap/internal/kube"
	"github.com/Dicklesworthstone/kcwrap/internal/session"
	"github.com/spf13/cobra"
)

type statusPayload struct {
	Context         string            `json:"context"`
	Category        classify.Category `json:"category"`
	SessionID       string            `json:"session_id"`
	Backend         string            `json:"backend"`
	LastConfirmedAt *time.Time        `json:"last_confirmed_at,omitempty"`
	Confirmed       bool              `json:"confirmed"`
	WouldPrompt     bool              `json:"would_prompt"`
	Reason          core.Reason       `json:"reason"`
}

type classifyPayload struct {
	Context  string            `json:"context"`
	Category classify.Category `json:"category"`
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(classifyCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current context and whether the next command would prompt",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		resolver, err := kube.New(cfg.Context.Source, cfg.Context.Command, cfg.Context.Kubeconfig, newExecutor())
		if err != nil {
			return err
		}
		current, err := resolver.CurrentContext(cmd.Context())
		if err != nil {
			return fmt.Errorf("resolving current context: %w", err)
		}

		id, st, err := loadSession(cfg)
		if err != nil {
			return err
		}

		decision := core.Decide(st, current, time.Now().UTC())
		payload := statusPayload{
			Context:     current,
			Category:    classify.Classify(current, cfg.ClassifyNames()),
			SessionID:   id,
			Backend:     cfg.Session.Backend,
			Confirmed:   st.ConfirmedContexts[current],
			WouldPrompt: decision.Prompt,
			Reason:      decision.Reason,
		}
		// A fresh record carries the load time and no contexts.
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
		fmt.Fprintf(w, "context:   %s (%s)\n", payload.Context, payload.Category)
		fmt.Fprintf(w, "session:   %s [%s]\n", payload.SessionID, payload.Backend)
		if payload.LastConfirmedAt != nil {
			fmt.Fprintf(w, "confirmed: %s ago\n", decision.Age.Round(time.Second))
		} else {
			fmt.Fprintln(w, "confirmed: never")
		}
		if payload.WouldPrompt {
			fmt.Fprintf(w, "next:      prompt (%s)\n", payload.Reason)
		} else {
			fmt.Fprintf(w, "next:      run without prompt for %s\n", (core.DebounceWindow - decision.Age).Round(time.Second))
		}
		return nil
	},
}

var classifyCmd = &cobra.Command{
	Use:   "classify <context>",
	Short: "Show the category a context name falls into",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		payload := classifyPayload{
			Context:  args[0],
			Category: classify.Classify(args[0], cfg.ClassifyNames()),
		}

		out, err := newWriter(cmd)
		if err != nil {
			return err
		}
		if out.Structured() {
			return out.Write(payload)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), payload.Category)
		return err
	},
}

// loadSession reads the current session's state without modifying it.
func loadSession(cfg config.Config) (string, *session.State, error) {
	identity, err := session.IdentityFor(cfg.Session.Identity, cfg.Session.TokenEnv)
	if err != nil {
		return "", nil, err
	}
	id, err := identity.SessionID()
	if err != nil {
		return "", nil, fmt.Errorf("resolving session id: %w", err)
	}
	store, closeStore, err := openStore(cfg)
	if err != nil {
		return "", nil, err
	}
	defer closeStore()

	st, err := store.Load(id)
	if err != nil {
		return "", nil, fmt.Errorf("loading session state: %w", err)
	}
	return id, st, nil
}
