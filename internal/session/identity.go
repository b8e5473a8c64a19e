package session

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// DefaultTokenEnv is the variable EnvToken reads when none is configured.
const DefaultTokenEnv = "KCWRAP_SESSION"

// ErrNoSessionID is returned when an identity source has nothing to offer.
var ErrNoSessionID = errors.New("no session id available")

// Identity supplies the id that groups invocations into one session.
type Identity interface {
	SessionID() (string, error)
}

// ParentProcess uses the parent process id, so every invocation from the
// same shell shares a session. Pids are recycled by the OS, so a stale
// record can be picked up by an unrelated later shell.
type ParentProcess struct{}

// SessionID implements Identity.
func (ParentProcess) SessionID() (string, error) {
	ppid := os.Getppid()
	if ppid <= 0 {
		return "", fmt.Errorf("%w: parent pid %d", ErrNoSessionID, ppid)
	}
	return strconv.Itoa(ppid), nil
}

// EnvToken reads an explicit session token from an environment variable.
type EnvToken struct {
	Var    string
	Getenv func(string) string
}

// SessionID implements Identity.
func (e EnvToken) SessionID() (string, error) {
	name := e.Var
	if name == "" {
		name = DefaultTokenEnv
	}
	getenv := e.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	token := strings.TrimSpace(getenv(name))
	if token == "" {
		return "", fmt.Errorf("%w: %s is not set", ErrNoSessionID, name)
	}
	if err := ValidateID(token); err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return token, nil
}

// Chain tries each source in order and returns the first id found.
// Only ErrNoSessionID falls through; any other error stops the chain.
type Chain []Identity

// SessionID implements Identity.
func (c Chain) SessionID() (string, error) {
	for _, src := range c {
		id, err := src.SessionID()
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, ErrNoSessionID) {
			return "", err
		}
	}
	return "", ErrNoSessionID
}

// Fixed always returns the same id.
type Fixed string

// SessionID implements Identity.
func (f Fixed) SessionID() (string, error) {
	if f == "" {
		return "", ErrNoSessionID
	}
	return string(f), nil
}

// NewToken returns a fresh random session token.
func NewToken() string {
	return uuid.New().String()
}

// IdentityFor returns the identity source for a configured mode:
// "ppid", "token", or "auto" (token when set, else parent pid).
func IdentityFor(mode, tokenVar string) (Identity, error) {
	token := EnvToken{Var: tokenVar}
	switch mode {
	case "", "auto":
		return Chain{token, ParentProcess{}}, nil
	case "ppid":
		return ParentProcess{}, nil
	case "token":
		return token, nil
	default:
		return nil, fmt.Errorf("unknown session identity %q", mode)
	}
}
