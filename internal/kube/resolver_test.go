package kube

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/Dicklesworthstone/kcwrap/internal/proc"
	"github.com/Dicklesworthstone/kcwrap/internal/testutil"
)

func TestCommandResolver_TrimsStdout(t *testing.T) {
	exec := testutil.NewMockExecutor().SetOutput("kubectl", []byte("  prod-cluster-1\n"), nil)
	r, err := NewCommandResolver("", exec)
	testutil.RequireNoError(t, err, "NewCommandResolver")

	got, err := r.CurrentContext(context.Background())
	testutil.RequireNoError(t, err, "CurrentContext")
	testutil.RequireEqual(t, "prod-cluster-1", got, "context")

	if !exec.WasCalledWith(testutil.CallOutput, "kubectl", "config", "current-context") {
		t.Fatalf("unexpected calls: %+v", exec.RecordedCalls)
	}
}

func TestCommandResolver_QuotedCommand(t *testing.T) {
	exec := testutil.NewMockExecutor().SetOutput("kubectl", []byte("dev"), nil)
	r, err := NewCommandResolver(`kubectl --kubeconfig "/home/op/my configs/kc" config current-context`, exec)
	testutil.RequireNoError(t, err, "NewCommandResolver")

	want := []string{"kubectl", "--kubeconfig", "/home/op/my configs/kc", "config", "current-context"}
	if !slices.Equal(r.Argv(), want) {
		t.Fatalf("Argv=%q want %q", r.Argv(), want)
	}
}

func TestCommandResolver_BadCommand(t *testing.T) {
	if _, err := NewCommandResolver(`kubectl "unterminated`, nil); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestCommandResolver_NonZeroExit(t *testing.T) {
	exec := testutil.NewMockExecutor().SetOutput("kubectl", nil, &proc.ExitError{
		Name:   "kubectl",
		Code:   1,
		Stderr: "error: current-context is not set\n",
	})
	r, err := NewCommandResolver("", exec)
	testutil.RequireNoError(t, err, "NewCommandResolver")

	_, err = r.CurrentContext(context.Background())
	var resolveErr *ResolveError
	if !errors.As(err, &resolveErr) {
		t.Fatalf("err=%v want *ResolveError", err)
	}
	if resolveErr.Code != 1 || !strings.Contains(err.Error(), "current-context is not set") {
		t.Fatalf("resolveErr=%+v msg=%q", resolveErr, err.Error())
	}
}

func TestCommandResolver_StartFailure(t *testing.T) {
	boom := errors.New("exec: \"kubectl\": executable file not found in $PATH")
	exec := testutil.NewMockExecutor().SetOutput("kubectl", nil, boom)
	r, _ := NewCommandResolver("", exec)

	if _, err := r.CurrentContext(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("err=%v want %v", err, boom)
	}
}

const kubeconfigTemplate = `apiVersion: v1
kind: Config
clusters:
- cluster:
    server: https://127.0.0.1:6443
  name: c1
users:
- name: u1
  user:
    token: abc
contexts:
- context:
    cluster: c1
    user: u1
  name: staging-west
current-context: %s
`

func writeKubeconfig(t *testing.T, current string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config")
	body := strings.Replace(kubeconfigTemplate, "%s", current, 1)
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatalf("write kubeconfig: %v", err)
	}
	return path
}

func TestKubeconfigResolver(t *testing.T) {
	path := writeKubeconfig(t, "staging-west")
	got, err := KubeconfigResolver{ExplicitPath: path}.CurrentContext(context.Background())
	testutil.RequireNoError(t, err, "CurrentContext")
	testutil.RequireEqual(t, "staging-west", got, "context")
}

func TestKubeconfigResolver_HonorsKUBECONFIG(t *testing.T) {
	t.Setenv("KUBECONFIG", writeKubeconfig(t, "staging-west"))
	got, err := KubeconfigResolver{}.CurrentContext(context.Background())
	testutil.RequireNoError(t, err, "CurrentContext")
	testutil.RequireEqual(t, "staging-west", got, "context")
}

func TestKubeconfigResolver_NoCurrentContext(t *testing.T) {
	path := writeKubeconfig(t, `""`)
	_, err := KubeconfigResolver{ExplicitPath: path}.CurrentContext(context.Background())
	testutil.RequireErrorIs(t, err, ErrNoCurrentContext, "CurrentContext")
}

func TestNew(t *testing.T) {
	if r, err := New("", "", "", testutil.NewMockExecutor()); err != nil {
		t.Fatalf("New default: %v", err)
	} else if _, ok := r.(*CommandResolver); !ok {
		t.Fatalf("default source should be command, got %T", r)
	}
	if r, err := New("kubeconfig", "", "/tmp/kc", nil); err != nil {
		t.Fatalf("New kubeconfig: %v", err)
	} else if kr, ok := r.(KubeconfigResolver); !ok || kr.ExplicitPath != "/tmp/kc" {
		t.Fatalf("unexpected resolver %#v", r)
	}
	if _, err := New("docker", "", "", nil); err == nil {
		t.Fatalf("expected error for unknown source")
	}
}
