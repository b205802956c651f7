package filter

import (
	"context"
	"os"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aerrors "git.home.luguber.info/inful/assetbuilder/internal/errors"
)

func skipWithoutShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("filter tests need a POSIX shell")
	}
}

func TestApplyNoStepsReturnsInput(t *testing.T) {
	r := NewRunner()
	out, err := r.Apply(context.Background(), []byte("body{}"), nil)
	require.NoError(t, err)
	assert.Equal(t, "body{}", string(out))
}

func TestApplyAllModes(t *testing.T) {
	skipWithoutShell(t)

	tests := []struct {
		name string
		step Step
	}{
		{"stream", MustStep("tr a-z A-Z", "--")},
		{"file in", MustStep(`tr a-z A-Z < "$IN"`, "f-")},
		{"file out", MustStep(`tr a-z A-Z > "$OUT"`, "-f")},
		{"file in out", MustStep(`tr a-z A-Z < "$IN" > "$OUT"`, "ff")},
	}

	r := NewRunner(WithScratchDir(t.TempDir()))
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, err := r.Apply(context.Background(), []byte("abc\n"), []Chain{{tc.step}})
			require.NoError(t, err)
			assert.Equal(t, "ABC\n", string(out))
		})
	}
}

func TestApplyChainsRunInOrder(t *testing.T) {
	skipWithoutShell(t)

	first := Chain{MustStep("sed 's/a/b/'", "--")}
	second := Chain{MustStep(`sed 's/b/c/' "$IN"`, "f-"), MustStep(`cat > "$OUT"; echo tail >> "$OUT"`, "-f")}

	r := NewRunner(WithScratchDir(t.TempDir()))
	out, err := r.Apply(context.Background(), []byte("a\n"), []Chain{first, second})
	require.NoError(t, err)
	assert.Equal(t, "c\ntail\n", string(out))
}

func TestApplyNonZeroExit(t *testing.T) {
	skipWithoutShell(t)

	r := NewRunner(WithScratchDir(t.TempDir()))
	steps := Chain{MustStep("cat", "--"), MustStep("echo broken >&2; exit 3", "--")}
	_, err := r.Apply(context.Background(), []byte("x"), []Chain{steps})
	require.Error(t, err)
	assert.True(t, aerrors.IsFilterExecution(err))

	ae, ok := aerrors.As(err)
	require.True(t, ok)
	assert.Equal(t, 1, ae.Context["step"])
	assert.Contains(t, err.Error(), "broken")
}

func TestApplyMissingOutFile(t *testing.T) {
	skipWithoutShell(t)

	r := NewRunner(WithScratchDir(t.TempDir()))
	_, err := r.Apply(context.Background(), []byte("x"), []Chain{{MustStep("true", "-f")}})
	require.Error(t, err)
	assert.True(t, aerrors.IsFilterExecution(err))
}

func TestApplyUnknownCommand(t *testing.T) {
	skipWithoutShell(t)

	r := NewRunner(WithScratchDir(t.TempDir()))
	_, err := r.Apply(context.Background(), []byte("x"), []Chain{{MustStep("definitely-not-a-real-filter-binary", "--")}})
	require.Error(t, err)
	assert.True(t, aerrors.IsFilterExecution(err))
}

func TestApplyTimeout(t *testing.T) {
	skipWithoutShell(t)

	r := NewRunner(WithTimeout(100*time.Millisecond), WithScratchDir(t.TempDir()))
	start := time.Now()
	_, err := r.Apply(context.Background(), []byte("x"), []Chain{{MustStep("sleep 10", "--")}})
	require.Error(t, err)
	assert.True(t, aerrors.IsFilterExecution(err))
	assert.Contains(t, err.Error(), "timed out")
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestApplyCancelledContext(t *testing.T) {
	skipWithoutShell(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewRunner(WithScratchDir(t.TempDir()))
	_, err := r.Apply(ctx, []byte("x"), []Chain{{MustStep("cat", "--")}})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestApplyCleansScratchFiles(t *testing.T) {
	skipWithoutShell(t)

	scratch := t.TempDir()
	r := NewRunner(WithScratchDir(scratch))
	_, err := r.Apply(context.Background(), []byte("x"), []Chain{{MustStep(`cp "$IN" "$OUT"`, "ff")}})
	require.NoError(t, err)

	entries, err := os.ReadDir(scratch)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWithTimeoutIgnoresNonPositive(t *testing.T) {
	assert.Equal(t, DefaultTimeout, NewRunner(WithTimeout(0)).Timeout())
	assert.Equal(t, time.Second, NewRunner(WithTimeout(time.Second)).Timeout())
}
