package cmdexec

import (
	"context"
	"errors"
	"os/exec"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("skipping Unix-specific test on Windows")
	}
}

// TestApplyReplacements tests the behavior of applyReplacements.
//
// It verifies:
//   - Scoped package names are substituted unquoted
//   - Values with shell metacharacters are single-quoted
//   - Empty values remove the placeholder entirely (no empty quotes left behind)
//   - Unknown placeholders are left untouched
func TestApplyReplacements(t *testing.T) {
	t.Run("scoped package", func(t *testing.T) {
		got := applyReplacements("npm view {{package}} time --json", PackageReplacements("@types/node"))
		assert.Equal(t, "npm view @types/node time --json", got)
	})

	t.Run("metacharacters are quoted", func(t *testing.T) {
		got := applyReplacements("npm view {{package}} time", PackageReplacements("x; rm -rf /"))
		assert.Equal(t, "npm view 'x; rm -rf /' time", got)
	})

	t.Run("empty value removes placeholder", func(t *testing.T) {
		got := applyReplacements("npm ls --json {{global_flag}} --depth=0", map[string]string{"global_flag": ""})
		assert.Equal(t, "npm ls --json  --depth=0", got)
	})

	t.Run("unknown placeholder kept", func(t *testing.T) {
		assert.Equal(t, "echo {{other}}", applyReplacements("echo {{other}}", nil))
	})
}

// TestShellEscape tests the behavior of shellEscape.
func TestShellEscape(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"lodash", "lodash"},
		{"@scope/pkg", "@scope/pkg"},
		{"--global", "--global"},
		{"has space", "'has space'"},
		{"it's", `'it'\''s'`},
		{"$(whoami)", "'$(whoami)'"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, shellEscape(tt.input))
		})
	}
}

// TestJoinContinuations tests the behavior of joinContinuations.
func TestJoinContinuations(t *testing.T) {
	assert.Equal(t, "npm outdated --json --long", joinContinuations("npm outdated \\\n  --json \\\n  --long\n"))
	assert.Equal(t, "a\nb", joinContinuations("a\r\n\r\nb"))
	assert.Equal(t, "tail", joinContinuations("tail \\"))
}

// TestGetShell tests the behavior of getShell.
//
// It verifies:
//   - SHELL environment variable is used when set
//   - Falls back to sh when SHELL is empty
func TestGetShell(t *testing.T) {
	skipOnWindows(t)

	t.Setenv("SHELL", "/bin/bash")
	shell, args := getShell()
	assert.Equal(t, "/bin/bash", shell)
	assert.Equal(t, []string{"-c"}, args)

	t.Setenv("SHELL", "")
	shell, args = getShell()
	assert.Equal(t, "sh", shell)
	assert.Equal(t, []string{"-c"}, args)
}

// TestExecute tests the behavior of execute against the real shell.
//
// It verifies:
//   - Stdout is returned on success
//   - Replacements, env expansion and working directory are applied
//   - A non-zero exit returns stdout together with a CommandError
//   - Blank commands and cancelled contexts fail fast
func TestExecute(t *testing.T) {
	skipOnWindows(t)
	t.Setenv("SHELL", "")
	ctx := context.Background()

	t.Run("stdout", func(t *testing.T) {
		out, err := execute(ctx, Request{Command: "echo {{package}}", Replacements: PackageReplacements("@a/b")})
		require.NoError(t, err)
		assert.Equal(t, "@a/b\n", string(out))
	})

	t.Run("env expansion", func(t *testing.T) {
		t.Setenv("RIPEN_TEST_BASE", "base")
		out, err := execute(ctx, Request{
			Command: "echo $RIPEN_TEST_VALUE",
			Env:     map[string]string{"RIPEN_TEST_VALUE": "${RIPEN_TEST_BASE}-x"},
		})
		require.NoError(t, err)
		assert.Equal(t, "base-x", strings.TrimSpace(string(out)))
	})

	t.Run("working directory", func(t *testing.T) {
		dir := t.TempDir()
		out, err := execute(ctx, Request{Command: "pwd -P", Dir: dir})
		require.NoError(t, err)
		assert.Contains(t, strings.TrimSpace(string(out)), strings.TrimPrefix(dir, "/private"))
	})

	t.Run("non-zero exit keeps stdout", func(t *testing.T) {
		out, err := execute(ctx, Request{Command: `echo '{"a":{}}'; echo oops >&2; exit 1`})
		require.Error(t, err)
		assert.Equal(t, "{\"a\":{}}\n", string(out))

		var ce *CommandError
		require.True(t, errors.As(err, &ce))
		assert.Equal(t, 1, ce.ExitCode)
		assert.Equal(t, "oops", ce.Stderr)
		assert.Contains(t, err.Error(), "oops")
		assert.Equal(t, 1, ExitCode(err))
	})

	t.Run("command not found", func(t *testing.T) {
		_, err := execute(ctx, Request{Command: "ripen-definitely-missing-binary"})
		require.Error(t, err)
		assert.Equal(t, 127, ExitCode(err))
	})

	t.Run("blank command", func(t *testing.T) {
		_, err := execute(ctx, Request{Command: "  \n"})
		assert.EqualError(t, err, "no command provided")
	})

	t.Run("cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := execute(cancelled, Request{Command: "echo hi"})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

// TestExecuteTimeout tests that a command exceeding its timeout is killed
// together with its children and reported as ErrTimeout.
func TestExecuteTimeout(t *testing.T) {
	skipOnWindows(t)
	t.Setenv("SHELL", "")

	start := time.Now()
	_, err := execute(context.Background(), Request{Command: "sleep 30 | cat", TimeoutSeconds: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Contains(t, err.Error(), "command timed out after 1 seconds")
	assert.Less(t, time.Since(start), 10*time.Second)
	assert.Equal(t, -1, ExitCode(err))
}

// TestExecuteParentCancel tests that cancelling the parent context stops a
// running command and surfaces the context error.
func TestExecuteParentCancel(t *testing.T) {
	skipOnWindows(t)
	t.Setenv("SHELL", "")

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := execute(ctx, Request{Command: "sleep 30"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// TestKillProcGroup tests the behavior of killProcGroup and setProcGroup.
func TestKillProcGroup(t *testing.T) {
	skipOnWindows(t)

	assert.NoError(t, killProcGroup(&exec.Cmd{}))

	cmd := exec.Command("sleep", "60")
	setProcGroup(cmd)
	require.NotNil(t, cmd.SysProcAttr)
	assert.True(t, cmd.SysProcAttr.Setpgid)
	require.NoError(t, cmd.Start())

	assert.NoError(t, killProcGroup(cmd))
	_ = cmd.Wait()
}
