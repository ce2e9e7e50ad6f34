package preflight

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajxudir/ripen/pkg/config"
)

// stubLookup makes only the given commands resolvable.
func stubLookup(t *testing.T, available ...string) {
	t.Helper()
	known := make(map[string]bool)
	for _, cmd := range available {
		known[cmd] = true
	}

	origLook, origShell := lookPath, commandExistsInShell
	lookPath = func(cmd string) (string, error) {
		if known[cmd] {
			return "/usr/bin/" + cmd, nil
		}
		return "", errors.New("not found")
	}
	commandExistsInShell = func(string) bool { return false }
	t.Cleanup(func() {
		lookPath, commandExistsInShell = origLook, origShell
	})
}

// TestExtractCommands tests the behavior of command extraction from templates.
//
// It verifies:
//   - Single commands are extracted correctly
//   - Multiline commands with pipes are handled
//   - Empty command strings return empty results
//   - Leading env assignments are skipped
func TestExtractCommands(t *testing.T) {
	tests := []struct {
		name     string
		commands string
		want     []string
	}{
		{
			name:     "single command",
			commands: "npm view {{package}} time --json",
			want:     []string{"npm"},
		},
		{
			name:     "multiline with pipes",
			commands: "curl -s https://registry.npmjs.org/{{package}} |\njq .time",
			want:     []string{"curl", "jq"},
		},
		{
			name:     "empty",
			commands: "",
			want:     []string{},
		},
		{
			name:     "comments and continuation",
			commands: "# list\nnpm ls --json \\\n  --depth=0\nnpm --version",
			want:     []string{"npm"},
		},
		{
			name:     "env assignment",
			commands: "NODE_OPTIONS=--no-warnings npm outdated --json",
			want:     []string{"npm"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractCommands(tt.commands)
			if len(got) != len(tt.want) {
				t.Errorf("extractCommands() got %v, want %v", got, tt.want)
				return
			}
			for i, cmd := range got {
				if cmd != tt.want[i] {
					t.Errorf("extractCommands()[%d] = %s, want %s", i, cmd, tt.want[i])
				}
			}
		})
	}
}

// TestValidateConfig tests the behavior of ValidateConfig.
//
// It verifies:
//   - The default config passes when npm is available
//   - A missing npm is reported once with the Node.js hint
//   - The timestamps command is ignored for the HTTP source
//   - Unknown commands get the generic resolution text
func TestValidateConfig(t *testing.T) {
	t.Run("npm available", func(t *testing.T) {
		stubLookup(t, "npm")
		assert.False(t, ValidateConfig(config.Default()).HasErrors())
	})

	t.Run("npm missing", func(t *testing.T) {
		stubLookup(t)
		result := ValidateConfig(config.Default())
		require.Len(t, result.Errors, 1)
		assert.Equal(t, "npm", result.Errors[0].Command)
		assert.Contains(t, result.ErrorMessage(), "https://nodejs.org/")
		assert.Contains(t, result.ErrorMessage(), "Pre-flight validation failed")
	})

	t.Run("http source skips timestamps", func(t *testing.T) {
		stubLookup(t, "npm")
		cfg := config.Default()
		cfg.Registry.Source = config.SourceHTTP
		cfg.Commands.Timestamps = "mytool {{package}}"
		assert.False(t, ValidateConfig(cfg).HasErrors())

		cfg.Registry.Source = config.SourceNPM
		result := ValidateConfig(cfg)
		require.Len(t, result.Errors, 1)
		assert.Contains(t, result.Errors[0].Error(), "Ensure 'mytool' is installed")
	})
}

// TestValidateCommand tests the real PATH lookup.
func TestValidateCommand(t *testing.T) {
	assert.Nil(t, validateCommand(""))
	assert.Nil(t, validateCommand("sh"))

	err := validateCommand("this_command_definitely_does_not_exist_12345")
	require.NotNil(t, err)
	assert.Equal(t, "this_command_definitely_does_not_exist_12345", err.Command)
	assert.Empty(t, err.Hint)
}

// TestGetShellCommandCheck tests that the command name is passed as an argument.
func TestGetShellCommandCheck(t *testing.T) {
	t.Setenv("SHELL", "")
	shell, args := getShellCommandCheck("npm; rm -rf /")
	assert.Equal(t, "sh", shell)
	assert.Equal(t, []string{"-c", `command -v "$1"`, "preflight", "npm; rm -rf /"}, args)
}

// TestValidateResultEmpty tests the empty result helpers.
func TestValidateResultEmpty(t *testing.T) {
	r := &ValidateResult{}
	assert.False(t, r.HasErrors())
	assert.Empty(t, r.ErrorMessage())
}
