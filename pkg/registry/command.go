package registry

import (
	"context"
	"errors"

	"github.com/ajxudir/ripen/pkg/cmdexec"
	"github.com/ajxudir/ripen/pkg/config"
	"github.com/ajxudir/ripen/pkg/formats"
)

// CommandSource reads publish times from a shell command, by default
// `npm view {{package}} time --json`.
type CommandSource struct {
	command        string
	env            map[string]string
	dir            string
	timeoutSeconds int
}

// NewCommandSource creates a CommandSource from commands.timestamps.
// Each call is bounded by registry.timeout_seconds.
func NewCommandSource(cfg *config.Config) *CommandSource {
	return &CommandSource{
		command:        cfg.Commands.Timestamps,
		env:            cfg.Commands.Env,
		dir:            cfg.WorkingDir,
		timeoutSeconds: cfg.RegistryTimeout(),
	}
}

// VersionTimestamps runs the timestamps command for name.
//
// It performs the following operations:
//   - Runs the command with {{package}} replaced by name
//   - Treats a failed or timed out command as unavailable
//   - Parses stdout as a version to time object
//   - Treats an object without versions as unavailable
//
// Parameters:
//   - ctx: Cancellation for the command
//   - name: Registry package name
//
// Returns:
//   - Lookup: Available timestamps or the reason they are missing
//   - error: MalformedResponseError for non-object output, or ctx.Err()
func (s *CommandSource) VersionTimestamps(ctx context.Context, name string) (Lookup, error) {
	out, err := cmdexec.Execute(ctx, cmdexec.Request{
		Command:        s.command,
		Env:            s.env,
		Dir:            s.dir,
		TimeoutSeconds: s.timeoutSeconds,
		Replacements:   cmdexec.PackageReplacements(name),
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Lookup{}, ctxErr
		}
		var ce *cmdexec.CommandError
		if errors.As(err, &ce) && ce.Stderr != "" {
			return Unavailable(firstLine(ce.Stderr)), nil
		}
		return Unavailable(firstLine(err.Error())), nil
	}

	ts, err := formats.ParseTimestamps(name, out)
	if err != nil {
		return Lookup{}, err
	}
	if len(ts) == 0 {
		return Unavailable("no publish times listed"), nil
	}
	return Available(ts), nil
}
