// Package npm runs the npm CLI to list installed packages and their
// outdated status.
package npm

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/ajxudir/ripen/pkg/cmdexec"
	"github.com/ajxudir/ripen/pkg/config"
	"github.com/ajxudir/ripen/pkg/formats"
	"github.com/ajxudir/ripen/pkg/outdated"
	"github.com/ajxudir/ripen/pkg/verbose"
)

// Client implements outdated.Lister with the commands from the config.
type Client struct {
	listCommand     string
	outdatedCommand string
	globalFlag      string
	env             map[string]string
	dir             string
	timeoutSeconds  int
}

var _ outdated.Lister = (*Client)(nil)

// NewClient creates a Client from the commands section of cfg.
//
// Parameters:
//   - cfg: Effective configuration; list.global selects the global flag for outdated queries
//
// Returns:
//   - *Client: Ready to use client
func NewClient(cfg *config.Config) *Client {
	return &Client{
		listCommand:     cfg.Commands.List,
		outdatedCommand: cfg.Commands.Outdated,
		globalFlag:      cfg.GlobalFlag(),
		env:             cfg.Commands.Env,
		dir:             cfg.WorkingDir,
		timeoutSeconds:  cfg.CommandTimeout(),
	}
}

// ListInstalled runs the list command and parses the installed tree.
func (c *Client) ListInstalled(ctx context.Context, opts outdated.ListOptions) (*formats.InstalledTree, error) {
	globalFlag := ""
	if opts.Global {
		globalFlag = "--global"
	}

	out, err := c.run(ctx, c.listCommand, map[string]string{
		"depth":       strconv.Itoa(opts.Depth),
		"global_flag": globalFlag,
	})
	if err != nil {
		return nil, fmt.Errorf("npm ls: %w", err)
	}
	if len(bytes.TrimSpace(out)) == 0 {
		return &formats.InstalledTree{Dependencies: map[string]formats.InstalledPackage{}}, nil
	}
	return formats.ParseInstalledTree(out)
}

// OutdatedInfo runs the outdated command once per name and merges the records.
//
// Returns:
//   - map[string]formats.OutdatedDependency: Records for the outdated names; up-to-date names are absent
//   - error: The first command or parse failure
func (c *Client) OutdatedInfo(ctx context.Context, names []string) (map[string]formats.OutdatedDependency, error) {
	result := make(map[string]formats.OutdatedDependency, len(names))
	for _, name := range names {
		replacements := cmdexec.PackageReplacements(name)
		replacements["global_flag"] = c.globalFlag

		out, err := c.run(ctx, c.outdatedCommand, replacements)
		if err != nil {
			return nil, fmt.Errorf("npm outdated %s: %w", name, err)
		}
		if len(bytes.TrimSpace(out)) == 0 {
			continue
		}

		records, err := formats.ParseOutdated(out)
		if err != nil {
			return nil, err
		}
		for key, dep := range records {
			result[key] = dep
		}
	}
	return result, nil
}

// run executes command and accepts a non-zero exit that still printed JSON,
// since npm outdated exits 1 whenever something is outdated and npm ls exits 1
// on peer dependency problems.
func (c *Client) run(ctx context.Context, command string, replacements map[string]string) ([]byte, error) {
	out, err := cmdexec.Execute(ctx, cmdexec.Request{
		Command:        command,
		Env:            c.env,
		Dir:            c.dir,
		TimeoutSeconds: c.timeoutSeconds,
		Replacements:   replacements,
	})
	if err == nil {
		return out, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	if code := cmdexec.ExitCode(err); code > 0 && looksLikeJSON(out) {
		verbose.Debugf("Command exited %d with JSON output, using output", code)
		return out, nil
	}
	return nil, err
}

// looksLikeJSON reports whether out starts with a JSON object or array.
func looksLikeJSON(out []byte) bool {
	trimmed := bytes.TrimSpace(out)
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}
