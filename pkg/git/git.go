// Package git runs git commands against a working copy.
package git

import (
	"context"
	"strings"

	"github.com/lxc/incus/v6/shared/subprocess"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Runner runs git commands.
type Runner interface {
	// Run runs git with args and returns its trimmed standard output.
	Run(ctx context.Context, args ...string) (string, error)

	// RunIgnoreErrors runs git with args and returns whatever it printed, even if it failed.
	RunIgnoreErrors(ctx context.Context, args ...string) string
}

// CLI runs the git executable in a working directory.
type CLI struct {
	Dir string
}

// NewCLI returns a Runner for the working copy containing dir.
func NewCLI(dir string) *CLI {
	return &CLI{Dir: dir}
}

func (c *CLI) Run(ctx context.Context, args ...string) (string, error) {
	log.Debugf("git %s", strings.Join(args, " "))

	output, err := subprocess.RunCommandContext(ctx, "git", c.args(args)...)
	if err != nil {
		return "", errors.Wrapf(err, "git %s failed", strings.Join(args, " "))
	}
	return strings.TrimRight(output, " \t\r\n"), nil
}

func (c *CLI) RunIgnoreErrors(ctx context.Context, args ...string) string {
	output, err := c.Run(ctx, args...)
	if err != nil {
		log.Debugf("Ignoring error: %v", err)
		return ""
	}
	return output
}

func (c *CLI) args(args []string) []string {
	if c.Dir == "" {
		return args
	}
	return append([]string{"-C", c.Dir}, args...)
}
