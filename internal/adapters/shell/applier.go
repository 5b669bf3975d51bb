// Package shell runs the external update step as a subprocess.
package shell

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"

	"github.com/openmeteor/stationup/internal/domain"
	"github.com/openmeteor/stationup/internal/ports"
)

// CommandApplier implements ports.Applier by running a configured update
// command in the workspace. The command is expected to stash local changes,
// fetch new source, reinstall dependencies, and rebuild native extensions;
// the applier only cares about its exit status.
type CommandApplier struct {
	workdir string
	name    string
	args    []string
	logger  ports.Logger
}

// NewCommandApplier creates a CommandApplier running name with args inside
// workdir.
func NewCommandApplier(workdir, name string, args []string, logger ports.Logger) *CommandApplier {
	return &CommandApplier{workdir: workdir, name: name, args: args, logger: logger}
}

// Apply runs the update command to completion, streaming its combined
// output into the log. The call blocks for as long as the command runs;
// it may be long (network fetch, native compilation).
func (a *CommandApplier) Apply(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, a.name, a.args...)
	cmd.Dir = a.workdir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("%w: stdout pipe: %v", domain.ErrApplierFailed, err)
	}
	cmd.Stderr = cmd.Stdout

	a.logger.Info("running update command",
		ports.String("command", a.name),
		ports.Any("args", a.args),
		ports.String("dir", a.workdir))

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: start: %v", domain.ErrApplierFailed, err)
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		a.logger.Info("applier", ports.String("output", scanner.Text()))
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %v", domain.ErrApplierFailed, ctx.Err())
		}
		return fmt.Errorf("%w: %v", domain.ErrApplierFailed, err)
	}
	return nil
}
