package ingest

import (
	"bytes"
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/zjy-dev/covalgebra/internal/exec"
	"github.com/zjy-dev/covalgebra/internal/logger"
)

// RunAnalyzer invokes the external analyzer as
//
//	command[0] command[1:]... trace bin...
//
// and decodes the analysis dump it prints on stdout. Bundles without a
// container kind are identified relative to the executor's directory.
func RunAnalyzer(ctx context.Context, ex exec.Executor, command []string, trace string, bins []string) (*Dump, error) {
	if len(command) == 0 {
		return nil, errors.New("no analyzer command configured")
	}
	args := append(append(append([]string(nil), command[1:]...), trace), bins...)
	logger.WithComponent("ingest").Debugf("running analyzer: %s %s", command[0], strings.Join(args, " "))

	res, err := ex.Run(ctx, command[0], args...)
	if err != nil {
		return nil, errors.Wrap(err, "analyzer failed")
	}
	if res.ExitCode != 0 {
		return nil, errors.Errorf("analyzer exited with status %d: %s", res.ExitCode, strings.TrimSpace(res.Stderr))
	}

	d, err := DecodeDump(bytes.NewReader(res.Stdout))
	if err != nil {
		return nil, err
	}
	dir := ""
	if ce, ok := ex.(*exec.CommandExecutor); ok {
		dir = ce.Dir
	}
	d.resolveContainers(dir)
	return d, nil
}
