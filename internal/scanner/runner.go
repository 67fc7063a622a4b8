package scanner

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	scanerrors "github.com/gounthar/lacework-security-scanner-plugin/internal/errors"
	"github.com/sirupsen/logrus"
)

// Runner executes a built argument list and reports the process exit code.
// A non-nil error means the process could not be run at all.
type Runner interface {
	Run(ctx context.Context, argv Argv, dir string, out io.Writer) (int, error)
}

// ExecRunner runs the scanner as a local subprocess.
type ExecRunner struct {
	Log logrus.FieldLogger
}

var _ Runner = (*ExecRunner)(nil)

// Run starts argv in dir with stdout and stderr both written to out and an
// empty stdin, then blocks until the process exits.
func (r *ExecRunner) Run(ctx context.Context, argv Argv, dir string, out io.Writer) (int, error) {
	if len(argv) == 0 {
		return -1, scanerrors.NewLaunchFailure("run scanner", "", fmt.Errorf("empty argument list"))
	}

	values := argv.Strings()
	cmd := exec.CommandContext(ctx, values[0], values[1:]...)
	cmd.Dir = dir
	cmd.Stdin = nil
	cmd.Stdout = out
	cmd.Stderr = out

	if r.Log != nil {
		r.Log.Infof("Executing: %s", argv)
	}

	if err := cmd.Start(); err != nil {
		return -1, scanerrors.NewLaunchFailure("start scanner", "", err)
	}

	err := cmd.Wait()
	if err != nil {
		var exitErr *exec.ExitError
		if stderrors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return -1, scanerrors.NewLaunchFailure("wait for scanner", "", err)
	}
	return 0, nil
}

// RunScanner runs argv with its combined output captured to capturePath.
// Any failure to set up or run the process is logged and returned as exit
// code -1 alongside the error. The capture file is closed on every path.
func RunScanner(ctx context.Context, runner Runner, argv Argv, dir, capturePath string, log logrus.FieldLogger) (code int, err error) {
	capture, err := os.Create(capturePath)
	if err != nil {
		err = scanerrors.NewLaunchFailure("open output capture", "", err)
		log.Errorf("%s: %v", scanerrors.KindOf(err), err)
		return -1, err
	}
	defer func() {
		if cerr := capture.Close(); cerr != nil && err == nil {
			err = scanerrors.NewLaunchFailure("close output capture", "", cerr)
			log.Errorf("%s: %v", scanerrors.KindOf(err), err)
			code = -1
		}
	}()

	code, err = runner.Run(ctx, argv, dir, capture)
	if err != nil {
		log.Errorf("%s: %v", scanerrors.KindOf(err), err)
		return -1, err
	}
	return code, nil
}
