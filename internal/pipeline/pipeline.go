// Package pipeline runs one lw-scanner evaluation as a build step and
// publishes the sanitized report into the build workspace.
package pipeline

import (
	"context"
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"

	scanerrors "github.com/gounthar/lacework-security-scanner-plugin/internal/errors"
	"github.com/gounthar/lacework-security-scanner-plugin/internal/report"
	"github.com/gounthar/lacework-security-scanner-plugin/internal/scanner"
	"github.com/sirupsen/logrus"
)

// State is a step of the linear pipeline.
type State string

const (
	StateInit          State = "INIT"
	StateArgsBuilt     State = "ARGS_BUILT"
	StateProcessRun    State = "PROCESS_RUN"
	StateHTMLCopied    State = "HTML_COPIED"
	StateHTMLSanitized State = "HTML_SANITIZED"
	StateCSSExtracted  State = "CSS_EXTRACTED"
	StateCSSCopied     State = "CSS_COPIED"
	StateDone          State = "DONE"
	StateFailed        State = "FAILED"
)

// Request describes one build step invocation.
type Request struct {
	Options scanner.ScanOptions
	// BuildRoot holds the scratch capture and the scanner's own report files.
	// Parallel steps must use distinct build roots.
	BuildRoot string
	// Workspace receives the final HTML and CSS artifacts.
	Workspace string
}

type Pipeline struct {
	Runner scanner.Runner
	Log    logrus.FieldLogger
}

// New returns a pipeline that runs lw-scanner as a local subprocess.
func New(log logrus.FieldLogger) *Pipeline {
	return &Pipeline{
		Runner: &scanner.ExecRunner{Log: log},
		Log:    log,
	}
}

type run struct {
	*Pipeline
	req   Request
	state State
	log   logrus.FieldLogger
}

func (r *run) advance(s State) {
	r.log.WithFields(logrus.Fields{"from": r.state, "to": s}).Debug("pipeline step")
	r.state = s
}

// fail logs err with its kind and ends the run with -1.
func (r *run) fail(err error) scanner.ScanResult {
	r.advance(StateFailed)
	r.log.Errorf("%s: %v", scanerrors.KindOf(err), err)
	return scanner.ScanResult{ExitCode: -1}
}

func (r *run) warn(err error) {
	r.log.Warnf("%s: %v", scanerrors.KindOf(err), err)
}

func (r *run) debug(err error) {
	r.log.Debugf("%s: %v", scanerrors.KindOf(err), err)
}

// Execute runs the scanner once and post-processes its report. The returned
// exit code is the scanner's own unless the step itself failed, in which
// case it is -1. Problems writing the sanitized report are only logged.
func (p *Pipeline) Execute(ctx context.Context, req Request) scanner.ScanResult {
	r := &run{
		Pipeline: p,
		req:      req,
		state:    StateInit,
		log:      p.Log.WithField("image", req.Options.ImageName+":"+req.Options.ImageTag),
	}
	return r.execute(ctx)
}

func (r *run) execute(ctx context.Context) scanner.ScanResult {
	opts := r.req.Options
	image := opts.ImageName + ":" + opts.ImageTag

	htmlFile := filepath.Join(r.req.BuildRoot, opts.OutputHTMLName)
	cssFile := filepath.Join(r.req.BuildRoot, scanner.StylesheetName)
	captureFile := filepath.Join(r.req.BuildRoot, scanner.CaptureName)

	argv, err := scanner.BuildArgs(opts, htmlFile)
	if err != nil {
		return r.fail(scanerrors.NewLaunchFailure("build arguments", image, err))
	}
	r.advance(StateArgsBuilt)

	defer func() {
		if err := os.Remove(captureFile); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
			r.log.Debugf("failed to remove output capture %s: %v", captureFile, err)
		}
	}()

	exitCode, err := scanner.RunScanner(ctx, r.Runner, argv, r.req.BuildRoot, captureFile, r.log)
	if err != nil {
		r.advance(StateFailed)
		return scanner.ScanResult{ExitCode: -1}
	}
	r.advance(StateProcessRun)
	if exitCode != 0 {
		r.warn(scanerrors.NewScannerFailure("evaluate image", image, exitCode))
	}

	// Error reports are still worth publishing, so copy whatever the scanner wrote.
	htmlTarget := filepath.Join(r.req.Workspace, opts.OutputHTMLName)
	if _, err := os.Stat(htmlFile); stderrors.Is(err, fs.ErrNotExist) {
		r.reportMissing(captureFile, image, err)
		r.advance(StateDone)
		return scanner.ScanResult{ExitCode: exitCode}
	}
	if err := report.CopyFile(htmlFile, htmlTarget); err != nil {
		return r.fail(scanerrors.NewLaunchFailure("copy html report", image, err))
	}
	r.advance(StateHTMLCopied)

	raw, err := os.ReadFile(htmlTarget)
	if err != nil {
		return r.fail(scanerrors.NewLaunchFailure("read html report", image, err))
	}
	htmlOutput := string(raw)

	if r.sanitizeHTML(htmlOutput, htmlTarget, image) {
		r.advance(StateHTMLSanitized)
	}

	css := report.ExtractCSS(htmlOutput)
	r.advance(StateCSSExtracted)

	cssTarget := filepath.Join(r.req.Workspace, scanner.StylesheetName)
	if err := report.WriteFile(cssFile, css); err != nil {
		r.debug(scanerrors.NewReportWriteFailure("write css", image, err))
		r.log.Info("Failed to save CSS file.")
	} else if err := report.CopyFile(cssFile, cssTarget); err != nil {
		r.debug(scanerrors.NewReportWriteFailure("copy css", image, err))
		r.log.Info("Failed to save CSS file.")
	} else {
		r.advance(StateCSSCopied)
	}

	r.advance(StateDone)
	return scanner.ScanResult{
		ExitCode: exitCode,
		HTMLPath: htmlTarget,
		CSSPath:  cssTarget,
	}
}

// sanitizeHTML rewrites the workspace copy of the report. It returns false
// when there was no document to sanitize or it could not be saved.
func (r *run) sanitizeHTML(text, target, image string) bool {
	html, preamble, ok := report.ExtractHTML(text)
	if !ok {
		r.log.Info(text)
		r.debug(scanerrors.NewReportMissing("extract html", image, stderrors.New("no doctype marker in report")))
		return false
	}
	if preamble != "" {
		r.log.Info(preamble)
	}

	if err := report.WriteFile(target, report.Sanitize(html)); err != nil {
		r.debug(scanerrors.NewReportWriteFailure("write html report", image, err))
		r.log.Info("Failed to save HTML report.")
		return false
	}
	return true
}

// reportMissing logs the scanner's captured output in place of the report
// it never wrote.
func (r *run) reportMissing(captureFile, image string, cause error) {
	r.warn(scanerrors.NewReportMissing("copy html report", image, cause))
	captured, err := os.ReadFile(captureFile)
	if err != nil {
		r.log.Debugf("failed to read output capture %s: %v", captureFile, err)
		return
	}
	r.log.Info(string(captured))
}
