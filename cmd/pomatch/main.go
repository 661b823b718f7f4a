package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/joseph-ayodele/po-matcher/internal/common"
	"github.com/joseph-ayodele/po-matcher/internal/document"
	"github.com/joseph-ayodele/po-matcher/internal/pipeline"
	"github.com/joseph-ayodele/po-matcher/internal/report"
)

// Exit codes.
const (
	exitApproved    = 0
	exitNeedsReview = 1
	exitUsage       = 2
	exitFailure     = 3
)

type options struct {
	configPath string
	format     string
	out        string
	noColor    bool
	invoice    string
	po         string
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		os.Exit(exitUsage)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, opts))
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("pomatch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "Path to YAML config file")
	fs.StringVar(&opts.format, "format", string(report.FormatText), "Report format: text, json, html, xlsx or pdf")
	fs.StringVar(&opts.out, "o", "", "Write the report to this file instead of stdout")
	fs.BoolVar(&opts.noColor, "no-color", false, "Disable coloured output")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: pomatch [flags] <invoice> <purchase_order>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return opts, errors.New("expected an invoice and a purchase order")
	}
	opts.invoice, opts.po = fs.Arg(0), fs.Arg(1)
	return opts, nil
}

func run(ctx context.Context, opts options) int {
	format, err := report.ParseFormat(opts.format)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUsage
	}
	if format.Binary() && opts.out == "" {
		fmt.Fprintf(os.Stderr, "%s reports need -o <file>\n", format)
		return exitUsage
	}

	cfg, err := common.LoadConfig(opts.configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUsage
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUsage
	}
	logger := common.NewLogger(cfg.Log, os.Stderr)

	invoice, err := readSource(opts.invoice)
	if err != nil {
		logger.Error("cli.read.failed", "path", opts.invoice, "error", err)
		return exitUsage
	}
	po, err := readSource(opts.po)
	if err != nil {
		logger.Error("cli.read.failed", "path", opts.po, "error", err)
		return exitUsage
	}

	proc, err := pipeline.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("cli.build.failed", "error", err)
		return exitUsage
	}

	spinner := newSpinner("comparing documents")
	done := make(chan struct{})
	go spin(spinner, done)
	cmp, err := proc.Compare(ctx, invoice, po)
	close(done)
	_ = spinner.Clear()
	if err != nil {
		logger.Error("cli.compare.failed", "code", common.CodeOf(err), "error", err)
		return exitCodeFor(err)
	}

	renderer := report.NewRenderer(report.Config{
		Color:        !opts.noColor && !color.NoColor && opts.out == "",
		ChromiumPath: cfg.Report.ChromiumPath,
		PDFTimeout:   cfg.Report.PDFTimeout,
	}, logger)
	var buf bytes.Buffer
	if err := renderer.Render(ctx, &buf, format, cmp); err != nil {
		logger.Error("cli.report.failed", "error", err)
		return exitFailure
	}
	if err := writeOutput(opts.out, buf.Bytes()); err != nil {
		logger.Error("cli.write.failed", "path", opts.out, "error", err)
		return exitFailure
	}

	if cmp.Result.Approved() {
		return exitApproved
	}
	return exitNeedsReview
}

// exitCodeFor maps a comparison failure to a process exit code.
func exitCodeFor(err error) int {
	switch common.CodeOf(err) {
	case common.CodeConfiguration, common.CodeMissingInput, common.CodeInvalidInput:
		return exitUsage
	}
	return exitFailure
}

func readSource(path string) (document.Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return document.Source{}, err
	}
	return document.Source{Name: filepath.Base(path), Data: data}, nil
}

func writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func newSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionClearOnFinish(),
	)
}

func spin(bar *progressbar.ProgressBar, done <-chan struct{}) {
	t := time.NewTicker(100 * time.Millisecond)
	defer t.Stop()
	for {
		select {
		case <-done:
			_ = bar.Finish()
			return
		case <-t.C:
			_ = bar.Add(1)
		}
	}
}
