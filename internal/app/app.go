package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/tdh8316/namecheck/internal/check"
	"github.com/tdh8316/namecheck/internal/cli"
	"github.com/tdh8316/namecheck/internal/config"
	"github.com/tdh8316/namecheck/internal/httpx"
	"github.com/tdh8316/namecheck/internal/logging"
	"github.com/tdh8316/namecheck/internal/output"
	"github.com/tdh8316/namecheck/internal/results"
	"github.com/tdh8316/namecheck/internal/scan"
	"github.com/tdh8316/namecheck/internal/validate"
)

const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitUsage       = 2
	ExitInterrupted = 130
)

const inputTemplate = "# Add usernames here (one per line)\n"

func Run(ctx context.Context, args []string, stdout, stderr io.Writer) (code int) {
	opts, err := cli.Parse(args, stdout, stderr)
	if err != nil {
		if errors.Is(err, cli.ErrHelp) {
			return ExitOK
		}
		fmt.Fprintln(stderr, err.Error())
		return ExitUsage
	}

	printer := output.NewPrinter(stdout, opts.NoColor)

	defer func() {
		if r := recover(); r != nil {
			printer.Error(fmt.Sprint(r))
			code = ExitFailure
		}
	}()

	printer.Banner()

	cfg := config.Load(opts.ConfigFile)
	if opts.Debug {
		cfg.Debug = true
	}
	if opts.Endpoint != "" {
		cfg.Endpoint = opts.Endpoint
	}

	if !hasInput(opts.InputFile) {
		printer.Error("Input file not found or empty")
		printer.Info("Add usernames to " + opts.InputFile)
		if err := writeInputTemplate(opts.InputFile); err != nil {
			printer.Warning(err.Error())
		}
		return ExitUsage
	}

	if err := runChecks(ctx, opts, cfg, printer); err != nil {
		if errors.Is(err, context.Canceled) {
			printer.Warning("Interrupted by user")
			return ExitInterrupted
		}
		printer.Error(err.Error())
		return ExitFailure
	}
	return ExitOK
}

func runChecks(ctx context.Context, opts cli.Options, cfg config.Config, printer *output.Printer) error {
	session, err := logging.NewSession(opts.LogDir, cfg.Debug, time.Now())
	if err != nil {
		return err
	}
	defer session.Close()

	sink, err := results.Open(opts.ResultsDir)
	if err != nil {
		return err
	}
	defer sink.Close()

	client, err := httpx.NewClient(httpx.ClientConfig{
		Timeout:  cfg.Timeout,
		MaxConns: cfg.Threads,
		ProxyURL: opts.ProxyURL,
	})
	if err != nil {
		return errors.Wrap(err, "initialize HTTP client")
	}

	printer.Info("Loading usernames from " + filepath.Base(opts.InputFile))
	list, err := validate.LoadFile(opts.InputFile)
	if err != nil {
		return err
	}

	checker := check.NewChecker(client, check.Config{
		Endpoint:   cfg.Endpoint,
		Retries:    cfg.Retries,
		RetryDelay: cfg.RetryDelay,
		RateLimit:  cfg.RateLimit,
		Debug:      cfg.Debug,
	}, session.Logger)
	scanner := scan.NewScanner(checker, sink, scan.NewStats(), scan.Config{Concurrency: cfg.Threads}, session.Logger)

	total := len(list.Usernames)
	if total > 0 {
		printer.Success(fmt.Sprintf("Loaded %d usernames", total))
		if list.Duplicates > 0 {
			printer.Info(fmt.Sprintf("Removed %d duplicates", list.Duplicates))
		}
		if list.Invalid > 0 {
			printer.Info(fmt.Sprintf("Skipped %d invalid", list.Invalid))
		}
		printer.Info(fmt.Sprintf("Using %d threads", cfg.Threads))
		fmt.Fprintln(printer.Writer())

		session.WithFields(logrus.Fields{
			"total":   total,
			"threads": cfg.Threads,
			"timeout": cfg.Timeout.Seconds(),
		}).Info("Starting check session")
	}

	var onProgress func(scan.Progress)
	var progress *output.Progress
	if total > 0 {
		progress = printer.StartProgress(total)
		onProgress = progress.Update
	}

	summary, err := scanner.Run(ctx, list.Usernames, onProgress)
	if progress != nil {
		if err == nil {
			progress.Finish()
		} else {
			progress.Stop()
		}
	}
	switch {
	case errors.Is(err, scan.ErrNothingToCheck):
		printer.Error("No valid usernames to check")
		return nil
	case errors.Is(err, context.Canceled):
		session.WithField("checked", summary.Checked).Warn("Interrupted by user")
		return err
	case err != nil:
		return err
	}

	if err := session.Summary(summary.Checked, summary.Hits, summary.Taken, summary.Errors, summary.Elapsed); err != nil {
		printer.Warning(err.Error())
	}
	printer.Results(summary, opts.ResultsDir)
	return nil
}

func hasInput(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir() && info.Size() > 0
}

func writeInputTemplate(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "create %q", filepath.Dir(path))
	}
	if err := os.WriteFile(path, []byte(inputTemplate), 0o644); err != nil {
		return errors.Wrapf(err, "write %q", path)
	}
	return nil
}
