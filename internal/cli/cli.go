// Package cli holds the commands of the artio tools: count-events,
// config-dumper and file-info-dumper. Each binary under cmd/ only builds
// its command here and executes it.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
	"github.com/spf13/cobra"

	"github.com/arloliu/artio/errs"
)

// NewLogger returns a logger that writes text records to stderr and, when
// logFile is not empty, JSON records to that file as well.
//
// Parameters:
//   - stderr: Destination of the text handler
//   - logFile: Optional path of a JSON log file, truncated on open
//   - verbose: Log at debug level instead of warn
//
// Returns:
//   - *slog.Logger: The fan-out logger
//   - func() error: Closes the log file; a no-op without one
//   - error: Failure to create the log file
func NewLogger(stderr io.Writer, logFile string, verbose bool) (*slog.Logger, func() error, error) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	handlers := []slog.Handler{slog.NewTextHandler(stderr, opts)}
	closeFn := func() error { return nil }
	if logFile != "" {
		f, err := os.Create(logFile)
		if err != nil {
			return nil, nil, err
		}
		handlers = append(handlers, slog.NewJSONHandler(f, opts))
		closeFn = f.Close
	}

	return slog.New(slogmulti.Fanout(handlers...)), closeFn, nil
}

// logFlags are the logging flags every tool accepts.
type logFlags struct {
	logFile string
	verbose bool
}

func (l *logFlags) register(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&l.logFile, "log-file", "", "also write JSON log records to this file")
	cmd.PersistentFlags().BoolVarP(&l.verbose, "verbose", "v", false, "log debug messages")
}

// run builds the logger for cmd and calls fn with it.
func (l *logFlags) run(cmd *cobra.Command, fn func(logger *slog.Logger) error) error {
	logger, closeLog, err := NewLogger(cmd.ErrOrStderr(), l.logFile, l.verbose)
	if err != nil {
		return err
	}
	runErr := fn(logger)
	if err := closeLog(); err != nil {
		runErr = errs.ErrorOrNil(errs.Append(runErr, err))
	}

	return runErr
}

// ForEachFile calls fn for every path. A failing file is reported on errOut
// and the loop goes on with the next one.
//
// Returns:
//   - int: Number of files fn failed on
//   - error: Every failure, accumulated; nil when all files succeeded
func ForEachFile(paths []string, errOut io.Writer, fn func(path string) error) (int, error) {
	var merr error
	failed := 0
	for _, path := range paths {
		if err := fn(path); err != nil {
			failed++
			fmt.Fprintf(errOut, "%s\t%s\n", path, describe(err))
			merr = errs.Append(merr, fmt.Errorf("%s: %w", path, err))
		}
	}
	if merr == nil {
		return 0, nil
	}

	return failed, merr
}

// describe turns a per-file failure into the message printed for it.
func describe(err error) string {
	switch {
	case errs.Is(err, errs.FileOpenError):
		return "Could not be opened: skipped."
	case errs.Is(err, errs.FileReadError), errs.Is(err, errs.DataCorruption):
		return fmt.Sprintf("Not a valid artio file: skipped (%v).", err)
	default:
		return fmt.Sprintf("Failed: %v.", err)
	}
}

func pluralize(n int64, thing string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, thing)
	}

	return fmt.Sprintf("%d %ss", n, thing)
}
