package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/arloliu/artio/columnar"
	"github.com/arloliu/artio/errs"
	"github.com/arloliu/artio/format"
)

// Counts are the record totals of one file.
type Counts struct {
	Runs    int64
	SubRuns int64
	Events  int64
	Results int64
}

// CountEvents reads the record totals of the file at path from the entry
// counts of its data trees. No record is decoded.
//
// A file has results only when its results tree holds a product branch
// besides the auxiliary one.
func CountEvents(path string) (Counts, error) {
	r, err := columnar.Open(path)
	if err != nil {
		return Counts{}, errs.Wrap(errs.FileOpenError, "open "+path, err)
	}
	defer r.Close()

	var totals [format.NumBranchTypes]int64
	for _, bt := range []format.BranchType{format.InEvent, format.InSubRun, format.InRun} {
		t, err := r.Tree(bt.TreeName())
		if err != nil {
			return Counts{}, errs.Wrap(errs.FileReadError, "count "+path, err)
		}
		totals[bt] = t.Entries()
	}
	if t, err := r.Tree(format.InResults.TreeName()); err == nil && len(t.Branches()) > 1 {
		totals[format.InResults] = 1
	}

	return Counts{
		Runs:    totals[format.InRun],
		SubRuns: totals[format.InSubRun],
		Events:  totals[format.InEvent],
		Results: totals[format.InResults],
	}, nil
}

// Format renders c for path, as tab-separated columns or as a sentence.
func (c Counts) Format(path string, human bool) string {
	if human {
		return fmt.Sprintf("%s\t%s, %s, %s, and %s.\n", path,
			pluralize(c.Runs, "run"), pluralize(c.SubRuns, "subrun"),
			pluralize(c.Events, "event"), pluralize(c.Results, "result"))
	}

	return fmt.Sprintf("%s\t%d\t%d\t%d\t%d\n", path, c.Runs, c.SubRuns, c.Events, c.Results)
}

// NewCountEventsCmd returns the count-events command.
func NewCountEventsCmd() *cobra.Command {
	var (
		human bool
		logs  logFlags
	)
	cmd := &cobra.Command{
		Use:   "count-events [flags] <file>...",
		Short: "Count the runs, subruns, events and results of artio files",
		Long: `Count the records of each file from the entry counts of its data trees,
without decoding any record. Prints one line per file: name, runs, subruns,
events and results.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return logs.run(cmd, func(logger *slog.Logger) error {
				return countFiles(cmd.OutOrStdout(), cmd.ErrOrStderr(), args, human, logger)
			})
		},
	}
	cmd.Flags().BoolVar(&human, "hr", false, "human-readable output")
	logs.register(cmd)

	return cmd
}

func countFiles(out, errOut io.Writer, paths []string, human bool, logger *slog.Logger) error {
	failed, err := ForEachFile(paths, errOut, func(path string) error {
		c, err := CountEvents(path)
		if err != nil {
			return err
		}
		logger.Debug("counted records", "file", path, "events", c.Events)
		fmt.Fprint(out, c.Format(path, human))

		return nil
	})
	if err != nil {
		fmt.Fprintf(out, "Failed to count events for %d of %d specified files.\n", failed, len(paths))
		return err
	}
	fmt.Fprintf(out, "Counted events successfully for %d specified files.\n", len(paths))

	return nil
}
