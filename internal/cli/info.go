package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/arloliu/artio/errs"
	"github.com/arloliu/artio/fileindex"
	"github.com/arloliu/artio/format"
	"github.com/arloliu/artio/input"
	"github.com/arloliu/artio/product"
)

// InfoOptions select the sections file-info-dumper prints.
type InfoOptions struct {
	ProcessHistory bool
	RangeSets      bool
	// CompactRanges merges adjacent event ranges before printing them.
	CompactRanges bool
	EventList     bool
	FileIndex     bool
	BranchIDLists bool
	// DBTo, when set, receives a copy of the side-store database.
	DBTo    string
	TempDir string
}

// DumpFileInfo prints the selected sections for the file at path.
func DumpFileInfo(w io.Writer, path string, opts InfoOptions, logger *slog.Logger) error {
	histories := product.NewProcessHistoryRegistry()
	f, err := input.Open(path,
		input.WithLogger(logger),
		input.WithTempDir(opts.TempDir),
		input.WithRegistries(nil, histories, nil),
		input.WithCompactRanges(opts.CompactRanges),
		input.WithDelayedRead(format.InSubRun, true),
		input.WithDelayedRead(format.InRun, true),
	)
	if err != nil {
		return err
	}
	defer f.Close()

	if opts.ProcessHistory {
		if err := writeProcessHistories(w, histories); err != nil {
			return err
		}
	}
	if opts.RangeSets {
		if err := writeRangeSets(w, f); err != nil {
			return err
		}
	}
	if opts.EventList {
		if err := writeEventList(w, f.FileIndex()); err != nil {
			return err
		}
	}
	if opts.FileIndex {
		if err := f.FileIndex().Print(w); err != nil {
			return err
		}
	}
	if opts.BranchIDLists {
		if err := writeBranchIDLists(w, f); err != nil {
			return err
		}
	}
	if opts.DBTo != "" {
		return extractDB(w, f, opts.DBTo)
	}

	return nil
}

func writeProcessHistories(w io.Writer, reg *product.ProcessHistoryRegistry) error {
	for _, h := range reg.Histories() {
		id, err := h.ID()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "\nProcess history %s\n", id)
		for i, pc := range h {
			release := pc.ReleaseVersion
			if release == "" {
				release = "-"
			}
			fmt.Fprintf(w, "  %d  %-20s %-12s %s\n", i, pc.ProcessName, release, pc.PSetID)
		}
	}

	return nil
}

// writeRangeSets walks the file index and prints the range set every run
// and subrun was written with.
func writeRangeSets(w io.Writer, f *input.File) error {
	if !f.FormatVersion().SupportsRangeSets() {
		_, err := fmt.Fprintf(w, "\nRange sets are not stored in files of version %s.\n", f.FormatVersion())
		return err
	}
	fmt.Fprintln(w, "\nRange sets:")

	f.Rewind()
	for {
		switch f.GetEntryType() {
		case fileindex.KEnd:
			return nil
		case fileindex.KRun:
			p, err := f.ReadRun()
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "RunID: %s\n%s\n", p.ID(), p.RangeSet())
		case fileindex.KSubRun:
			p, err := f.ReadSubRun()
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "SubRunID: %s\n%s\n", p.ID(), p.RangeSet())
		default:
			f.NextEntry()
		}
	}
}

func writeEventList(w io.Writer, fi *fileindex.FileIndex) error {
	if _, err := fmt.Fprintf(w, "\n%10s%10s%10s\n", "Run", "SubRun", "Event"); err != nil {
		return err
	}
	for _, e := range fi.Elements() {
		if e.EntryType() != fileindex.KEvent {
			continue
		}
		if _, err := fmt.Fprintf(w, "%10d%10d%10d\n", e.EventID.Run, e.EventID.SubRun, e.EventID.Event); err != nil {
			return err
		}
	}

	return nil
}

func writeBranchIDLists(w io.Writer, f *input.File) error {
	lists := f.BranchIDLists()
	fmt.Fprintf(w, "\nBranch ID lists: %d\n", len(lists))
	for i, list := range lists {
		fmt.Fprintf(w, "  process %d:", i)
		for _, id := range list {
			fmt.Fprintf(w, " %s", id)
		}
		fmt.Fprintln(w)
	}

	return nil
}

// extractDB copies the side-store image of f to path.
func extractDB(w io.Writer, f *input.File, path string) error {
	if !f.FormatVersion().HasSideStore() {
		return errs.New(errs.FileReadError, "extract database", "file version %s has no side-store", f.FormatVersion())
	}
	image, err := f.Reader().Blob(format.SideStoreBlobName)
	if err != nil {
		return errs.Wrap(errs.FileReadError, "extract database", err)
	}
	if err := os.WriteFile(path, image, 0o644); err != nil { //nolint:gosec
		return err
	}
	_, err = fmt.Fprintf(w, "\nWrote side-store database (%s) to %s\n", humanize.IBytes(uint64(len(image))), path)

	return err
}

// NewFileInfoDumperCmd returns the file-info-dumper command.
func NewFileInfoDumperCmd() *cobra.Command {
	var (
		opts InfoOptions
		logs logFlags
	)
	cmd := &cobra.Command{
		Use:   "file-info-dumper [flags] <file>...",
		Short: "Print the bookkeeping records of artio files",
		Long: `Print the process history, the range sets of runs and subruns, the event
list, the file index or the branch ID lists of each file, and optionally
extract its side-store database.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.DBTo != "" && len(args) > 1 {
				return errs.New(errs.Configuration, "file-info-dumper", "--db-to takes a single input file, %d given", len(args))
			}

			return logs.run(cmd, func(logger *slog.Logger) error {
				out := cmd.OutOrStdout()
				_, err := ForEachFile(args, cmd.ErrOrStderr(), func(path string) error {
					fmt.Fprintf(out, "=============================================\nFile: %s\n", path)
					return DumpFileInfo(out, path, opts, logger)
				})

				return err
			})
		},
	}
	fl := cmd.Flags()
	fl.BoolVarP(&opts.ProcessHistory, "process-history", "P", false, "print the process history")
	fl.BoolVarP(&opts.RangeSets, "range-of-validity", "R", false, "print the range sets of runs and subruns")
	fl.BoolVar(&opts.CompactRanges, "compact", false, "merge adjacent event ranges when printing range sets")
	fl.BoolVar(&opts.EventList, "event-list", false, "print the events of the file")
	fl.BoolVar(&opts.FileIndex, "file-index", false, "print the file index")
	fl.BoolVarP(&opts.BranchIDLists, "branch-ids", "B", false, "print the branch ID lists")
	fl.StringVar(&opts.DBTo, "db-to", "", "write the side-store database to this path")
	fl.StringVar(&opts.TempDir, "temp-dir", "", "directory for the extracted side-store")
	logs.register(cmd)

	return cmd
}
