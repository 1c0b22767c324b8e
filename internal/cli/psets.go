package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/arloliu/artio/columnar"
	"github.com/arloliu/artio/encoding"
	"github.com/arloliu/artio/errs"
	"github.com/arloliu/artio/format"
	"github.com/arloliu/artio/pset"
	"github.com/arloliu/artio/sidestore"
)

// PSetKind selects which configuration records config-dumper prints.
type PSetKind uint8

const (
	Modules PSetKind = iota
	Services
	Processes
)

func (k PSetKind) String() string {
	switch k {
	case Modules:
		return "modules"
	case Services:
		return "services"
	case Processes:
		return "processes"
	default:
		return "unknown"
	}
}

// Label returns the identifier of p for kind, or "" when p is not of that
// kind: the module label, the service provider or type, or the name of a
// process that has a source.
func (k PSetKind) Label(p pset.ParameterSet) string {
	switch k {
	case Modules:
		label, _ := p.GetString(pset.KeyModuleLabel)
		return label
	case Services:
		if label, ok := p.GetString(keyServiceProvider); ok {
			return label
		}
		label, _ := p.GetString(pset.KeyServiceType)

		return label
	case Processes:
		if _, ok := p.Table(keySource); !ok {
			return ""
		}
		label, _ := p.GetString(pset.KeyProcessName)

		return label
	default:
		return ""
	}
}

// strip returns a copy of p without the keys that make up its label.
func (k PSetKind) strip(p pset.ParameterSet) pset.ParameterSet {
	out := make(pset.ParameterSet, len(p))
	for key, v := range p {
		out[key] = v
	}
	switch k {
	case Modules:
		delete(out, pset.KeyModuleLabel)
	case Services:
		delete(out, pset.KeyServiceType)
		delete(out, keyServiceProvider)
	case Processes:
		delete(out, pset.KeyProcessName)
	}

	return out
}

const (
	keyServiceProvider = "service_provider"
	keySource          = "source"
)

// StoredParameterSets are the configuration records read from one file.
type StoredParameterSets struct {
	Registry *pset.Registry
	// DBSize is the size of the side-store database in bytes.
	DBSize int64
}

// ReadParameterSets reads every parameter set stored in the file at path.
// Only the metadata tree and the side-store are touched, so files without
// events are readable too.
//
// Returns:
//   - StoredParameterSets: The registry of stored sets and the store size
//   - error: FileOpenError, or FileReadError when the metadata is missing or
//     the file belongs to another era
func ReadParameterSets(path, tempDir string) (StoredParameterSets, error) {
	r, err := columnar.Open(path)
	if err != nil {
		return StoredParameterSets{}, errs.Wrap(errs.FileOpenError, "open "+path, err)
	}
	defer r.Close()

	version, err := readFormatVersion(r)
	if err != nil {
		return StoredParameterSets{}, err
	}
	if !version.SameEra() {
		era := "not set"
		if version.Era != "" {
			era = fmt.Sprintf("set to %q", version.Era)
		}

		return StoredParameterSets{}, errs.New(errs.FileReadError, "read parameter sets",
			"can only read files written during the %q era: era of %q was %s", format.Era, path, era)
	}

	out := StoredParameterSets{Registry: pset.NewRegistry()}
	if !version.HasSideStore() {
		return out, nil
	}

	image, err := r.Blob(format.SideStoreBlobName)
	if err != nil {
		return StoredParameterSets{}, errs.Wrap(errs.FileReadError, "side-store", err)
	}
	store, err := sidestore.OpenImage(image, tempDir)
	if err != nil {
		return StoredParameterSets{}, errs.Wrap(errs.FileReadError, "side-store", err)
	}
	defer store.Close()

	if out.DBSize, err = store.Size(); err != nil {
		return StoredParameterSets{}, errs.Wrap(errs.FileReadError, "side-store size", err)
	}
	blobs, err := store.ReadParameterSets()
	if err != nil {
		return StoredParameterSets{}, err
	}
	if err := out.Registry.Import(blobs); err != nil {
		return StoredParameterSets{}, err
	}

	return out, nil
}

func readFormatVersion(r *columnar.Reader) (format.FileFormatVersion, error) {
	var v format.FileFormatVersion
	meta, err := r.Tree(format.MetaDataTreeName)
	if err != nil {
		return v, errs.Wrap(errs.FileReadError, "metadata", err)
	}
	br, err := meta.Branch(format.FileFormatVersionBranch)
	if err != nil {
		return v, errs.Wrap(errs.FileReadError, "metadata", err)
	}
	raw, err := br.Read(0)
	if err != nil {
		return v, errs.Wrap(errs.FileReadError, "metadata", err)
	}
	if err := encoding.UnmarshalRecord(raw, &v); err != nil {
		return v, errs.Wrap(errs.DataCorruption, "file format version", err)
	}

	return v, nil
}

// WriteParameterSets prints the sets of reg matching kind, sorted by label.
// A set whose label is not in filters is skipped; no filters keeps all.
// When two sets share a label the first in ID order is printed.
func WriteParameterSets(w io.Writer, reg *pset.Registry, kind PSetKind, filters []string) error {
	byLabel := make(map[string]pset.ParameterSet)
	for _, id := range reg.IDs() {
		p, _ := reg.Get(id)
		label := kind.Label(p)
		if label == "" || (len(filters) > 0 && !slices.Contains(filters, label)) {
			continue
		}
		if _, dup := byLabel[label]; !dup {
			byLabel[label] = p
		}
	}

	labels := make([]string, 0, len(byLabel))
	for label := range byLabel {
		labels = append(labels, label)
	}
	slices.Sort(labels)

	for _, label := range labels {
		body := indent(kind.strip(byLabel[label]).Pretty(), "  ")
		if _, err := fmt.Fprintf(w, "%s: {\n%s}\n\n", label, body); err != nil {
			return err
		}
	}

	return nil
}

func indent(text, prefix string) string {
	var sb strings.Builder
	for line := range strings.Lines(text) {
		if strings.TrimSpace(line) != "" && line != "{}\n" {
			sb.WriteString(prefix)
			sb.WriteString(line)
		}
	}

	return sb.String()
}

// NewConfigDumperCmd returns the config-dumper command.
func NewConfigDumperCmd() *cobra.Command {
	var (
		services, processes bool
		printDBSize         bool
		filters             []string
		tempDir             string
		logs                logFlags
	)
	cmd := &cobra.Command{
		Use:   "config-dumper [flags] <file>...",
		Short: "Print the configuration records stored in artio files",
		Long: `Print the module (default), service or process configurations stored in
each file. --filter limits the output to the given module labels, service
types or process names.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := Modules
			switch {
			case services:
				kind = Services
			case processes:
				kind = Processes
			}

			return logs.run(cmd, func(logger *slog.Logger) error {
				out := cmd.OutOrStdout()
				_, err := ForEachFile(args, cmd.ErrOrStderr(), func(path string) error {
					fmt.Fprintf(out, "=============================================\nProcessing file: %s\n", path)
					stored, err := ReadParameterSets(path, tempDir)
					if err != nil {
						return err
					}
					logger.Debug("read parameter sets", "file", path, "count", stored.Registry.Len(), "kind", kind.String())
					if printDBSize {
						fmt.Fprintf(out, "# Read SQLiteDB from file, total size: %s.\n\n", humanize.IBytes(uint64(stored.DBSize))) //nolint:gosec
					}

					return WriteParameterSets(out, stored.Registry, kind, filters)
				})

				return err
			})
		},
	}
	cmd.Flags().BoolVarP(&services, "services", "S", false, "print service configurations")
	cmd.Flags().BoolVarP(&processes, "process", "P", false, "print process configurations")
	cmd.Flags().BoolP("modules", "M", true, "print module configurations (default)")
	cmd.MarkFlagsMutuallyExclusive("services", "process")
	cmd.Flags().StringSliceVarP(&filters, "filter", "f", nil, "only entities with these labels, service types or process names")
	cmd.Flags().BoolVar(&printDBSize, "print-db-size", false, "print the size of the side-store database")
	cmd.Flags().StringVar(&tempDir, "temp-dir", "", "directory for the extracted side-store")
	logs.register(cmd)

	return cmd
}
