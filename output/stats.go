package output

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/arloliu/artio/format"
	"github.com/arloliu/artio/ids"
	"github.com/arloliu/artio/sidestore"
)

// fileStats collects what the file catalog metadata reports about one
// output file.
type fileStats struct {
	openedAt    time.Time
	events      uint64
	lowest      ids.EventID
	highest     ids.EventID
	seenSubRuns []ids.EventID
	parents     []string
}

func newFileStats(openedAt time.Time) *fileStats {
	return &fileStats{openedAt: openedAt, lowest: ids.InvalidID(), highest: ids.InvalidID()}
}

func (s *fileStats) recordEvent(id ids.EventID) {
	s.events++
	if !s.lowest.IsValid() || id.Less(s.lowest) {
		s.lowest = id
	}
	if !s.highest.IsValid() || s.highest.Less(id) {
		s.highest = id
	}
}

func (s *fileStats) recordSubRun(id ids.EventID) {
	if !slices.Contains(s.seenSubRuns, id) {
		s.seenSubRuns = append(s.seenSubRuns, id)
	}
}

func (s *fileStats) recordInputFile(name string) {
	if name != "" && !slices.Contains(s.parents, name) {
		s.parents = append(s.parents, name)
	}
}

func eventTuple(id ids.EventID) string {
	if !id.IsValid() {
		return "[ ]"
	}

	return fmt.Sprintf("[ %d, %d, %d ]", id.Run, id.SubRun, id.Event)
}

func eventNumber(id ids.EventID) string {
	if !id.IsValid() {
		return "0"
	}

	return strconv.FormatUint(uint64(id.Event), 10)
}

func quotedList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = strconv.Quote(v)
	}

	return "[ " + strings.Join(quoted, ", ") + " ]"
}

// catalogMetadata builds the FileCatalog_metadata rows. Later rows with
// the same name replace earlier ones when the table is written.
func (s *fileStats) catalogMetadata(guid, processName string, closedAt time.Time, md, stream []sidestore.MetadataEntry) []sidestore.MetadataEntry {
	out := slices.Clone(md)
	add := func(name, value string) {
		out = append(out, sidestore.MetadataEntry{Name: name, Value: value})
	}

	add("file_format", strconv.Quote("artroot"))
	add("file_guid", strconv.Quote(guid))
	add("start_time", strconv.Quote(s.openedAt.UTC().Format(time.RFC3339)))
	add("end_time", strconv.Quote(closedAt.UTC().Format(time.RFC3339)))

	if len(s.seenSubRuns) > 0 {
		if runType, ok := lastValue(md, "art.run_type"); ok {
			parts := make([]string, 0, len(s.seenSubRuns))
			for _, sr := range s.seenSubRuns {
				parts = append(parts, fmt.Sprintf("[ %d, %d, %s ]", sr.Run, sr.SubRun, strconv.Quote(runType)))
			}
			add("runs", "[ "+strings.Join(parts, ", ")+" ]")
		}
	}

	add("event_count", strconv.FormatUint(s.events, 10))
	add("first_event", eventNumber(s.lowest))
	add("last_event", eventNumber(s.highest))
	if len(s.parents) > 0 {
		add("parents", quotedList(s.parents))
	}
	add("art.first_event", eventTuple(s.lowest))
	add("art.last_event", eventTuple(s.highest))
	add("art.file_format_era", strconv.Quote(format.Era))
	add("art.file_format_version", strconv.Itoa(format.CurrentVersion))
	if processName != "" {
		add("art.process_name", strconv.Quote(processName))
	}

	return dedupeByName(append(out, stream...))
}

// dedupeByName keeps the first position of every name with its last value.
func dedupeByName(md []sidestore.MetadataEntry) []sidestore.MetadataEntry {
	pos := make(map[string]int, len(md))
	out := make([]sidestore.MetadataEntry, 0, len(md))
	for _, e := range md {
		if i, ok := pos[e.Name]; ok {
			out[i].Value = e.Value
			continue
		}
		pos[e.Name] = len(out)
		out = append(out, e)
	}

	return out
}

func lastValue(md []sidestore.MetadataEntry, name string) (string, bool) {
	for i := len(md) - 1; i >= 0; i-- {
		if md[i].Name == name {
			return md[i].Value, true
		}
	}

	return "", false
}
