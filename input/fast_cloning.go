package input

import (
	"slices"
	"strings"

	"github.com/arloliu/artio/errs"
)

// FastCloningEnabled is a fast-cloning decision with the reasons that
// deactivated it. Fast cloning is enabled iff no reason was recorded.
type FastCloningEnabled struct {
	reasons []string
}

// Disable records why fast cloning cannot be used.
func (f *FastCloningEnabled) Disable(reason string) {
	f.reasons = append(f.reasons, reason)
}

// Merge adds the reasons of other.
func (f *FastCloningEnabled) Merge(other FastCloningEnabled) {
	f.reasons = append(f.reasons, other.reasons...)
}

// Enabled reports whether fast cloning may be used.
func (f FastCloningEnabled) Enabled() bool {
	return len(f.reasons) == 0
}

// Reasons returns the recorded deactivation reasons.
func (f FastCloningEnabled) Reasons() []string {
	return slices.Clone(f.reasons)
}

// DisabledBecause renders the reasons as a multi-line message.
func (f FastCloningEnabled) DisabledBecause() string {
	var sb strings.Builder
	sb.WriteString("Fast cloning has been deactivated for the following reasons:\n")
	for _, r := range f.reasons {
		sb.WriteString(" - ")
		sb.WriteString(r)
		sb.WriteByte('\n')
	}

	return sb.String()
}

// FastCloningInfo exposes the processing limits that bound fast cloning.
// A zero value carries no limits and does not permit fast cloning.
type FastCloningInfo struct {
	limits *ProcessingLimits
}

// NewFastCloningInfo wraps the job's processing limits.
func NewFastCloningInfo(limits *ProcessingLimits) FastCloningInfo {
	return FastCloningInfo{limits: limits}
}

// FastCloningPermitted reports whether limits are known.
func (i FastCloningInfo) FastCloningPermitted() bool {
	return i.limits != nil
}

// RemainingEvents returns how many events the job may still process,
// or -1 when unlimited.
func (i FastCloningInfo) RemainingEvents() (int, error) {
	if !i.FastCloningPermitted() {
		return 0, errs.New(errs.LogicError, "remaining events", "no processing limits; check FastCloningPermitted first")
	}

	return i.limits.RemainingEvents(), nil
}

// RemainingSubRuns returns how many subruns the job may still process,
// or -1 when unlimited.
func (i FastCloningInfo) RemainingSubRuns() (int, error) {
	if !i.FastCloningPermitted() {
		return 0, errs.New(errs.LogicError, "remaining subruns", "no processing limits; check FastCloningPermitted first")
	}

	return i.limits.RemainingSubRuns(), nil
}
