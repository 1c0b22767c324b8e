// Package selector applies keep/drop rules to product descriptions.
//
// A rule reads "keep <spec>" or "drop <spec>". The spec is either "*" or
// four underscore-separated fields, type_label_instance_process, each a
// glob pattern. A fifth field restricts the rule to one branch type
// ("Event", "SubRun", "Run" or "Results"). Rules apply in order and the
// last matching rule decides; with no rules every product is kept.
package selector

import (
	"path"
	"strings"

	"github.com/arloliu/artio/errs"
	"github.com/arloliu/artio/format"
	"github.com/arloliu/artio/product"
)

// Rule is one parsed keep/drop rule.
type Rule struct {
	Keep       bool
	Fields     [4]string
	BranchType format.BranchType
	AnyType    bool
	text       string
}

func (r Rule) String() string {
	return r.text
}

// Matches reports whether the rule's spec applies to bd.
func (r Rule) Matches(bd product.BranchDescription) bool {
	if !r.AnyType && r.BranchType != bd.BranchType {
		return false
	}
	values := [4]string{bd.FriendlyTypeName(), bd.ModuleLabel, bd.InstanceName, bd.ProcessName}
	for i, pattern := range r.Fields {
		ok, err := path.Match(pattern, values[i])
		if err != nil || !ok {
			return false
		}
	}

	return true
}

// ParseRule parses a single rule. The parameter names the configuration
// key the rule came from and is used in error messages.
func ParseRule(text, parameter string) (Rule, error) {
	parts := strings.Fields(text)
	if len(parts) != 2 {
		return Rule{}, errs.New(errs.Configuration, parameter, "rule %q must be \"keep <spec>\" or \"drop <spec>\"", text)
	}

	r := Rule{AnyType: true, text: text}
	switch parts[0] {
	case "keep":
		r.Keep = true
	case "drop":
	default:
		return Rule{}, errs.New(errs.Configuration, parameter, "rule %q must start with keep or drop", text)
	}

	spec := parts[1]
	if spec == "*" {
		r.Fields = [4]string{"*", "*", "*", "*"}
		return r, nil
	}

	fields := strings.Split(spec, "_")
	switch len(fields) {
	case 4:
	case 5:
		bt, ok := parseBranchType(fields[4])
		if !ok {
			return Rule{}, errs.New(errs.Configuration, parameter, "rule %q has unknown branch type %q", text, fields[4])
		}
		r.BranchType, r.AnyType = bt, false
		fields = fields[:4]
	default:
		return Rule{}, errs.New(errs.Configuration, parameter, "rule %q needs 4 underscore-separated fields", text)
	}
	for i, f := range fields {
		if _, err := path.Match(f, ""); err != nil {
			return Rule{}, errs.New(errs.Configuration, parameter, "rule %q has a bad pattern %q", text, f)
		}
		r.Fields[i] = f
	}

	return r, nil
}

func parseBranchType(s string) (format.BranchType, bool) {
	s = strings.TrimPrefix(s, "In")
	for _, bt := range format.BranchTypes {
		if bt.String() == s {
			return bt, true
		}
	}

	return 0, false
}

// Rules is an ordered list of keep/drop rules.
type Rules struct {
	rules []Rule
}

// ParseRules parses every rule in order.
func ParseRules(texts []string, parameter string) (*Rules, error) {
	rs := &Rules{rules: make([]Rule, 0, len(texts))}
	for _, t := range texts {
		r, err := ParseRule(t, parameter)
		if err != nil {
			return nil, err
		}
		rs.rules = append(rs.rules, r)
	}

	return rs, nil
}

// KeepAll reports whether the rules keep every product.
func (rs *Rules) KeepAll() bool {
	if rs == nil || len(rs.rules) == 0 {
		return true
	}
	last := rs.rules[len(rs.rules)-1]

	return len(rs.rules) == 1 && last.Keep && last.AnyType && last.Fields == [4]string{"*", "*", "*", "*"}
}

// Selected reports whether bd is kept.
func (rs *Rules) Selected(bd product.BranchDescription) bool {
	if rs.KeepAll() {
		return true
	}
	selected := false
	for _, r := range rs.rules {
		if r.Matches(bd) {
			selected = r.Keep
		}
	}

	return selected
}

// Len returns the number of rules.
func (rs *Rules) Len() int {
	if rs == nil {
		return 0
	}

	return len(rs.rules)
}
