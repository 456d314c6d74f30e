// Package sanitize strips or redacts sensitive values from exchanges before
// anything is persisted or displayed.
package sanitize

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/PentesterFlow/harspec/internal/errors"
)

// Action is what happens to a matched value.
type Action string

// Supported actions.
const (
	ActionRedact Action = "redact"
	ActionDrop   Action = "drop"
	ActionHash   Action = "hash"
)

// Placeholder replaces redacted string values. The field stays in place so
// downstream schema inference still records its existence and type.
const Placeholder = "[REDACTED]"

// RuleSet is the configured sanitization policy: name patterns, header
// names, and value regexes mapped to actions.
type RuleSet struct {
	// Names maps case-insensitive field/parameter name substrings to an
	// action. A partial match is enough; false positives are acceptable,
	// false negatives are not.
	Names map[string]Action `yaml:"names"`

	// Headers maps exact (case-insensitive) header names to an action.
	Headers map[string]Action `yaml:"headers"`

	// Values are regex rules applied to free-form text: header values,
	// query values, and non-JSON bodies.
	Values []ValueRule `yaml:"values"`
}

// ValueRule matches sensitive content by value rather than by name.
type ValueRule struct {
	Pattern string `yaml:"pattern"`
	Action  Action `yaml:"action"`
}

// DefaultRuleSet returns the built-in policy: auth headers, a deny-list of
// credential-ish field names, and regexes for bearer/basic credentials,
// emails, card-like digit runs, and long hex tokens.
func DefaultRuleSet() *RuleSet {
	return &RuleSet{
		Names: map[string]Action{
			"token":      ActionRedact,
			"password":   ActionRedact,
			"passwd":     ActionRedact,
			"secret":     ActionRedact,
			"key":        ActionRedact,
			"session":    ActionRedact,
			"email":      ActionRedact,
			"auth":       ActionRedact,
			"credential": ActionRedact,
			"cookie":     ActionRedact,
			"ssn":        ActionRedact,
			"phone":      ActionRedact,
		},
		Headers: map[string]Action{
			"Authorization":       ActionRedact,
			"Proxy-Authorization": ActionRedact,
			"Cookie":              ActionRedact,
			"Set-Cookie":          ActionRedact,
			"X-Api-Key":           ActionRedact,
			"X-Auth-Token":        ActionRedact,
			"X-Csrf-Token":        ActionRedact,
		},
		Values: []ValueRule{
			{Pattern: `Bearer [A-Za-z0-9\-._~+/]+=*`, Action: ActionRedact},
			{Pattern: `Basic [A-Za-z0-9+/]+=*`, Action: ActionRedact},
			{Pattern: `[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`, Action: ActionRedact},
			{Pattern: `\b\d{4}[ \-]?\d{4}[ \-]?\d{4}[ \-]?\d{4}\b`, Action: ActionRedact},
			{Pattern: `\b\d{3}-\d{2}-\d{4}\b`, Action: ActionRedact},
			{Pattern: `\b[a-f0-9]{32,}\b`, Action: ActionRedact},
		},
	}
}

// LoadRuleSet reads a rule file and overlays it on the defaults, so a config
// can extend the policy without restating it.
func LoadRuleSet(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIO(path, "read_rules", err)
	}

	var loaded RuleSet
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, errors.New(errors.Unknown, path, "parse_rules", "rules file is not valid YAML", err)
	}

	rs := DefaultRuleSet()
	for name, action := range loaded.Names {
		rs.Names[name] = action
	}
	for name, action := range loaded.Headers {
		rs.Headers[name] = action
	}
	rs.Values = append(rs.Values, loaded.Values...)

	if err := rs.Validate(); err != nil {
		return nil, err
	}
	return rs, nil
}

// Validate checks actions and compiles every value pattern once.
func (rs *RuleSet) Validate() error {
	check := func(a Action) error {
		switch a {
		case ActionRedact, ActionDrop, ActionHash:
			return nil
		default:
			return fmt.Errorf("unknown sanitization action %q", a)
		}
	}
	for name, a := range rs.Names {
		if err := check(a); err != nil {
			return fmt.Errorf("name rule %q: %w", name, err)
		}
	}
	for name, a := range rs.Headers {
		if err := check(a); err != nil {
			return fmt.Errorf("header rule %q: %w", name, err)
		}
	}
	for _, v := range rs.Values {
		if err := check(v.Action); err != nil {
			return fmt.Errorf("value rule %q: %w", v.Pattern, err)
		}
		if _, err := regexp.Compile(v.Pattern); err != nil {
			return fmt.Errorf("value rule %q: %w", v.Pattern, err)
		}
	}
	return nil
}
