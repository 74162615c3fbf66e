package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/pflag"
)

// choiceFlag is a string flag restricted to a fixed set of values, so a bad
// value is rejected while flags are parsed.
type choiceFlag struct {
	value   string
	choices []string
}

var _ pflag.Value = (*choiceFlag)(nil)

func newChoiceFlag(value string, choices ...string) *choiceFlag {
	return &choiceFlag{value: value, choices: choices}
}

func (f *choiceFlag) String() string { return f.value }

func (f *choiceFlag) Set(value string) error {
	value = strings.ToLower(strings.TrimSpace(value))
	if !slices.Contains(f.choices, value) {
		return fmt.Errorf("must be one of %s", strings.Join(f.choices, ", "))
	}
	f.value = value
	return nil
}

func (f *choiceFlag) Type() string { return "string" }
