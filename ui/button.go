package ui

import "github.com/fatih/color"

// Button is an action label. A loading button is also disabled.
type Button struct {
	Label    string
	Key      string
	Variant  Variant
	Loading  bool
	Disabled bool
}

func (b Button) Enabled() bool { return !b.Disabled && !b.Loading }

func (b Button) String() string {
	label := b.Label
	if b.Key != "" {
		label = b.Key + ") " + label
	}
	if b.Loading {
		return color.New(color.Faint).Sprintf("[ %s... ]", label)
	}
	if b.Disabled {
		return color.New(color.Faint).Sprintf("[ %s ]", label)
	}
	style, ok := variants[b.Variant]
	if !ok {
		return "[ " + label + " ]"
	}
	return style.color.Sprintf("[ %s ]", label)
}
