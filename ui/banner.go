package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Variant selects the colour and marker of a banner or button.
type Variant int

const (
	Info Variant = iota
	Success
	Warning
	Danger
)

var variants = map[Variant]struct {
	marker string
	color  *color.Color
}{
	Info:    {"[i]", color.New(color.FgCyan)},
	Success: {"[+]", color.New(color.FgGreen)},
	Warning: {"[!]", color.New(color.FgYellow)},
	Danger:  {"[x]", color.New(color.FgRed)},
}

// Banner prints a one-line coloured message.
func Banner(w io.Writer, v Variant, format string, args ...any) {
	style, ok := variants[v]
	if !ok {
		style = variants[Info]
	}
	style.color.Fprintf(w, "%s %s\n", style.marker, fmt.Sprintf(format, args...))
}
