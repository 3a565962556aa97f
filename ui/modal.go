package ui

import (
	"fmt"
	"io"
	"strings"
)

// Modal is a titled dialog box. A closed modal renders nothing.
type Modal struct {
	Title  string
	Open   bool
	Body   func(w io.Writer)
	Footer []Button
}

func (m Modal) Render(w io.Writer) {
	if !m.Open {
		return
	}
	rule := strings.Repeat("─", max(len(m.Title)+4, 32))
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "  %s\n", m.Title)
	fmt.Fprintln(w, rule)
	if m.Body != nil {
		m.Body(w)
	}
	if len(m.Footer) > 0 {
		labels := make([]string, len(m.Footer))
		for i, b := range m.Footer {
			labels[i] = b.String()
		}
		fmt.Fprintln(w, rule)
		fmt.Fprintln(w, strings.Join(labels, " "))
	}
}
