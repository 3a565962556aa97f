package pages

import (
	"strings"

	"github.com/dustin/go-humanize"

	"library-portal/api"
)

// displayDate renders a backend date as "2 Jan 2006", or "-" when empty.
func displayDate(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	t, err := api.ParseDate(s)
	if err != nil {
		return s
	}
	return t.Format("2 Jan 2006")
}

func currency(amount float64) string {
	return "₹" + humanize.Commaf(amount)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
