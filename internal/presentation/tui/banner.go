package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the sitescript banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{`      _ _                       _       _   `, "#38bdf8"},
		{`  ___(_) |_ ___  ___  ___ _ __(_)_ __ | |_ `, "#22d3ee"},
		{` / __| | __/ _ \/ __|/ __| '__| | '_ \| __|`, "#2dd4bf"},
		{` \__ \ | ||  __/\__ \ (__| |  | | |_) | |_ `, "#34d399"},
		{` |___/_|\__\___||___/\___|_|  |_| .__/ \__|`, "#4ade80"},
		{`                                |_|        `, "#a3e635"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
