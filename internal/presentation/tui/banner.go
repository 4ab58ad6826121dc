package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the Strata banner and version to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"      _             _        ", "#818cf8"},
		{"  ___| |_ _ __ __ _| |_ __ _ ", "#a78bfa"},
		{" / __| __| '__/ _` | __/ _` |", "#c084fc"},
		{" \\__ \\ |_| | | (_| | || (_| |", "#e879f9"},
		{" |___/\\__|_|  \\__,_|\\__\\__,_|", "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("  "+version).Faint())
	fmt.Fprintln(w)
}
