package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the ASCII art banner of catena to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"             _", "#818cf8"},
		{"   ___ __ _| |_ ___ _ __   __ _", "#a78bfa"},
		{"  / __/ _` | __/ _ \\ '_ \\ / _` |", "#c084fc"},
		{" | (_| (_| | ||  __/ | | | (_| |", "#e879f9"},
		{"  \\___\\__,_|\\__\\___|_| |_|\\__,_|", "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
