package main

import (
	"os"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// terminalWidth is the column count of f, or 0 when f is not a terminal.
func terminalWidth(f *os.File) int {
	fd := f.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return 0
	}
	w, _, err := term.GetSize(int(fd))
	if err != nil {
		return 0
	}
	return w
}
