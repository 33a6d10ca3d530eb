package main

import (
	"io"

	"github.com/pkg/browser"
)

// openBrowser opens url in the default browser without letting the helper
// process write into our terminal.
func openBrowser(url string) error {
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard
	return browser.OpenURL(url)
}
