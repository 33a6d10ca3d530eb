//go:build !windows

package main

import "strings"

// isHiddenName reports dotfiles. "." and ".." are navigation, not hidden.
func isHiddenName(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

func isHiddenPath(_ string, name string) bool {
	return isHiddenName(name)
}
