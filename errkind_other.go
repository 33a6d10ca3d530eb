//go:build !unix && !windows

package main

var errnoKinds []errnoKind
