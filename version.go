package main

// Version is injected at build time:
//
//	go build -ldflags "-X main.Version=v0.3.0" .
//
// Without it the binary reports "dev".
var Version = "dev"
