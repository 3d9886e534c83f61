package main

// Version metadata, overridable at link time with
// -ldflags "-X main.Version=... -X main.Build=...".
var (
	Version = "0.1.0"
	Build   = "dev"
)
