// Package main is the entry point for sysinv, the host inventory collector.
// A single invocation collects this host's hardware and OS facts, writes
// them to a JSON snapshot file and upserts them into the configured
// database. The run command repeats that on a schedule, as a foreground
// process or a Windows service.
package main

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	Execute(version)
}
