package main

import _ "embed"

// embeddedConfig holds the YAML configuration embedded at build time.
// default_config.yaml is a staging file that build scripts may overwrite
// with a site configuration before compiling.
//
//go:embed default_config.yaml
var embeddedConfig []byte
