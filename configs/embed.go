// Package configs provides the embedded configuration template for
// searchsync.
//
// The template is embedded at build time with go:embed so it ships
// inside the binary and 'searchsync config init' works without any
// support files on disk. Its values mirror the hardcoded defaults in
// internal/config; the comments document what each knob does.
//
// To change the template, edit searchsync.example.yaml and rebuild.
package configs

import _ "embed"

// Template is the commented starter configuration written by
// 'searchsync config init'. Every value matches the built-in defaults,
// so a freshly written file changes nothing until edited.
//
//go:embed searchsync.example.yaml
var Template string
