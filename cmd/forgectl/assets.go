package main

import "embed"

// Default schemas and guidance documents, compiled into the binary so the
// tool works with no local files. Both are overridable with --schema-dir and
// --guidance.
//
//go:embed schemas guidance
var assets embed.FS
