package resources

import "embed"

// FormatFiles holds the bundled countdown format presets.
//
//go:embed formats/*.yaml
var FormatFiles embed.FS
