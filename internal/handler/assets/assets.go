// Package assets holds the images referenced by the built-in sample catalog.
package assets

import "embed"

//go:embed *.svg
var FS embed.FS
