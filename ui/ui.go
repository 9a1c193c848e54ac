// Package ui holds the HTML templates and static assets served by cmd/api.
package ui

import "embed"

//go:embed templates static
var Files embed.FS
