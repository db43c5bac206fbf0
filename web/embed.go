// Package web embeds the auditor's HTML templates and static assets into
// the binary.
package web

import "embed"

// Templates holds the layout, partial, and page templates.
//
//go:embed templates/**/*.html
var Templates embed.FS

// Static holds stylesheets and other assets served under /static/.
//
//go:embed static/**/*
var Static embed.FS
