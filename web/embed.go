// Package web holds the finadvisor page templates and static assets,
// compiled into the binary.
package web

import "embed"

// TemplatesFS holds index.html and the per-screen partials it includes.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS holds the stylesheet and the status-polling script.
//
//go:embed static/*
var StaticFS embed.FS
