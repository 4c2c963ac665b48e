package web

import "embed"

// TemplatesFS embeds the HTML templates used to render reports.
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS embeds static assets inlined into rendered pages.
//go:embed static/*
var StaticFS embed.FS
