package web

import "embed"

// FS embeds the HTML templates and the static assets (css/js).
//
//go:embed templates/*.html static/*
var FS embed.FS
