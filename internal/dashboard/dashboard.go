// Package dashboard holds the embedded HTML templates and styles served
// under /dashboard.
package dashboard

import "embed"

//go:embed templates/*.html
var Templates embed.FS

//go:embed assets/*
var Assets embed.FS

// MermaidScript is the module the session page loads to render diagrams.
const MermaidScript = "https://cdn.jsdelivr.net/npm/mermaid@11/dist/mermaid.esm.min.mjs"
