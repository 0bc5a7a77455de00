package web

import (
	"embed"
)

// staticFiles holds the remote control page.
//
//go:embed static/*
var staticFiles embed.FS
