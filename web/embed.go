// Package web embeds the static single-page UI served at the root path.
package web

import "embed"

//go:embed static
var Static embed.FS
