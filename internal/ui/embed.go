package ui

import "embed"

// Dist embeds the browser wizard: index.html plus its script under assets/.
//
//go:embed all:dist
var Dist embed.FS
