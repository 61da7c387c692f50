package resources

import "embed"

// FS holds the static files served under /static/.
//
//go:embed favicon.svg robots.txt
var FS embed.FS
