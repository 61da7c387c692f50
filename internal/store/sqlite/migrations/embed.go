package migrations

import "embed"

// FS holds the sqlite schema migrations, applied in filename order.
//
//go:embed *.sql
var FS embed.FS
