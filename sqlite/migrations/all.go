package migrations

import "embed"

// All holds the table migrations, applied in file name order. Scripts are
// text/template sources rendered with the quoted table and column names.
//
//go:embed *.sql
var All embed.FS
