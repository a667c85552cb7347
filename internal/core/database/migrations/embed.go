// Package migrations holds the SQLite schema applied by the local vector store.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
