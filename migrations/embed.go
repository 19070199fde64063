// Package migrations embeds the SQL schema migrations applied at startup and
// by feedbackctl migrate.
package migrations

import "embed"

// FS holds every *.up.sql migration at the package root.
//
//go:embed *.up.sql
var FS embed.FS
