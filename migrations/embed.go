// Package migrations embeds the SQL schema for every supported storage driver.
package migrations

import "embed"

// FS holds one sub-directory of golang-migrate files per driver name.
//
//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS
