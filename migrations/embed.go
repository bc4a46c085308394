// Package migrations embeds the SQL schema migrations into the binary so
// they can be applied without the files present on disk.
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
package migrations

import "embed"

//go:embed *.sql
var files embed.FS

// FS holds every *.up.sql and *.down.sql file in this directory.
var FS = files
