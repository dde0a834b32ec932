package ioschema

import "fmt"

// collationSQL returns the statement that sets "C" collation on a text
// column.
func collationSQL(table, column string) string {
	return fmt.Sprintf(
		`ALTER TABLE %s ALTER COLUMN %s TYPE TEXT COLLATE "C"`,
		table, column,
	)
}
