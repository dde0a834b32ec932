package schema

import (
	"fmt"
	"reflect"
	"strings"
)

// generateDDL creates a CREATE TABLE statement from struct tags.
func generateDDL(model any, tableName string) string {
	v := reflect.ValueOf(model)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	t := v.Type()

	var columns []string

	for i := range t.NumField() {
		field := t.Field(i)
		dbTag := field.Tag.Get("db")
		ddlTag := field.Tag.Get("ddl")

		if dbTag != "" && ddlTag != "" {
			columns = append(columns, fmt.Sprintf("    %s %s", dbTag, ddlTag))
		}
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n%s\n);",
		tableName,
		strings.Join(columns, ",\n"))
}

// TableDDL returns CREATE TABLE for SQLite.
func (r SpeciesRow) TableDDL(table string) string {
	return generateDDL(r, table)
}

// IndexDDL returns the indexes of the collection: unique scientific
// name, common name, family and failure time used by the acquirer.
func (r SpeciesRow) IndexDDL(table string) []string {
	return []string{
		fmt.Sprintf(
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_%[1]s_scientific_name "+
				"ON %[1]s(scientific_name);", table),
		fmt.Sprintf(
			"CREATE INDEX IF NOT EXISTS idx_%[1]s_common_name "+
				"ON %[1]s(common_name);", table),
		fmt.Sprintf(
			"CREATE INDEX IF NOT EXISTS idx_%[1]s_family ON %[1]s(family);",
			table),
		fmt.Sprintf(
			"CREATE INDEX IF NOT EXISTS idx_%[1]s_image_failed_at "+
				"ON %[1]s(image_failed_at);", table),
	}
}
