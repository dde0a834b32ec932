package schema

import (
	"gorm.io/gorm"
)

// Migrate runs GORM AutoMigrate for the species collection stored in
// the given table. It creates columns only, indexes come from
// SpeciesRow.IndexDDL.
func Migrate(db *gorm.DB, table string) error {
	return db.Table(table).AutoMigrate(&SpeciesRow{})
}
