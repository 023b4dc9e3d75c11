// Package dialect renders the few date expressions that differ between
// the supported databases.
package dialect

import (
	"fmt"

	"gorm.io/gorm"
)

const (
	MySQL    = "mysql"
	Postgres = "postgres"
	SQLite   = "sqlite"
)

// Name returns the dialect name of a connection
func Name(db *gorm.DB) string {
	return db.Dialector.Name()
}

// Year returns an integer expression for the year of a date column
func Year(db *gorm.DB, column string) string {
	switch Name(db) {
	case Postgres:
		return fmt.Sprintf("CAST(EXTRACT(YEAR FROM %s) AS INTEGER)", column)
	case SQLite:
		return fmt.Sprintf("CAST(strftime('%%Y', %s) AS INTEGER)", column)
	default:
		return fmt.Sprintf("YEAR(%s)", column)
	}
}

// Month returns an integer expression (1-12) for the month of a date column
func Month(db *gorm.DB, column string) string {
	switch Name(db) {
	case Postgres:
		return fmt.Sprintf("CAST(EXTRACT(MONTH FROM %s) AS INTEGER)", column)
	case SQLite:
		return fmt.Sprintf("CAST(strftime('%%m', %s) AS INTEGER)", column)
	default:
		return fmt.Sprintf("MONTH(%s)", column)
	}
}

// YearMonth returns a "YYYY-MM" text expression for a date column
func YearMonth(db *gorm.DB, column string) string {
	switch Name(db) {
	case Postgres:
		return fmt.Sprintf("to_char(%s, 'YYYY-MM')", column)
	case SQLite:
		return fmt.Sprintf("strftime('%%Y-%%m', %s)", column)
	default:
		return fmt.Sprintf("DATE_FORMAT(%s, '%%Y-%%m')", column)
	}
}
