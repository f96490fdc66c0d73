package migrations

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// legacyTimeColumns are the trades columns that older ledgers persisted as
// ISO-8601 text instead of real timestamps.
var legacyTimeColumns = []string{"entry_time", "exit_time"}

// PrepareLegacyLedger normalizes a trades table that previously stored
// timestamps as text so that AutoMigrate can safely create timestamp columns
// without failing to cast legacy values. The raw strings are preserved in
// *_raw columns and backfilled by a data migration after AutoMigrate.
func PrepareLegacyLedger(db *gorm.DB) error {
	for _, column := range legacyTimeColumns {
		columnType, exists, err := lookupColumnType(db, "trades", column)
		if err != nil {
			return fmt.Errorf("inspect trades.%s: %w", column, err)
		}
		if !exists || !isStringy(columnType) {
			continue
		}

		rawColumn := column + "_raw"
		if _, rawExists, err := lookupColumnType(db, "trades", rawColumn); err == nil && !rawExists {
			if err := db.Exec(fmt.Sprintf("ALTER TABLE trades ADD COLUMN %s varchar(64)", rawColumn)).Error; err != nil {
				return fmt.Errorf("add %s to trades: %w", rawColumn, err)
			}
		}

		if err := db.Exec(fmt.Sprintf("UPDATE trades SET %s = %s WHERE %s IS NOT NULL AND %s <> ''", rawColumn, column, column, column)).Error; err != nil {
			return fmt.Errorf("backfill %s on trades: %w", rawColumn, err)
		}

		if err := db.Exec(fmt.Sprintf("ALTER TABLE trades DROP COLUMN %s", column)).Error; err != nil {
			return fmt.Errorf("drop text %s on trades: %w", column, err)
		}
	}

	return nil
}

func lookupColumnType(db *gorm.DB, table, column string) (dataType string, exists bool, err error) {
	if !db.Migrator().HasTable(table) {
		return "", false, nil
	}

	columnTypes, err := db.Migrator().ColumnTypes(table)
	if err != nil {
		return "", false, err
	}

	for _, ct := range columnTypes {
		if strings.EqualFold(ct.Name(), column) {
			return ct.DatabaseTypeName(), true, nil
		}
	}

	return "", false, nil
}

func isStringy(dataType string) bool {
	dataType = strings.ToLower(dataType)
	return strings.Contains(dataType, "char") || dataType == "text"
}
