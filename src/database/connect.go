package database

import (
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// mainDialector picks the GORM driver for the configured ledger backend.
func mainDialector(config Config) gorm.Dialector {
	if config.DBDriver == DriverSqlite {
		return sqlite.Open(config.SqlitePath)
	}
	return postgres.Open(config.DatabaseURLMain)
}
