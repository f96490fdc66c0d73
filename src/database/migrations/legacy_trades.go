package migrations

import (
	"fmt"
	"time"

	"papertrader/src/model"

	"gorm.io/gorm"
)

// legacyTimeFormats lists the text layouts older ledgers used for trade
// timestamps, tried in order. Layouts without a zone are taken as UTC.
var legacyTimeFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999-07:00",
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
}

// migrateLegacyTradeTimes backfills the timestamp columns created by
// AutoMigrate from the *_raw text columns preserved by PrepareLegacyLedger.
// It is a no-op on a fresh schema where the raw columns never existed.
func migrateLegacyTradeTimes(db *gorm.DB) error {
	if _, exists, err := lookupColumnType(db, "trades", "entry_time_raw"); err != nil || !exists {
		return err
	}

	type legacyTradeRow struct {
		ID           uint
		EntryTimeRaw string
		ExitTimeRaw  string
	}

	var rows []legacyTradeRow
	if err := db.Table("trades").
		Select("id", "entry_time_raw", "exit_time_raw").
		Where("entry_time_raw IS NOT NULL AND entry_time_raw <> ''").
		Find(&rows).Error; err != nil {
		return fmt.Errorf("collect legacy trade times: %w", err)
	}

	for _, row := range rows {
		entry, err := parseLegacyTime(row.EntryTimeRaw)
		if err != nil {
			return fmt.Errorf("parse entry_time_raw for trade id %d: %w", row.ID, err)
		}

		updates := map[string]interface{}{"entry_time": entry}
		if row.ExitTimeRaw != "" {
			exit, err := parseLegacyTime(row.ExitTimeRaw)
			if err != nil {
				return fmt.Errorf("parse exit_time_raw for trade id %d: %w", row.ID, err)
			}
			updates["exit_time"] = exit
		}

		if err := db.Table("trades").Where("id = ?", row.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("backfill times for trade id %d: %w", row.ID, err)
		}
	}

	return nil
}

func parseLegacyTime(raw string) (time.Time, error) {
	for _, layout := range legacyTimeFormats {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", raw)
}

// normalizeTradeSides lowercases side and status values written by earlier
// clients that used BUY/SELL and OPEN/CLOSED. Lookups and aggregates compare
// exact lowercase strings, so mixed-case rows would silently drop out.
func normalizeTradeSides(db *gorm.DB) error {
	if err := db.Model(&model.Trade{}).
		Where("side <> LOWER(side)").
		Update("side", gorm.Expr("LOWER(side)")).Error; err != nil {
		return fmt.Errorf("normalize trade sides: %w", err)
	}

	if err := db.Model(&model.Trade{}).
		Where("status <> LOWER(status)").
		Update("status", gorm.Expr("LOWER(status)")).Error; err != nil {
		return fmt.Errorf("normalize trade statuses: %w", err)
	}

	return nil
}
