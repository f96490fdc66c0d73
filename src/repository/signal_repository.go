package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"papertrader/src/database"
	"papertrader/src/externalmodel"
)

// SignalSnapshotRepository reads indicator snapshots written by the signal
// pipeline. Snapshots live in the read-only database and are never written
// from this service.
type SignalSnapshotRepository struct {
	db *gorm.DB
}

func NewSignalSnapshotRepository() *SignalSnapshotRepository {
	logger.WithField("component", "signal_snapshot_repository").Info("initializing signal snapshot repository")
	return &SignalSnapshotRepository{db: database.ReadOnlyDB}
}

// WithDB allows injecting a different DB connection (useful for tests).
func (r *SignalSnapshotRepository) WithDB(db *gorm.DB) *SignalSnapshotRepository {
	return &SignalSnapshotRepository{db: db}
}

// LatestForProduct returns the most recent snapshot for a product, or nil
// when the pipeline has not produced one yet.
func (r *SignalSnapshotRepository) LatestForProduct(ctx context.Context, productID string) (*externalmodel.SignalSnapshot, error) {
	logger.WithFields(map[string]interface{}{
		"repo":       "SignalSnapshotRepository",
		"op":         "LatestForProduct",
		"product_id": productID,
	}).Debug("querying latest signal snapshot")

	var snapshot externalmodel.SignalSnapshot
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("id DESC").
		First(&snapshot).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.WithFields(map[string]interface{}{
				"repo":       "SignalSnapshotRepository",
				"op":         "LatestForProduct",
				"product_id": productID,
			}).Info("no signal snapshot found")
			return nil, nil
		}
		logger.WithFields(map[string]interface{}{
			"repo":       "SignalSnapshotRepository",
			"op":         "LatestForProduct",
			"product_id": productID,
		}).WithError(err).Error("failed to query latest signal snapshot")
		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"repo":       "SignalSnapshotRepository",
		"op":         "LatestForProduct",
		"product_id": productID,
		"id":         snapshot.ID,
	}).Info("signal snapshot found")

	return &snapshot, nil
}

// FindLatest returns the newest snapshots across all products, used to
// establish a polling baseline on startup.
func (r *SignalSnapshotRepository) FindLatest(ctx context.Context, limit int) ([]externalmodel.SignalSnapshot, error) {
	if limit <= 0 {
		limit = 10
	}

	logger.WithFields(map[string]interface{}{
		"repo":  "SignalSnapshotRepository",
		"op":    "FindLatest",
		"limit": limit,
	}).Debug("querying latest signal snapshots")

	var snapshots []externalmodel.SignalSnapshot
	err := r.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&snapshots).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "SignalSnapshotRepository",
			"op":   "FindLatest",
		}).WithError(err).Error("failed to query latest signal snapshots")
		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"repo":        "SignalSnapshotRepository",
		"op":          "FindLatest",
		"rows_return": len(snapshots),
	}).Info("latest signal snapshots queried")

	return snapshots, nil
}

// FindAfterID returns snapshots with an ID greater than lastID in ascending
// order, so the caller can process them oldest first.
func (r *SignalSnapshotRepository) FindAfterID(ctx context.Context, lastID uint, limit int) ([]externalmodel.SignalSnapshot, error) {
	if limit <= 0 {
		limit = 100
	}

	logger.WithFields(map[string]interface{}{
		"repo":    "SignalSnapshotRepository",
		"op":      "FindAfterID",
		"last_id": lastID,
		"limit":   limit,
	}).Debug("querying signal snapshots after ID")

	var snapshots []externalmodel.SignalSnapshot
	err := r.db.WithContext(ctx).
		Where("id > ?", lastID).
		Order("id ASC").
		Limit(limit).
		Find(&snapshots).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":    "SignalSnapshotRepository",
			"op":      "FindAfterID",
			"last_id": lastID,
		}).WithError(err).Error("failed to query signal snapshots after ID")
		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"repo":        "SignalSnapshotRepository",
		"op":          "FindAfterID",
		"last_id":     lastID,
		"rows_return": len(snapshots),
	}).Info("signal snapshots after ID queried")

	return snapshots, nil
}

// CountNewAfterID is a cheap existence probe used by the polling loop before
// it commits to fetching rows.
func (r *SignalSnapshotRepository) CountNewAfterID(ctx context.Context, lastID uint) (int64, error) {
	logger.WithFields(map[string]interface{}{
		"repo":    "SignalSnapshotRepository",
		"op":      "CountNewAfterID",
		"last_id": lastID,
	}).Debug("counting new signal snapshots")

	var count int64
	err := r.db.WithContext(ctx).
		Model(&externalmodel.SignalSnapshot{}).
		Where("id > ?", lastID).
		Count(&count).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":    "SignalSnapshotRepository",
			"op":      "CountNewAfterID",
			"last_id": lastID,
		}).WithError(err).Error("failed to count new signal snapshots")
		return 0, err
	}

	return count, nil
}
