package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Shreshtthh/MetaScore/models"
	"github.com/Shreshtthh/MetaScore/scoring"
)

// Ledger keeps per-record category scores and the records themselves.
type Ledger struct {
	db          *gorm.DB
	gate        Gate
	tiers       scoring.TierTable
	streak      scoring.StreakPolicy
	ownerBypass bool
	now         func() time.Time
	mu          *sync.Mutex
	log         *zap.Logger
}

// Tiers returns the tier table in use.
func (l *Ledger) Tiers() scoring.TierTable { return l.tiers }

// StreakPolicy returns the configured gap rule.
func (l *Ledger) StreakPolicy() scoring.StreakPolicy { return l.streak }

// Mint creates the record for to. Ids are sequential from 1.
func (l *Ledger) Mint(ctx context.Context, to common.Address) (*models.Record, error) {
	if to == (common.Address{}) {
		return nil, scoring.ErrInvalidIdentity
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var rec models.Record
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.Record{}).Where("owner = ?", to.Hex()).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return scoring.ErrAlreadyMinted
		}

		var maxID uint64
		if err := tx.Model(&models.Record{}).Select("COALESCE(MAX(id), 0)").Scan(&maxID).Error; err != nil {
			return err
		}

		rec = models.Record{
			ID:             maxID + 1,
			Owner:          to.Hex(),
			StreakDays:     1,
			LastActivityAt: l.now().Unix(),
			CurrentTier:    0,
		}
		return tx.Create(&rec).Error
	})
	if err != nil {
		return nil, err
	}
	l.log.Info("record minted", zap.Uint64("record_id", rec.ID), zap.String("owner", rec.Owner))
	return &rec, nil
}

// RecordOf returns the record id owned by id, or 0 when it has none.
func (l *Ledger) RecordOf(ctx context.Context, id common.Address) (uint64, error) {
	var rec models.Record
	err := l.db.WithContext(ctx).Select("id").Where("owner = ?", id.Hex()).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return rec.ID, nil
}

// Record loads a record by id.
func (l *Ledger) Record(ctx context.Context, recordID uint64) (*models.Record, error) {
	return findRecord(l.db.WithContext(ctx), recordID)
}

// Count returns how many records exist.
func (l *Ledger) Count(ctx context.Context) (int64, error) {
	var n int64
	err := l.db.WithContext(ctx).Model(&models.Record{}).Count(&n).Error
	return n, err
}

// CategoryScore returns one bucket of an existing record.
func (l *Ledger) CategoryScore(ctx context.Context, recordID uint64, category string) (uint64, error) {
	cat, err := scoring.ParseCategory(category)
	if err != nil {
		return 0, err
	}
	scores, err := l.CategoryScores(ctx, recordID)
	if err != nil {
		return 0, err
	}
	return scores.Get(cat), nil
}

// CategoryScores returns all four buckets of an existing record.
func (l *Ledger) CategoryScores(ctx context.Context, recordID uint64) (scoring.Scores, error) {
	db := l.db.WithContext(ctx)
	if _, err := findRecord(db, recordID); err != nil {
		return scoring.Scores{}, err
	}
	return loadScores(db, recordID)
}

// UpdateScore adds delta to one category of a record and recomputes the
// derived fields. The caller must be an authorized tracker, or the owner
// when OwnerBypass is set.
func (l *Ledger) UpdateScore(ctx context.Context, caller common.Address, recordID uint64, category string, delta uint64) (*models.Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkCaller(ctx, caller); err != nil {
		return nil, err
	}
	cat, err := scoring.ParseCategory(category)
	if err != nil {
		return nil, err
	}

	var rec *models.Record
	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := l.apply(tx, recordID, cat, delta)
		rec = r
		return err
	})
	if err != nil {
		return nil, err
	}
	l.log.Debug("score updated",
		zap.String("caller", caller.Hex()),
		zap.Uint64("record_id", recordID),
		zap.String("category", string(cat)),
		zap.Uint64("delta", delta),
		zap.Uint64("total", rec.TotalScore),
		zap.Int("tier", rec.CurrentTier))
	return rec, nil
}

// Snapshot reads the state a metadata document is built from.
func (l *Ledger) Snapshot(ctx context.Context, recordID uint64) (scoring.Snapshot, error) {
	db := l.db.WithContext(ctx)
	rec, err := findRecord(db, recordID)
	if err != nil {
		return scoring.Snapshot{}, err
	}
	scores, err := loadScores(db, recordID)
	if err != nil {
		return scoring.Snapshot{}, err
	}
	return scoring.Snapshot{
		RecordID:   rec.ID,
		Owner:      rec.Owner,
		TotalScore: rec.TotalScore,
		StreakDays: rec.StreakDays,
		Tier:       rec.CurrentTier,
		Scores:     scores,
	}, nil
}

// Metadata builds the record's document from current state.
func (l *Ledger) Metadata(ctx context.Context, recordID uint64) (scoring.Metadata, error) {
	snap, err := l.Snapshot(ctx, recordID)
	if err != nil {
		return scoring.Metadata{}, err
	}
	return scoring.BuildMetadata(l.tiers, snap), nil
}

// TokenURI returns the metadata as a data URI.
func (l *Ledger) TokenURI(ctx context.Context, recordID uint64) (string, error) {
	snap, err := l.Snapshot(ctx, recordID)
	if err != nil {
		return "", err
	}
	return scoring.TokenURI(l.tiers, snap)
}

func (l *Ledger) checkCaller(ctx context.Context, caller common.Address) error {
	if l.ownerBypass && caller == l.gate.Owner() {
		return nil
	}
	ok, err := l.gate.IsAuthorized(ctx, caller)
	if err != nil {
		return err
	}
	if !ok {
		return scoring.ErrNotAuthorized
	}
	return nil
}

// apply performs the bucket update inside tx. The caller holds l.mu and has
// already passed the gate.
func (l *Ledger) apply(tx *gorm.DB, recordID uint64, cat scoring.Category, delta uint64) (*models.Record, error) {
	rec, err := findRecord(lockForUpdate(tx), recordID)
	if err != nil {
		return nil, err
	}

	if delta > scoring.MaxScore {
		return nil, scoring.ErrScoreOverflow
	}
	now := l.now()

	var bucket models.CategoryScore
	err = tx.Where("record_id = ? AND category = ?", recordID, string(cat)).First(&bucket).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		row := models.CategoryScore{RecordID: recordID, Category: string(cat), Score: delta, UpdatedAt: now}
		if err := tx.Create(&row).Error; err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		next := bucket.Score + delta
		if next < bucket.Score || next > scoring.MaxScore {
			return nil, scoring.ErrScoreOverflow
		}
		if err := tx.Model(&models.CategoryScore{}).
			Where("record_id = ? AND category = ?", recordID, string(cat)).
			Updates(map[string]interface{}{"score": next, "updated_at": now}).Error; err != nil {
			return nil, err
		}
	}

	scores, err := loadScores(tx, recordID)
	if err != nil {
		return nil, err
	}
	total, ok := scores.Total()
	if !ok {
		return nil, scoring.ErrScoreOverflow
	}

	ts := now.Unix()
	if ts < rec.LastActivityAt {
		ts = rec.LastActivityAt
	}
	rec.StreakDays = l.streak.NextStreak(rec.StreakDays, rec.LastActivityAt, ts)
	rec.LastActivityAt = ts
	rec.TotalScore = total
	rec.CurrentTier = l.tiers.Resolve(total)

	if err := tx.Save(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}

func findRecord(db *gorm.DB, recordID uint64) (*models.Record, error) {
	if recordID == 0 {
		return nil, scoring.ErrRecordNotFound
	}
	var rec models.Record
	err := db.Where("id = ?", recordID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, scoring.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func loadScores(db *gorm.DB, recordID uint64) (scoring.Scores, error) {
	var rows []models.CategoryScore
	if err := db.Where("record_id = ?", recordID).Find(&rows).Error; err != nil {
		return scoring.Scores{}, err
	}
	var s scoring.Scores
	for _, r := range rows {
		if i := scoring.Category(r.Category).Index(); i >= 0 {
			s[i] = r.Score
		}
	}
	return s, nil
}
