package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Shreshtthh/MetaScore/models"
	"github.com/Shreshtthh/MetaScore/scoring"
	"github.com/Shreshtthh/MetaScore/utils"
)

const (
	defaultActivityLimit = 20
	maxActivityLimit     = 100
	maxActionLength      = 255
)

// ActivityTracker is the verification registry for activity sources. It
// turns reports from verified sources into ledger updates, calling the
// ledger as its own tracker identity.
type ActivityTracker struct {
	db       *gorm.DB
	ledger   *Ledger
	identity common.Address
	owner    common.Address
	now      func() time.Time
	mu       *sync.Mutex
	log      *zap.Logger
}

// Identity is the tracker's caller identity toward the ledger. It has to be
// authorized in the gate before Track can succeed.
func (t *ActivityTracker) Identity() common.Address { return t.identity }

// Verify registers or re-registers source with a category and point value.
func (t *ActivityTracker) Verify(ctx context.Context, caller, source common.Address, category string, points uint64) (*models.VerifiedSource, error) {
	if err := t.VerifyBatch(ctx, caller, []common.Address{source}, []string{category}, []uint64{points}); err != nil {
		return nil, err
	}
	return t.Source(ctx, source)
}

// VerifyBatch registers many sources at once. Every element is validated
// before anything is written, and all rows land in one transaction.
func (t *ActivityTracker) VerifyBatch(ctx context.Context, caller common.Address, sources []common.Address, categories []string, points []uint64) error {
	if caller != t.owner {
		return scoring.ErrOwnerOnly
	}
	if len(sources) != len(categories) || len(sources) != len(points) {
		return scoring.ErrLengthMismatch
	}

	rows := make([]models.VerifiedSource, 0, len(sources))
	now := t.now()
	for i, src := range sources {
		if src == (common.Address{}) {
			return scoring.ErrInvalidIdentity
		}
		if points[i] > scoring.MaxScore {
			return scoring.ErrScoreOverflow
		}
		cat, err := scoring.ParseCategory(categories[i])
		if err != nil {
			return err
		}
		rows = append(rows, models.VerifiedSource{
			Address:   src.Hex(),
			Category:  string(cat),
			Points:    points[i],
			Verified:  true,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	if len(rows) == 0 {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range rows {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "address"}},
				DoUpdates: clause.AssignmentColumns([]string{"category", "points", "verified", "updated_at"}),
			}).Create(&rows[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, r := range rows {
		t.log.Info("source verified", zap.String("source", r.Address), zap.String("category", r.Category), zap.Uint64("points", r.Points))
	}
	return nil
}

// Revoke stops accepting reports from source.
func (t *ActivityTracker) Revoke(ctx context.Context, caller, source common.Address) error {
	if caller != t.owner {
		return scoring.ErrOwnerOnly
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	res := t.db.WithContext(ctx).Model(&models.VerifiedSource{}).
		Where("address = ? AND verified = ?", source.Hex(), true).
		Updates(map[string]interface{}{"verified": false, "key_hash": "", "updated_at": t.now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return scoring.ErrSourceNotVerified
	}
	t.log.Info("source revoked", zap.String("source", source.Hex()))
	return nil
}

// IsVerified reports whether source may currently report activity.
func (t *ActivityTracker) IsVerified(ctx context.Context, source common.Address) (bool, error) {
	_, err := t.Source(ctx, source)
	if errors.Is(err, scoring.ErrSourceNotVerified) {
		return false, nil
	}
	return err == nil, err
}

// Source returns a verified source's registration.
func (t *ActivityTracker) Source(ctx context.Context, source common.Address) (*models.VerifiedSource, error) {
	return activeSource(t.db.WithContext(ctx), source)
}

// ListSources returns all verified sources.
func (t *ActivityTracker) ListSources(ctx context.Context) ([]models.VerifiedSource, error) {
	var rows []models.VerifiedSource
	err := t.db.WithContext(ctx).Where("verified = ?", true).Order("address").Find(&rows).Error
	return rows, err
}

// IssueSourceKey generates a new API key for a verified source, replacing
// any previous one. Only the hash is stored; the key is returned once.
func (t *ActivityTracker) IssueSourceKey(ctx context.Context, caller, source common.Address) (string, error) {
	if caller != t.owner {
		return "", scoring.ErrOwnerOnly
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := activeSource(t.db.WithContext(ctx), source); err != nil {
		return "", err
	}
	key := "msk_" + strings.ReplaceAll(uuid.NewString(), "-", "") + strings.ReplaceAll(uuid.NewString(), "-", "")
	hash, err := utils.HashSecret(key)
	if err != nil {
		return "", err
	}
	if err := t.db.WithContext(ctx).Model(&models.VerifiedSource{}).
		Where("address = ?", source.Hex()).
		Updates(map[string]interface{}{"key_hash": hash, "updated_at": t.now()}).Error; err != nil {
		return "", err
	}
	t.log.Info("source key issued", zap.String("source", source.Hex()))
	return key, nil
}

// AuthenticateSource checks key against the stored hash of a verified source.
func (t *ActivityTracker) AuthenticateSource(ctx context.Context, source common.Address, key string) bool {
	src, err := activeSource(t.db.WithContext(ctx), source)
	if err != nil || src.KeyHash == "" || key == "" {
		return false
	}
	return utils.CheckSecret(src.KeyHash, key)
}

// Track credits user with the source's registered category and points.
func (t *ActivityTracker) Track(ctx context.Context, source, user common.Address, action string) (*models.Activity, *models.Record, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	db := t.db.WithContext(ctx)
	src, err := activeSource(db, source)
	if err != nil {
		return nil, nil, err
	}
	if err := t.ledger.checkCaller(ctx, t.identity); err != nil {
		return nil, nil, err
	}
	cat, err := scoring.ParseCategory(src.Category)
	if err != nil {
		return nil, nil, err
	}
	if r := []rune(action); len(r) > maxActionLength {
		action = string(r[:maxActionLength])
	}

	var (
		act models.Activity
		rec *models.Record
	)
	err = db.Transaction(func(tx *gorm.DB) error {
		var owned models.Record
		if err := tx.Select("id").Where("owner = ?", user.Hex()).First(&owned).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return scoring.ErrRecordNotFound
			}
			return err
		}
		r, err := t.ledger.apply(tx, owned.ID, cat, src.Points)
		if err != nil {
			return err
		}
		rec = r
		act = models.Activity{
			ID:        uuid.NewString(),
			RecordID:  r.ID,
			User:      user.Hex(),
			Source:    src.Address,
			Category:  string(cat),
			Points:    src.Points,
			Action:    action,
			Timestamp: r.LastActivityAt,
		}
		return tx.Create(&act).Error
	})
	if err != nil {
		return nil, nil, err
	}
	t.log.Info("activity tracked",
		zap.String("source", src.Address),
		zap.String("user", act.User),
		zap.String("category", act.Category),
		zap.Uint64("points", act.Points),
		zap.Uint64("total", rec.TotalScore))
	return &act, rec, nil
}

// Activities returns the newest activities of a record.
func (t *ActivityTracker) Activities(ctx context.Context, recordID uint64, limit int) ([]models.Activity, error) {
	db := t.db.WithContext(ctx)
	if _, err := findRecord(db, recordID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
	}
	var rows []models.Activity
	err := db.Where("record_id = ?", recordID).Order("timestamp DESC").Order("created_at DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

func activeSource(db *gorm.DB, source common.Address) (*models.VerifiedSource, error) {
	var src models.VerifiedSource
	err := db.Where("address = ? AND verified = ?", source.Hex(), true).First(&src).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, scoring.ErrSourceNotVerified
	}
	if err != nil {
		return nil, err
	}
	return &src, nil
}
