package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Shreshtthh/MetaScore/models"
	"github.com/Shreshtthh/MetaScore/scoring"
)

// Gate answers who may mutate the ledger.
type Gate interface {
	Owner() common.Address
	IsAuthorized(ctx context.Context, id common.Address) (bool, error)
}

// AuthorizationGate is the owner-managed allow-list of trackers.
type AuthorizationGate struct {
	db    *gorm.DB
	owner common.Address
	now   func() time.Time
	mu    *sync.Mutex
	log   *zap.Logger
}

var _ Gate = (*AuthorizationGate)(nil)

// Owner returns the administrative identity.
func (g *AuthorizationGate) Owner() common.Address { return g.owner }

// Authorize sets or clears the tracker flag for id. Repeating a call is a
// successful no-op.
func (g *AuthorizationGate) Authorize(ctx context.Context, caller, id common.Address, allowed bool) error {
	if caller != g.owner {
		return scoring.ErrOwnerOnly
	}
	if id == (common.Address{}) {
		return scoring.ErrInvalidIdentity
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	row := models.Tracker{Address: id.Hex(), Allowed: allowed, CreatedAt: now, UpdatedAt: now}
	err := g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "address"}},
		DoUpdates: clause.AssignmentColumns([]string{"allowed", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return err
	}
	g.log.Info("tracker authorization changed", zap.String("tracker", id.Hex()), zap.Bool("allowed", allowed))
	return nil
}

// IsAuthorized reports whether id is an allowed tracker. Unknown identities
// are not.
func (g *AuthorizationGate) IsAuthorized(ctx context.Context, id common.Address) (bool, error) {
	var row models.Tracker
	err := g.db.WithContext(ctx).Where("address = ?", id.Hex()).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return row.Allowed, nil
}

// ListAuthorized returns every currently allowed tracker.
func (g *AuthorizationGate) ListAuthorized(ctx context.Context) ([]models.Tracker, error) {
	var rows []models.Tracker
	err := g.db.WithContext(ctx).Where("allowed = ?", true).Order("address").Find(&rows).Error
	return rows, err
}
