// Package services implements the MetaScore core: the authorization gate,
// the category score ledger with its record registry, and the activity
// verification registry. Every mutation of the three goes through one shared
// lock and one database transaction, so calls are applied one at a time and
// either commit fully or leave no trace.
package services

import (
	"errors"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Shreshtthh/MetaScore/scoring"
)

// DefaultTrackerIdentity is the identity the activity tracker uses when
// calling the ledger if none is configured.
var DefaultTrackerIdentity = common.BytesToAddress(crypto.Keccak256([]byte("MetaScore/ActivityTracker"))[12:])

// Options configures a Core.
type Options struct {
	Owner           common.Address
	TrackerIdentity common.Address
	Tiers           scoring.TierTable
	StreakPolicy    scoring.StreakPolicy
	// OwnerBypass lets the owner call UpdateScore without being an
	// authorized tracker.
	OwnerBypass bool
	Clock       func() time.Time
	Logger      *zap.Logger
}

// Core owns the shared state of one deployment.
type Core struct {
	Gate    *AuthorizationGate
	Ledger  *Ledger
	Tracker *ActivityTracker
	Stats   *StatsService
}

// New wires the core components over db.
func New(db *gorm.DB, opts Options) (*Core, error) {
	if db == nil {
		return nil, errors.New("services: nil db")
	}
	if opts.Owner == (common.Address{}) {
		return nil, errors.New("services: owner identity is required")
	}
	if opts.TrackerIdentity == (common.Address{}) {
		opts.TrackerIdentity = DefaultTrackerIdentity
	}
	if opts.Tiers.Len() == 0 {
		opts.Tiers = scoring.DefaultTiers
	}
	if opts.StreakPolicy == "" {
		opts.StreakPolicy = scoring.StreakReset
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	mu := &sync.Mutex{}
	gate := &AuthorizationGate{db: db, owner: opts.Owner, now: opts.Clock, mu: mu, log: opts.Logger.Named("gate")}
	ledger := &Ledger{
		db:          db,
		gate:        gate,
		tiers:       opts.Tiers,
		streak:      opts.StreakPolicy,
		ownerBypass: opts.OwnerBypass,
		now:         opts.Clock,
		mu:          mu,
		log:         opts.Logger.Named("ledger"),
	}
	tracker := &ActivityTracker{
		db:       db,
		ledger:   ledger,
		identity: opts.TrackerIdentity,
		owner:    opts.Owner,
		now:      opts.Clock,
		mu:       mu,
		log:      opts.Logger.Named("tracker"),
	}
	return &Core{
		Gate:    gate,
		Ledger:  ledger,
		Tracker: tracker,
		Stats:   &StatsService{db: db, tiers: opts.Tiers},
	}, nil
}

// lockForUpdate adds SELECT ... FOR UPDATE where the dialect supports it.
// SQLite locks the whole database for a write transaction anyway.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
