package main

import (
	"github.com/Shreshtthh/MetaScore/config"
	"github.com/Shreshtthh/MetaScore/models"
	"github.com/Shreshtthh/MetaScore/routes"
	"github.com/Shreshtthh/MetaScore/scoring"
	"github.com/Shreshtthh/MetaScore/services"
	"github.com/Shreshtthh/MetaScore/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer utils.Logger.Sync() //nolint:errcheck

	owner, err := scoring.ParseIdentity(cfg.OwnerAddress)
	if err != nil {
		utils.Sugar.Fatalf("invalid OwnerAddress %q: %v", cfg.OwnerAddress, err)
	}
	tracker := services.DefaultTrackerIdentity
	if cfg.TrackerAddress != "" {
		if tracker, err = scoring.ParseIdentity(cfg.TrackerAddress); err != nil {
			utils.Sugar.Fatalf("invalid TrackerAddress %q: %v", cfg.TrackerAddress, err)
		}
	}
	policy, err := scoring.ParseStreakPolicy(cfg.StreakPolicy)
	if err != nil {
		utils.Sugar.Fatalf("invalid StreakPolicy: %v", err)
	}

	db := config.InitDatabase(models.All()...)

	core, err := services.New(db, services.Options{
		Owner:           owner,
		TrackerIdentity: tracker,
		StreakPolicy:    policy,
		OwnerBypass:     cfg.OwnerCanUpdateScore,
		Logger:          utils.Logger,
	})
	if err != nil {
		utils.Sugar.Fatalf("init core: %v", err)
	}

	r := routes.SetupRouter(core)

	utils.Sugar.Infof("MetaScore owner=%s tracker=%s streak=%s", owner.Hex(), tracker.Hex(), policy)
	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
