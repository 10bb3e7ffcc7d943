package main

import (
	"context"
	"fmt"

	"talentlink-inbox/config"
	"talentlink-inbox/internal/devserver"
	"talentlink-inbox/pkg/logger"
)

func main() {
	cfg := config.LoadConfig()

	log := logger.New(cfg.AppMode)
	logger.SetGlobalLogger(log)
	defer func() { _ = log.Logger.Sync() }()

	store := devserver.NewStore()
	seeded, err := devserver.Seed(store, &devserver.SeedConfig{Password: cfg.SeedPassword})
	if err != nil {
		log.Errorf("seed: %v", err)
		return
	}
	log.Infof("seeded users: %s, %s, %s (password %q)",
		seeded.Recruiter.Username, seeded.Seekers[0].Username, seeded.Seekers[1].Username, cfg.SeedPassword)

	server := devserver.NewServer(cfg, store, log)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := server.Run(ctx, fmt.Sprintf(":%s", cfg.ServerPort)); err != nil {
		log.Errorf("server stopped: %v", err)
	}
}
