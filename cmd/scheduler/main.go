package main

import (
	"go-lms/internal/app"
	"go-lms/internal/config"
	"go-lms/internal/shared/apperror"
	"go-lms/internal/shared/logger"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)

	apperror.Init()

	if err := app.RunScheduler(cfg, log); err != nil {
		log.Fatal("run scheduler failed", zap.Error(err))
	}
}
