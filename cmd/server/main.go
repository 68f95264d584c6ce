package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/cloudservice/internal/buildinfo"
	"github.com/dmitrijs2005/cloudservice/internal/logging"
	"github.com/dmitrijs2005/cloudservice/internal/server"
	"github.com/dmitrijs2005/cloudservice/internal/server/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()

	logger, err := logging.New(os.Stdout, logging.Options{
		Backend: cfg.LogBackend,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
	if err != nil {
		log.Fatalf("%v", err)
	}

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx)

}
