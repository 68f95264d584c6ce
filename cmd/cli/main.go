package main

import (
	"context"
	"os"

	"github.com/dmitrijs2005/cloudservice/internal/buildinfo"
	"github.com/dmitrijs2005/cloudservice/internal/client/cli"
	"github.com/dmitrijs2005/cloudservice/internal/client/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()

	cli.NewApp(cfg).Run(ctx)

}
