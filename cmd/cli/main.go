package main

import (
	"context"
	"log"
	"os"

	"github.com/teamloop/teamloop-cli/internal/buildinfo"
	"github.com/teamloop/teamloop-cli/internal/client/cli"
	"github.com/teamloop/teamloop-cli/internal/client/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := cli.NewApp(cfg)

	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)

}
