package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/mindcanvas/internal/buildinfo"
	"github.com/dmitrijs2005/mindcanvas/internal/config"
	"github.com/dmitrijs2005/mindcanvas/internal/server"
	"github.com/gin-gonic/gin"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	gin.SetMode(gin.ReleaseMode)

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := server.NewApp(ctx, cfg)

	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx)

}
