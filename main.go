package main

import (
	"embed"
	"fmt"
	"os"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"go.uber.org/zap"

	"github.com/eckfel/Implicit-Surface-Visualizer/pkg/config"
	"github.com/eckfel/Implicit-Surface-Visualizer/pkg/logging"
	"github.com/eckfel/Implicit-Surface-Visualizer/pkg/scene"
)

//go:embed all:frontend/dist
var frontend embed.FS

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

func main() {
	cfg, err := config.Load(os.Getenv(config.EnvPrefix + "_CONFIG"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := logging.MustNew(cfg.Log)
	defer func() { _ = logger.Sync() }()

	app := NewApp(cfg, logger)

	bg := scene.BackgroundColor
	err = wails.Run(&options.App{
		Title:            "Implicit Surface Visualizer",
		Width:            1280,
		Height:           800,
		AssetServer:      &assetserver.Options{Assets: frontend},
		BackgroundColour: options.NewRGB(bg.R, bg.G, bg.B),
		OnStartup:        app.startup,
		OnShutdown:       app.shutdown,
		Bind:             []interface{}{app},
	})
	if err != nil {
		logger.Fatal("wails", zap.Error(err))
	}
}
