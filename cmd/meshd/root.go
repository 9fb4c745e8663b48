package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eckfel/Implicit-Surface-Visualizer/pkg/cache"
	"github.com/eckfel/Implicit-Surface-Visualizer/pkg/config"
	"github.com/eckfel/Implicit-Surface-Visualizer/pkg/kernel/sdfx"
	"github.com/eckfel/Implicit-Surface-Visualizer/pkg/logging"
	"github.com/eckfel/Implicit-Surface-Visualizer/pkg/meshserver"
)

var rootCmd = &cobra.Command{
	Use:   "meshd",
	Short: "meshd meshes implicit surfaces",
	Long: `meshd turns formulas f(x, y, z) into triangle meshes of the surface f = 0
and serves them to the isoviz viewer over HTTP.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "path to a YAML config file")
}

// setup loads the configuration and builds the meshing server from it.
// The returned cleanup closes the cache and flushes the logger.
func setup(cmd *cobra.Command) (*config.Config, *meshserver.Server, *zap.Logger, func(), error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	store, err := openCache(cmd, cfg.Cache, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, nil, nil, err
	}

	k := sdfx.New(sdfx.Options{
		MarchingCubesCells: cfg.Mesher.MarchingCubesCells,
		DualContourCells:   cfg.Mesher.DualContourCells,
		MaxTriangles:       cfg.Mesher.MaxTriangles,
	})
	s := meshserver.New(k,
		meshserver.WithCache(store),
		meshserver.WithLogger(logger),
		meshserver.WithMeshTimeout(cfg.Mesher.Timeout),
	)
	cleanup := func() {
		_ = store.Close()
		_ = logger.Sync()
	}
	return cfg, s, logger, cleanup, nil
}

func openCache(cmd *cobra.Command, cfg config.CacheConfig, logger *zap.Logger) (cache.Store, error) {
	if cfg.RedisAddr == "" {
		return cache.Nop{}, nil
	}
	r := cache.NewRedis(cfg.RedisAddr, cfg.Password, cfg.DB,
		cache.WithTTL(cfg.TTL),
		cache.WithPrefix(cfg.Prefix),
	)
	if err := r.Ping(cmd.Context()); err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("cache: redis %s: %w", cfg.RedisAddr, err)
	}
	logger.Info("mesh cache enabled", zap.String("redis", cfg.RedisAddr), zap.Duration("ttl", cfg.TTL))
	return r, nil
}
