package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"field-planner/internal/config"
	"field-planner/internal/crops"
	"field-planner/internal/server"
)

const shutdownTimeout = 5 * time.Second

var serveFlags struct {
	config     string
	listen     string
	cropSource string
	watch      bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the route planning HTTP service",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&serveFlags.config, "config", "c", "", "YAML configuration file")
	serveCmd.Flags().StringVar(&serveFlags.listen, "listen", "", "listen address (overrides config)")
	serveCmd.Flags().StringVar(&serveFlags.cropSource, "crops", "", "GeoJSON crop file or directory (overrides config)")
	serveCmd.Flags().BoolVar(&serveFlags.watch, "watch", false, "reload the crop source when it changes")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if serveFlags.config != "" {
		loaded, err := config.Load(serveFlags.config)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if serveFlags.listen != "" {
		cfg.Listen = serveFlags.listen
	}
	if serveFlags.cropSource != "" {
		cfg.Crops.Source = serveFlags.cropSource
	}
	if serveFlags.watch {
		cfg.Crops.Watch = true
	}

	srvCfg := server.Config{DefaultWidth: cfg.Width}

	if cfg.Crops.Source != "" {
		patches, err := crops.Load(cfg.Crops.Source)
		if err != nil {
			return err
		}
		m := crops.NewMap(patches)
		count, area := m.Stats()
		log.Printf("🌾 Crop map ready: %d patches covering %.0f square units", count, area)

		source := cfg.Crops.Source
		srvCfg.Oracle = m
		srvCfg.Crops = m
		srvCfg.Reload = func() ([]crops.Patch, error) {
			return crops.Load(source)
		}

		if cfg.Crops.Watch {
			watcher, err := crops.Watch(source, func() {
				patches, err := crops.Load(source)
				if err != nil {
					log.Printf("⚠️  Reload failed, keeping the previous crop map: %v", err)
					return
				}
				m.Replace(patches)
				count, _ := m.Stats()
				log.Printf("   ✅ Crop map reloaded: %d patches", count)
			})
			if err != nil {
				return err
			}
			defer watcher.Close()
		}
	} else {
		log.Printf("🎲 No crop source configured, using the random oracle (seed %d, density %.2f)",
			cfg.Crops.Random.Seed, cfg.Crops.Random.Density)
		srvCfg.Oracle = crops.NewRandom(cfg.Crops.Random.Seed, cfg.Crops.Random.Density)
	}

	srv := server.New(srvCfg)
	httpServer := &http.Server{Addr: cfg.Listen, Handler: srv.Handler()}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("🚜 Field planner listening on %s", cfg.Listen)
	log.Printf("   POST /route   - plan a route across a field")
	log.Printf("   GET  /health  - service health")
	log.Printf("   POST /reload  - reload the crop source")
	log.Printf("   GET  /metrics - Prometheus metrics")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Printf("👋 Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
