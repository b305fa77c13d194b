package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"sort"
	"strconv"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/teegee567/nsw-test-stats/internal/model"
)

var (
	servePort  int
	serveStats string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the computed per-center stats as a JSON API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		statsPath := cfg.Data.OutputPath
		if serveStats != "" {
			statsPath = serveStats
		}

		r := chi.NewRouter()
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet},
		}))

		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Get("/centers", func(w http.ResponseWriter, req *http.Request) {
			centers, err := loadStats(statsPath)
			if err != nil {
				zap.L().Error("serve: load stats", zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "stats unavailable"})
				return
			}
			writeJSON(w, http.StatusOK, centers)
		})

		r.Get("/centers/{id}", func(w http.ResponseWriter, req *http.Request) {
			id, err := strconv.Atoi(chi.URLParam(req, "id"))
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid center id"})
				return
			}
			centers, err := loadStats(statsPath)
			if err != nil {
				zap.L().Error("serve: load stats", zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "stats unavailable"})
				return
			}
			for _, c := range centers {
				if c.ID == id {
					writeJSON(w, http.StatusOK, c)
					return
				}
			}
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "center not found"})
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			_ = srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server",
			zap.Int("port", port),
			zap.String("stats", statsPath),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// loadStats reads the analysis output and orders it the way the UI table
// does, best pass rate first.
func loadStats(path string) ([]*model.ServiceCenter, error) {
	centers, err := model.LoadStats(path)
	if err != nil {
		return nil, err
	}
	sort.Slice(centers, func(i, j int) bool {
		return centers[i].PassRate > centers[j].PassRate
	})
	return centers, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().StringVar(&serveStats, "stats", "", "stats file to serve (default: the analyze output path)")
	rootCmd.AddCommand(serveCmd)
}
