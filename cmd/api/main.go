package main

import (
	"fmt"
	"net/http"
	"time"

	"complaint-insights-go/internal/config"
	"complaint-insights-go/internal/dataset"
	"complaint-insights-go/internal/geo"
	"complaint-insights-go/internal/logger"
	"complaint-insights-go/internal/pipeline"
	"complaint-insights-go/internal/server"
	"complaint-insights-go/internal/wordfreq"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load() // loads .env

	log := logger.New()
	log.WithField("service", "complaint-insights-go").Info("starting service")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	log.WithField("dataset_path", cfg.Paths.Dataset).Info("loading dataset")
	table, summary, err := dataset.LoadAndSummarize(cfg.Paths.Dataset)
	if err != nil {
		log.WithError(err).Fatal("failed to load dataset")
	}
	log.WithField("total_complaints", summary.TotalComplaints).Info("dataset loaded")

	deps := pipeline.Deps{}
	deps.Stopwords, deps.StopwordsErr = wordfreq.LoadStopwords(cfg.Paths.Stopwords)
	if deps.StopwordsErr != nil {
		log.WithError(deps.StopwordsErr).Warn("word cloud will not filter stop words")
	}

	srv, err := server.New(cfg, table, deps, geo.NewClient(cfg.GeoJSON, cfg.Server.HTTPTimeout))
	if err != nil {
		log.WithError(err).Fatal("failed to build server")
	}

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      srv.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.WithField("addr", addr).Info("listening")
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("server terminated")
	}
}
