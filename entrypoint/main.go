package main

import (
	"text2phenotype.com/qde/api"
	"text2phenotype.com/qde/logger"
	"text2phenotype.com/qde/metrics"
	"text2phenotype.com/qde/pipeline"
	"text2phenotype.com/qde/qualification"
	"text2phenotype.com/qde/reviewer"
	"text2phenotype.com/qde/types"
	"text2phenotype.com/qde/vocabulary"
	"text2phenotype.com/qde/worker"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

type Config struct {
	ParamsPath     string `envconfig:"QDE_PARAMS_PATH" default:""`
	VocabularyPath string `envconfig:"QDE_VOCABULARY_PATH" default:""`
	RestAPIActive  bool   `envconfig:"QDE_REST_API_ACTIVE" default:"false"`
	RestAPIPort    string `envconfig:"QDE_REST_API_PORT" default:"10000"`
	WorkerActive   bool   `envconfig:"QDE_WORKER_ACTIVE" default:"true"`
}

const engineStartMaxRetries = 5

func main() {
	logger.SetupLogging()
	qdeLogger := logger.NewLogger("Main")
	fatalErrLogger := qdeLogger.Fatal().Caller()
	analyzeFile := flag.String("analyze", "", "analyze a note file ('-' for stdin), print the JSON result and exit")
	asOfFlag := flag.String("as-of", "", "reference date for recency decisions, YYYY-MM-DD (default today)")
	review := flag.Bool("review", false, "consult the configured external reviewer in -analyze mode")
	flag.Parse()

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		fatalErrLogger.Err(err).Msg("Failed to read environment")
		os.Exit(1)
	}
	var options qualification.Options
	if err := envconfig.Process("", &options); err != nil {
		fatalErrLogger.Err(err).Msg("Failed to read service options")
		os.Exit(1)
	}

	store := vocabulary.NewStore(nil)
	engine := startEngine(config, store, qdeLogger)
	service := qualification.NewService(engine, newReviewer(qdeLogger), options)

	if *analyzeFile != "" {
		if err := analyzeOnce(service, *analyzeFile, *asOfFlag, !*review); err != nil {
			qdeLogger.Err(err).Msg("Analysis failed")
			os.Exit(1)
		}
		return
	}

	go reloadOnHangup(store, config.VocabularyPath, qdeLogger)

	if config.RestAPIActive {
		go func() {
			qdeLogger.Info().Msg("Starting API service")
			apiRequest := &api.Request{Service: service}
			host := fmt.Sprintf(":%s", config.RestAPIPort)
			qdeLogger.Info().Msgf("REST API on %s", host)
			err := http.ListenAndServe(host, apiRequest.Routes())
			fatalErrLogger.Err(err).Msg("REST API stopped with error")
		}()
	}

	if !config.WorkerActive {
		qdeLogger.Info().Msg("Worker disabled, serving API only")
		select {}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	qdeLogger.Info().Msg("Start QDE Worker")
	for ctx.Err() == nil {
		rmqWorker, err := worker.New(service)
		if err != nil {
			qdeLogger.Fatal().Err(err).Msg("Could not initialize RMQ worker")
			os.Exit(1)
		}
		if err = rmqWorker.StartWorker(ctx); err != nil {
			qdeLogger.Err(err).Msg("Worker returned with error. Launching new in 5 seconds")
			time.Sleep(5 * time.Second)
		}
	}
	qdeLogger.Info().Msg("Worker stopped")
}

// startEngine retries because the params and vocabulary files may be mounted
// after the container starts.
func startEngine(config Config, store *vocabulary.Store, qdeLogger zerolog.Logger) *pipeline.Engine {
	for retry := 0; retry < engineStartMaxRetries; retry++ {
		params, err := types.LoadParams(config.ParamsPath)
		if err != nil {
			qdeLogger.Err(err).Msg("Failed to load engine params. Retrying in 5 sec")
			time.Sleep(5 * time.Second)
			continue
		}
		if config.VocabularyPath != "" {
			if err = store.Reload(config.VocabularyPath); err != nil {
				qdeLogger.Err(err).Msg("Failed to load vocabulary. Retrying in 5 sec")
				time.Sleep(5 * time.Second)
				continue
			}
		}
		engine, err := pipeline.NewEngine(params, store)
		if err != nil {
			qdeLogger.Err(err).Msg("Failed to start qualification engine. Retrying in 5 sec")
			time.Sleep(5 * time.Second)
			continue
		}
		qdeLogger.Info().Str("vocabulary_version", store.Load().Version()).Msg("Engine loaded")
		return engine
	}
	qdeLogger.Fatal().Caller().Msgf("Could not start engine after %d retries, exiting", engineStartMaxRetries)
	os.Exit(1)
	return nil
}

func newReviewer(qdeLogger zerolog.Logger) reviewer.Reviewer {
	cfg, err := reviewer.ConfigFromEnv()
	if err != nil {
		qdeLogger.Err(err).Msg("Invalid reviewer configuration, running rules only")
		return nil
	}
	rev, err := reviewer.New(cfg)
	if err != nil {
		qdeLogger.Err(err).Msg("Could not create reviewer, running rules only")
		return nil
	}
	if rev == nil {
		qdeLogger.Info().Msg("No external reviewer configured")
		return nil
	}
	qdeLogger.Info().Str("reviewer", rev.Name()).Msg("External reviewer enabled")
	return rev
}

func reloadOnHangup(store *vocabulary.Store, path string, qdeLogger zerolog.Logger) {
	hangups := make(chan os.Signal, 1)
	signal.Notify(hangups, syscall.SIGHUP)
	for range hangups {
		if path == "" {
			qdeLogger.Warn().Msg("SIGHUP received but QDE_VOCABULARY_PATH is not set")
			continue
		}
		metrics.RecordVocabularyReload(store.Reload(path))
	}
}

func analyzeOnce(service *qualification.Service, path string, asOfText string, skipReview bool) error {
	var text []byte
	var err error
	if path == "-" {
		text, err = io.ReadAll(os.Stdin)
	} else {
		text, err = os.ReadFile(path)
	}
	if err != nil {
		return err
	}

	request := qualification.Request{Text: string(text), Tid: "cli", SkipReview: skipReview}
	if asOfText != "" {
		asOf, err := time.Parse(types.DateLayout, asOfText)
		if err != nil {
			return fmt.Errorf("invalid -as-of %q: %w", asOfText, err)
		}
		request.AsOf = &asOf
	}

	response := service.Analyze(context.Background(), request)
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(response)
}
