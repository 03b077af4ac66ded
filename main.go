package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/gin-gonic/gin"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/kanade/embedtags/config"
	"github.com/kanade/embedtags/metadata"
	"github.com/kanade/embedtags/onnx"
	"github.com/kanade/embedtags/report"
	"github.com/kanade/embedtags/runner"
	"github.com/kanade/embedtags/server"
	"github.com/kanade/embedtags/tagger"
)

func main() {
	mode := flag.String("mode", "standalone", "standalone, server, client or report")
	configPath := flag.String("config", "", "path to a TOML config file")
	thresh := flag.Float64("thresh", -1, "tag threshold override")
	force := flag.Bool("force", false, "re-tag images that already have tags")
	organize := flag.Bool("organize", false, "sort images into rating folders")
	genReport := flag.Bool("report", false, "write HTML reports after the run")
	host := flag.String("host", "", "host override")
	port := flag.String("port", "", "port override")
	workers := flag.Int("workers", 0, "worker count override")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	slog.Info("Starting embedtags")

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
		return
	}
	if *thresh >= 0 {
		cfg.TagThreshold = float32(*thresh)
	}
	if *host != "" {
		cfg.Host = *host
	}
	if *port != "" {
		cfg.Port = *port
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", slog.String("error", err.Error()))
		return
	}

	opts := runner.Options{Force: *force, Organize: *organize, Workers: cfg.Workers}

	switch *mode {
	case "standalone":
		runStandalone(ctx, cfg, opts, flag.Args(), *genReport)
	case "server":
		runServer(ctx, cancel, cfg)
	case "client":
		runClient(ctx, cfg, opts, flag.Args(), *genReport)
	case "report":
		if err := report.Generate(cfg); err != nil {
			slog.Error("Failed to generate report", slog.String("error", err.Error()))
		}
	default:
		slog.Error("Unknown mode", slog.String("mode", *mode))
	}
}

func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.C(), nil
}

// buildTagger downloads the model files if needed and spins up the
// local inference sessions.
func buildTagger(ctx context.Context, cfg config.Config) (*tagger.Tagger, error) {
	modelPath, err := tagger.EnsureModel(ctx, cfg.ModelDir, cfg.ModelFileName, cfg.ModelUrl)
	if err != nil {
		return nil, err
	}
	tagsPath, err := tagger.EnsureVocab(ctx, cfg.ModelDir, cfg.ModelTagsName, cfg.TagsUrl)
	if err != nil {
		return nil, err
	}
	vocab, err := tagger.LoadVocab(tagsPath)
	if err != nil {
		return nil, err
	}
	return tagger.New(modelPath, vocab, cfg.Workers)
}

func runServer(ctx context.Context, cancel context.CancelFunc, cfg config.Config) {
	ort.SetSharedLibraryPath(onnx.LibPath())
	if err := ort.InitializeEnvironment(); err != nil {
		slog.Error("Failed to initialize ONNX Runtime environment", slog.String("error", err.Error()))
		return
	}
	defer ort.DestroyEnvironment()

	tg, err := buildTagger(ctx, cfg)
	if err != nil {
		slog.Error("Failed to load model", slog.String("error", err.Error()))
		return
	}
	defer tg.Close()

	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()
	srv := server.New(tg, cfg.Token)
	r.POST("/predict", srv.PredictHandler)
	r.GET("/health", srv.HealthHandler)

	addr := cfg.Host + ":" + cfg.Port
	slog.Info("Listening on", slog.String("address", addr))
	go func() {
		if err := r.Run(addr); err != nil {
			slog.Error("Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")
}

func runStandalone(ctx context.Context, cfg config.Config, opts runner.Options, args []string, genReport bool) {
	files, err := runner.Collect(args)
	if err != nil {
		slog.Error("Failed to collect images", slog.String("error", err.Error()))
		return
	}

	ort.SetSharedLibraryPath(onnx.LibPath())
	if err := ort.InitializeEnvironment(); err != nil {
		slog.Error("Failed to initialize ONNX Runtime environment", slog.String("error", err.Error()))
		return
	}
	defer ort.DestroyEnvironment()

	tg, err := buildTagger(ctx, cfg)
	if err != nil {
		slog.Error("Failed to load model", slog.String("error", err.Error()))
		return
	}
	defer tg.Close()

	runBatch(ctx, cfg, tg, opts, files, genReport)
}

func runClient(ctx context.Context, cfg config.Config, opts runner.Options, args []string, genReport bool) {
	files, err := runner.Collect(args)
	if err != nil {
		slog.Error("Failed to collect images", slog.String("error", err.Error()))
		return
	}

	// The vocabulary is still needed locally to turn the server's
	// probability array back into tag names.
	tagsPath, err := tagger.EnsureVocab(ctx, cfg.ModelDir, cfg.ModelTagsName, cfg.TagsUrl)
	if err != nil {
		slog.Error("Failed to fetch tag vocabulary", slog.String("error", err.Error()))
		return
	}
	vocab, err := tagger.LoadVocab(tagsPath)
	if err != nil {
		slog.Error("Failed to load tag vocabulary", slog.String("error", err.Error()))
		return
	}

	host := cfg.Host
	if host == "0.0.0.0" {
		host = "localhost"
	}
	remote := tagger.NewRemote(host, cfg.Port, cfg.Token, vocab)
	slog.Info("Using tagging server", slog.String("url", remote.URL()))

	runBatch(ctx, cfg, remote, opts, files, genReport)
}

func runBatch(ctx context.Context, cfg config.Config, provider tagger.Provider, opts runner.Options, files []string, genReport bool) {
	store, err := metadata.NewStore(cfg.Exiftool)
	if err != nil {
		slog.Error("Failed to start exiftool", slog.String("error", err.Error()))
		return
	}
	defer store.Close()

	if err := runner.New(cfg, provider, store, opts).Run(ctx, files); err != nil {
		slog.Error("Run aborted", slog.String("error", err.Error()))
		return
	}
	if genReport {
		if err := report.Generate(cfg); err != nil {
			slog.Error("Failed to generate report", slog.String("error", err.Error()))
		}
	}
}
