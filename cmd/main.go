package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	sc "ngramcorrector/internal/corrector"
	"ngramcorrector/internal/customdict"
	"ngramcorrector/internal/lexicon"
	"ngramcorrector/internal/ngramindex"
	"ngramcorrector/internal/phonetic"
	"ngramcorrector/pkg/options"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(getenv("LOG_LEVEL", "info"))}))
	if err := run(logger); err != nil {
		logger.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exporter, err := promexporter.New()
	if err != nil {
		return err
	}
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	defer provider.Shutdown(context.Background())
	otel.SetMeterProvider(provider)

	opts := []options.Options{options.WithLogger(logger)}
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		fileOpts, err := options.LoadFile(path)
		if err != nil {
			return err
		}
		opts = append(opts, fileOpts)
	}

	index, err := ngramindex.Open(getenv("INDEX_WORDS", "word.bin"), getenv("INDEX_NGRAMS", "ngram3.bin"))
	if err != nil {
		return err
	}
	defer index.Close()
	lex, err := lexicon.New(index.Vocabulary())
	if err != nil {
		return err
	}
	phon, err := phonetic.New(index.Vocabulary())
	if err != nil {
		return err
	}
	logger.Info("index loaded", slog.Int("words", lex.Len()))

	client := redis.NewClient(&redis.Options{
		Addr:     getenv("REDIS_ADDR", "localhost:6379"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       getEnvInt("REDIS_DB", 0),
	})
	defer client.Close()
	dict := customdict.New(client, os.Getenv("REDIS_KEY"))

	corrector, err := sc.New(index, lex, phon, dict, opts...)
	if err != nil {
		return err
	}
	if _, err := corrector.LoadCustomWords(ctx); err != nil {
		logger.Warn("custom words not loaded", slog.Any("error", err))
	}

	srv := &http.Server{
		Addr:              getenv("HTTP_ADDR", ":8080"),
		Handler:           newMux(corrector, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", slog.String("addr", srv.Addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if i, err := strconv.Atoi(v); err == nil {
		return i
	}
	return def
}

func logLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}
