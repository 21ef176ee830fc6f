// Package main provides the seedgen binary, which generates one or more
// seeds, writes their spoiler documents and prints a summary of each.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gookit/color"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dkrando/internal/config"
	"github.com/cory-johannsen/dkrando/internal/generator"
	"github.com/cory-johannsen/dkrando/internal/observability"
	"github.com/cory-johannsen/dkrando/internal/rng"
	"github.com/cory-johannsen/dkrando/internal/spoiler"
	"github.com/cory-johannsen/dkrando/internal/storage"
	"github.com/cory-johannsen/dkrando/internal/storage/archive"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "", "path to configuration file; empty uses defaults and DKR_ env vars")
	seed := flag.Uint64("seed", 0, "seed to generate; 0 draws a random seed")
	count := flag.Int("count", 1, "number of consecutive seeds to generate")
	outDir := flag.String("out", "", "directory for spoiler documents; empty skips writing")
	format := flag.String("format", "", "spoiler format: yaml or json (default from config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *format != "" {
		cfg.Generation.SpoilerFormat = *format
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("validating config: %v", err)
	}
	if *count < 1 {
		log.Fatalf("count must be >= 1, got %d", *count)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gen, closeHooks, err := generator.FromConfig(cfg, logger, observability.NopMetrics())
	if err != nil {
		if errors.Is(err, generator.ErrConfiguration) {
			logger.Fatal("settings can never produce a seed", zap.Error(err))
		}
		logger.Fatal("creating generator", zap.Error(err))
	}
	defer closeHooks()

	arch, closeArchive, err := archive.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("opening archive", zap.Error(err))
	}
	defer closeArchive()

	first := *seed
	if first == 0 {
		first = rng.NewSeed()
	}
	seeds := make([]uint64, *count)
	for i := range seeds {
		seeds[i] = first + uint64(i)
	}

	items, err := gen.GenerateBatch(ctx, seeds, cfg.Generation.Parallelism)
	if err != nil {
		logger.Fatal("generating seeds", zap.Error(err))
	}

	colored := color.SupportColor()
	failed := 0
	for _, it := range items {
		if it.Err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "seed %d: %v\n", it.Seed, it.Err)
			continue
		}
		doc := spoiler.Build(it.Result)
		if err := spoiler.Summary(os.Stdout, doc, colored); err != nil {
			logger.Fatal("writing summary", zap.Error(err))
		}
		if *outDir != "" {
			if err := writeSpoiler(*outDir, doc, cfg.Generation.SpoilerFormat); err != nil {
				logger.Fatal("writing spoiler", zap.Error(err))
			}
		}
		if arch != nil {
			if err := archiveSeed(ctx, arch, doc); err != nil {
				logger.Error("archiving seed", zap.Uint64("seed", it.Seed), zap.Error(err))
			}
		}
	}

	logger.Info("generation finished",
		zap.Int("seeds", len(items)),
		zap.Int("failed", failed),
		zap.Duration("elapsed", time.Since(start)),
	)
	if failed > 0 {
		os.Exit(1)
	}
}

func writeSpoiler(dir string, doc *spoiler.Document, format string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	path := filepath.Join(dir, fmt.Sprintf("seed-%d-%s%s", doc.Seed, doc.Hash, spoiler.Extension(format)))
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := spoiler.Encode(f, doc, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func archiveSeed(ctx context.Context, arch storage.Archive, doc *spoiler.Document) error {
	settingsJSON, err := json.Marshal(doc.Settings)
	if err != nil {
		return err
	}
	var body bytes.Buffer
	if err := spoiler.Encode(&body, doc, spoiler.FormatJSON); err != nil {
		return err
	}
	_, err = arch.Save(ctx, storage.Seed{
		Seed:     doc.Seed,
		Hash:     doc.Hash,
		Attempts: doc.Attempts,
		Settings: settingsJSON,
		Spoiler:  body.Bytes(),
	})
	return err
}
