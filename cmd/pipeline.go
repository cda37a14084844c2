// Copyright 2025 The SnapLocate Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/snaplocate/snaplocate/geocode"
	"github.com/snaplocate/snaplocate/recognize"
	"github.com/snaplocate/snaplocate/vision"
)

const (
	dbFileName      = "snaplocate.duckdb"
	businessesFile  = "businesses.json"
	geocodeCacheTTL = time.Hour
	mapsKeyEnvVar   = "GOOGLE_MAPS_API_KEY"
	geminiKeyEnvVar = "GEMINI_API_KEY"
)

// resolveMapsKey returns the Google Maps API key from the environment,
// falling back to Application Default Credentials.
func resolveMapsKey(ctx context.Context) string {
	if key := os.Getenv(mapsKeyEnvVar); key != "" {
		return key
	}

	log.Printf("%s is not set. Attempting to retrieve via ADC...", mapsKeyEnvVar)

	key, err := geocode.APIKeyFromADC(ctx)
	if err != nil {
		log.Printf("Failed to retrieve API key via ADC: %v", err)

		return ""
	}

	log.Println("✅ Successfully retrieved Google Maps API Key via ADC")

	return key
}

// newGeocoder builds the cached provider cascade. Providers that need an
// API key are skipped without one; the postal resolver always works.
func newGeocoder(ctx context.Context) geocode.Resolver {
	providers := []geocode.Resolver{geocode.NewPostalResolver()}

	if key := resolveMapsKey(ctx); key != "" {
		providers = append(providers,
			geocode.NewGoogleGeocoder(key),
			geocode.NewPlacesResolver(key),
		)
	} else {
		log.Print("no Google Maps API key; geocoding degrades to postal codes and coordinate fallbacks")
	}

	return geocode.NewCachedResolver(geocode.NewCascade(providers...), geocodeCacheTTL)
}

// newAnalyzer builds the Gemini vision analyzer, or nil without a key.
func newAnalyzer(ctx context.Context) (*vision.GeminiAnalyzer, error) {
	key := os.Getenv(geminiKeyEnvVar)
	if key == "" {
		log.Printf("%s is not set; AI-vision signals are disabled", geminiKeyEnvVar)

		return nil, nil
	}

	return vision.NewGeminiAnalyzer(ctx, key)
}

// openRepository opens or creates the sightings database under dataDir.
func openRepository() (recognize.SightingRepository, *sql.DB, error) {
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return nil, nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFileName)

	db, err := sql.Open("duckdb", dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}

	repo := recognize.NewSightingRepository(db)
	if err := repo.CreateSchema(); err != nil {
		db.Close()

		return nil, nil, fmt.Errorf("creating schema: %w", err)
	}

	return repo, db, nil
}

// loadBusinesses loads the curated business layer from dataDir, falling
// back to the built-in set when no file exists.
func loadBusinesses() (*recognize.BusinessIndex, error) {
	path := filepath.Join(dataDir, businessesFile)

	index, err := recognize.LoadBusinessIndex(path)
	if errors.Is(err, os.ErrNotExist) {
		return recognize.DefaultBusinessIndex(), nil
	}

	if err != nil {
		return nil, err
	}

	log.Printf("loaded %d curated businesses from %s", index.Len(), path)

	return index, nil
}

// buildPipeline assembles the full recognition pipeline. The returned
// cleanup closes the analyzer and database.
func buildPipeline(ctx context.Context, withStore bool) (*recognize.Pipeline, func(), error) {
	analyzer, err := newAnalyzer(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("creating vision analyzer: %w", err)
	}

	businesses, err := loadBusinesses()
	if err != nil {
		return nil, nil, fmt.Errorf("loading businesses: %w", err)
	}

	var (
		repo recognize.SightingRepository
		db   *sql.DB
	)

	if withStore {
		repo, db, err = openRepository()
		if err != nil {
			return nil, nil, err
		}
	}

	pipeline := recognize.NewPipeline(nil, newGeocoder(ctx), repo)
	pipeline.Businesses = businesses

	if analyzer != nil {
		pipeline.Analyzer = analyzer
	}

	cleanup := func() {
		if analyzer != nil {
			analyzer.Close()
		}

		if db != nil {
			db.Close()
		}
	}

	return pipeline, cleanup, nil
}
