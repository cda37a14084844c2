// Copyright 2025 The SnapLocate Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/snaplocate/snaplocate/recognize"
	"github.com/snaplocate/snaplocate/spatial"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Initialize the data directory: sightings database and curated business layer",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		_, db, err := openRepository()
		if err != nil {
			return err
		}
		defer db.Close()

		log.Printf("database ready at %s", filepath.Join(dataDir, dbFileName))

		return writeBusinessTemplate()
	},
}

// writeBusinessTemplate writes a starter businesses.json so operators
// have a file to extend. An existing file is left alone.
func writeBusinessTemplate() error {
	path := filepath.Join(dataDir, businessesFile)

	if _, err := os.Stat(path); err == nil {
		log.Printf("curated business layer already exists at %s", path)

		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("checking %s: %w", path, err)
	}

	starter := []recognize.Business{
		{
			Name:     "George Bins Funfair",
			Address:  "Burgess Park, Albany Rd, London SE5 0AL",
			Category: "Entertainment",
			Point:    spatial.Point{Lat: 51.4816, Lng: -0.0887},
		},
	}

	data, err := json.MarshalIndent(starter, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding starter businesses: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	log.Printf("wrote starter business layer to %s", path)

	return nil
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
