// Copyright 2025 The SnapLocate Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/snaplocate/snaplocate/recognize"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the recognition HTTP server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		pipeline, cleanup, err := buildPipeline(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer cleanup()

		log.Printf("snaplocate %s listening on %s", Version, serveAddr)

		server := recognize.NewServer(pipeline)
		if err := server.Run(serveAddr); err != nil {
			return fmt.Errorf("running server: %w", err)
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "address to listen on")
	rootCmd.AddCommand(serveCmd)
}
