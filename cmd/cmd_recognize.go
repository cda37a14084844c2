// Copyright 2025 The SnapLocate Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/snaplocate/snaplocate/recognize"
	"github.com/snaplocate/snaplocate/spatial"
)

var recognizeOptions struct {
	deviceLat float64
	deviceLng float64
	each      bool
	noStore   bool
}

var recognizeCmd = &cobra.Command{
	Use:   "recognize <image>...",
	Short: "Estimate where one or more photos were taken",
	Long: `
Estimate where the given photos were taken. Several images of the same
place are triangulated into one location; with --each every image is
recognized independently.
`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		pipeline, cleanup, err := buildPipeline(ctx, !recognizeOptions.noStore)
		if err != nil {
			return err
		}
		defer cleanup()

		device, err := deviceLocation(cmd)
		if err != nil {
			return err
		}

		images := make([][]byte, 0, len(args))

		for _, path := range args {
			data, err := os.ReadFile(path) // #nosec G304 - path is given by the user on the command line
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}

			images = append(images, data)
		}

		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")

		if !recognizeOptions.each {
			result, err := pipeline.RecognizeAll(ctx, images, device)
			if err != nil {
				return err
			}

			return encoder.Encode(result)
		}

		var bar *progressbar.ProgressBar
		if isatty.IsTerminal(os.Stderr.Fd()) {
			bar = progressbar.NewOptions(len(images),
				progressbar.OptionSetDescription("Recognizing"),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}

		results := make(map[string]*recognize.RecognitionResult, len(images))

		for i, data := range images {
			result, err := pipeline.Recognize(ctx, data, device)
			if err != nil {
				return fmt.Errorf("recognizing %s: %w", args[i], err)
			}

			results[args[i]] = result

			if bar != nil {
				_ = bar.Add(1)
			}
		}

		return encoder.Encode(results)
	},
}

// deviceLocation builds the optional device-position fallback from flags.
// Both coordinates must be given together.
func deviceLocation(cmd *cobra.Command) (*spatial.Point, error) {
	latSet := cmd.Flags().Changed("device-lat")
	lngSet := cmd.Flags().Changed("device-lng")

	if !latSet && !lngSet {
		return nil, nil
	}

	if latSet != lngSet {
		return nil, fmt.Errorf("--device-lat and --device-lng must be given together")
	}

	point := &spatial.Point{Lat: recognizeOptions.deviceLat, Lng: recognizeOptions.deviceLng}
	if !point.Valid() {
		return nil, fmt.Errorf("device location out of range: %s", point)
	}

	return point, nil
}

func init() {
	recognizeCmd.Flags().Float64Var(&recognizeOptions.deviceLat, "device-lat", 0, "latitude of the device that took the photo")
	recognizeCmd.Flags().Float64Var(&recognizeOptions.deviceLng, "device-lng", 0, "longitude of the device that took the photo")
	recognizeCmd.Flags().BoolVar(&recognizeOptions.each, "each", false, "recognize every image independently instead of triangulating")
	recognizeCmd.Flags().BoolVar(&recognizeOptions.noStore, "no-store", false, "do not persist the result as a sighting")
	rootCmd.AddCommand(recognizeCmd)
}
