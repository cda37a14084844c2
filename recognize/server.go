// Copyright 2025 The SnapLocate Authors
// SPDX-License-Identifier: Apache-2.0

package recognize

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/snaplocate/snaplocate/spatial"
)

const (
	// maxUploadBytes bounds a single uploaded image.
	maxUploadBytes = 20 << 20

	defaultListLimit = 50
)

// Server exposes the recognition pipeline over HTTP.
type Server struct {
	pipeline *Pipeline
}

// NewServer creates an HTTP server around a configured pipeline.
func NewServer(pipeline *Pipeline) *Server {
	return &Server{pipeline: pipeline}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	r.POST("/api/recognize", s.recognize)
	r.GET("/api/sightings", s.listSightings)
	r.POST("/api/corrections", s.addCorrection)
	r.GET("/api/health", s.health)

	return r
}

// Run starts the HTTP server on the given address.
func (s *Server) Run(addr string) error {
	return s.Router().Run(addr)
}

func (s *Server) recognize(ctx *gin.Context) {
	form, err := ctx.MultipartForm()
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("reading multipart form: %v", err)})

		return
	}

	files := form.File["images"]
	if len(files) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "at least one image is required"})

		return
	}

	var images [][]byte

	for _, header := range files {
		if header.Size > maxUploadBytes {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("image %q exceeds the size limit", header.Filename)})

			return
		}

		file, err := header.Open()
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("opening %q: %v", header.Filename, err)})

			return
		}

		data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
		file.Close()

		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("reading %q: %v", header.Filename, err)})

			return
		}

		images = append(images, data)
	}

	deviceLocation, err := parseDeviceLocation(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	var result *RecognitionResult

	if len(images) == 1 {
		result, err = s.pipeline.Recognize(ctx.Request.Context(), images[0], deviceLocation)
	} else {
		result, err = s.pipeline.RecognizeAll(ctx.Request.Context(), images, deviceLocation)
	}

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, result)
}

// parseDeviceLocation reads the optional device_lat/device_lng form
// fields. Both must be present and valid, or neither.
func parseDeviceLocation(ctx *gin.Context) (*spatial.Point, error) {
	latStr := ctx.PostForm("device_lat")
	lngStr := ctx.PostForm("device_lng")

	if latStr == "" && lngStr == "" {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid device_lat %q", latStr)
	}

	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid device_lng %q", lngStr)
	}

	point := &spatial.Point{Lat: lat, Lng: lng}
	if !point.Valid() {
		return nil, fmt.Errorf("device location out of range: %s", point)
	}

	return point, nil
}

func (s *Server) listSightings(ctx *gin.Context) {
	if s.pipeline.Repository == nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "sighting storage is not configured"})

		return
	}

	limit, err := queryInt(ctx, "limit", defaultListLimit)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	offset, err := queryInt(ctx, "offset", 0)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	sightings, err := s.pipeline.Repository.ListRecent(limit, offset)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	if sightings == nil {
		sightings = []*Sighting{}
	}

	ctx.JSON(http.StatusOK, gin.H{"sightings": sightings})
}

func queryInt(ctx *gin.Context, name string, fallback int) (int, error) {
	raw := ctx.Query(name)
	if raw == "" {
		return fallback, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}

	return value, nil
}

// CorrectionRequest registers an OCR substitution rule at runtime.
type CorrectionRequest struct {
	Wrong string `json:"wrong" binding:"required"`
	Right string `json:"right" binding:"required"`
}

func (s *Server) addCorrection(ctx *gin.Context) {
	var req CorrectionRequest
	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	s.pipeline.Corrector.AddCorrection(req.Wrong, req.Right)

	ctx.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) health(ctx *gin.Context) {
	status := gin.H{"status": "ok"}

	if s.pipeline.Repository != nil {
		count, err := s.pipeline.Repository.Count()
		if err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"status": "degraded", "error": err.Error()})

			return
		}

		status["sightings"] = count
	}

	ctx.JSON(http.StatusOK, status)
}
