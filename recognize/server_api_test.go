// Copyright 2025 The SnapLocate Authors
// SPDX-License-Identifier: Apache-2.0

package recognize

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snaplocate/snaplocate/spatial"
	"github.com/snaplocate/snaplocate/vision"
)

func setupServerTest(t *testing.T, analyzer vision.Analyzer) (*gin.Engine, SightingRepository) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	_, repo := setupTestDB(t)

	pipeline := newTestPipeline(analyzer, &fakeGeocoder{}, repo)
	server := NewServer(pipeline)

	return server.Router(), repo
}

func multipartImage(t *testing.T, fields map[string]string, images ...[]byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for i, img := range images {
		part, err := writer.CreateFormFile("images", "photo.png")
		require.NoError(t, err)

		_, err = part.Write(img)
		require.NoError(t, err, "image %d", i)
	}

	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}

	require.NoError(t, writer.Close())

	return body, writer.FormDataContentType()
}

func TestRecognizeAPI(t *testing.T) {
	analyzer := &fakeAnalyzer{queue: []*vision.Signals{
		{TextLines: []string{"GEORGE BINS FUNFAIR"}},
	}}
	router, repo := setupServerTest(t, analyzer)

	body, contentType := multipartImage(t, nil, testImage(t))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/recognize", body)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result RecognitionResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Equal(t, "George Bins Funfair", result.Name)
	assert.Equal(t, MethodBusinessLookup, result.Method)

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRecognizeAPIDeviceLocation(t *testing.T) {
	router, _ := setupServerTest(t, &fakeAnalyzer{})

	body, contentType := multipartImage(t, map[string]string{
		"device_lat": "51.47",
		"device_lng": "-0.09",
	}, testImage(t))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/recognize", body)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result RecognitionResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Equal(t, MethodDeviceFallback, result.Method)
}

func TestRecognizeAPIValidation(t *testing.T) {
	router, _ := setupServerTest(t, &fakeAnalyzer{})

	t.Run("no images", func(t *testing.T) {
		body, contentType := multipartImage(t, map[string]string{"device_lat": "1"})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/api/recognize", body)
		req.Header.Set("Content-Type", contentType)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("bad device location", func(t *testing.T) {
		body, contentType := multipartImage(t, map[string]string{
			"device_lat": "not-a-number",
			"device_lng": "-0.09",
		}, testImage(t))

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/api/recognize", body)
		req.Header.Set("Content-Type", contentType)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("out of range device location", func(t *testing.T) {
		body, contentType := multipartImage(t, map[string]string{
			"device_lat": "95",
			"device_lng": "0",
		}, testImage(t))

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/api/recognize", body)
		req.Header.Set("Content-Type", contentType)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRecognizeAPIMultipleImages(t *testing.T) {
	analyzer := &fakeAnalyzer{queue: []*vision.Signals{
		{TextLines: []string{"FUNFAIR"}},
		{TextLines: []string{"TORTOISE"}},
	}}
	router, _ := setupServerTest(t, analyzer)

	body, contentType := multipartImage(t, nil, testImage(t), testImage(t))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/recognize", body)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result RecognitionResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Equal(t, MethodTriangulation, result.Method)
	assert.Len(t, result.SourceLocations, 2)
}

func TestListSightingsAPI(t *testing.T) {
	router, repo := setupServerTest(t, &fakeAnalyzer{})

	require.NoError(t, repo.Save(&Sighting{
		Name:       "Borough Market",
		Point:      spatial.Point{Lat: 51.5055, Lng: -0.0910},
		Confidence: 0.8,
		Method:     MethodLandmark,
	}))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/sightings?limit=10", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Sightings []*Sighting `json:"sightings"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Sightings, 1)
	assert.Equal(t, "Borough Market", resp.Sightings[0].Name)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/api/sightings?limit=oops", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAddCorrectionAPI(t *testing.T) {
	gin.SetMode(gin.TestMode)

	pipeline := newTestPipeline(&fakeAnalyzer{}, &fakeGeocoder{}, nil)
	router := NewServer(pipeline).Router()

	payload, _ := json.Marshal(CorrectionRequest{Wrong: "BAKARY", Right: "BAKERY"})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/corrections", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "BAKERY", pipeline.Corrector.Correct("BAKARY"))

	// missing fields are rejected
	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodPost, "/api/corrections", bytes.NewReader([]byte(`{"wrong": "X"}`)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthAPI(t *testing.T) {
	router, _ := setupServerTest(t, &fakeAnalyzer{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/health", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.EqualValues(t, 0, resp["sightings"])
}
