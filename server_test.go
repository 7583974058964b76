package main

import (
	"bytes"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/require"

	"github.com/kanjimatch/kanjimatch/config"
	"github.com/kanjimatch/kanjimatch/encoding/kdb"
	"github.com/kanjimatch/kanjimatch/feature"
	"github.com/kanjimatch/kanjimatch/model"
	"github.com/kanjimatch/kanjimatch/normalize"
)

func writeTestBlob(t *testing.T) string {
	t.Helper()

	blob := kdb.Database{
		SchemaVersion:   feature.SchemaVersion,
		FeatureLen:      feature.Length,
		PointsPerStroke: normalize.PointsPerStroke,
		MaxStrokes:      feature.MaxStrokes,
		AngleBins:       feature.AngleBins,
	}
	for id, raw := range map[string][][]model.Point{
		"一": {{{X: 0, Y: 0}, {X: 100, Y: 0}}},
		"二": {
			{{X: 10, Y: 20}, {X: 90, Y: 20}},
			{{X: 0, Y: 80}, {X: 100, Y: 80}},
		},
	} {
		strokes, err := normalize.Character(raw)
		require.NoError(t, err)
		blob.Entries = append(blob.Entries, kdb.Entry{
			ID:       id,
			Strokes:  strokes,
			Features: feature.Extract(strokes),
		})
	}

	data, err := blob.MarshalBinary()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "test.kdb")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func testServer(t *testing.T, authSecret string) *httptest.Server {
	t.Helper()

	cfg := config.Default()
	cfg.DatabasePath = writeTestBlob(t)
	cfg.AuthSecret = authSecret

	s, err := NewApiServer(cfg)
	require.NoError(t, err)

	srv := httptest.NewServer(s.mux())
	t.Cleanup(srv.Close)
	return srv
}

func postMatch(t *testing.T, srv *httptest.Server, req model.MatchRequest) *http.Response {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)
	resp, err := http.Post(srv.URL+"/api/match", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestMatchEndpoint(t *testing.T) {
	srv := testServer(t, "")

	resp := postMatch(t, srv, model.MatchRequest{
		Strokes: [][]model.Point{{{X: 5, Y: 50}, {X: 95, Y: 50}}},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get("X-Request-Id"))

	var out struct {
		Data model.MatchResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotEmpty(t, out.Data.Results)
	require.Equal(t, "一", out.Data.Results[0].ID)
	require.InDelta(t, 1.0, out.Data.Results[0].Confidence, 1e-9)
}

func TestMatchEndpointMalformed(t *testing.T) {
	srv := testServer(t, "")

	resp := postMatch(t, srv, model.MatchRequest{})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var out ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotEmpty(t, out.Error)
}

func TestMatchEndpointRejectsGet(t *testing.T) {
	srv := testServer(t, "")

	resp, err := http.Get(srv.URL + "/api/match")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestCharacterEndpoint(t *testing.T) {
	srv := testServer(t, "")

	resp, err := http.Get(srv.URL + "/api/character?id=二")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Data model.Character `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Equal(t, "二", out.Data.ID)
	require.Len(t, out.Data.Strokes, 2)
}

func TestCharacterEndpointNotFound(t *testing.T) {
	srv := testServer(t, "")

	resp, err := http.Get(srv.URL + "/api/character?id=龍")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStatsEndpoint(t *testing.T) {
	srv := testServer(t, "")

	resp, err := http.Get(srv.URL + "/api/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Data struct {
			Entries    int `json:"entries"`
			MinStrokes int `json:"min_strokes"`
			MaxStrokes int `json:"max_strokes"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Equal(t, 2, out.Data.Entries)
	require.Equal(t, 1, out.Data.MinStrokes)
	require.Equal(t, 2, out.Data.MaxStrokes)
}

func TestPreviewEndpoint(t *testing.T) {
	srv := testServer(t, "")

	resp, err := http.Get(srv.URL + "/api/preview?id=一&size=64")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	img, err := png.Decode(resp.Body)
	require.NoError(t, err)
	require.Equal(t, 64, img.Bounds().Dx())
}

func TestPreviewEndpointBadSize(t *testing.T) {
	srv := testServer(t, "")

	resp, err := http.Get(srv.URL + "/api/preview?id=一&size=9999")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestVersionEndpoint(t *testing.T) {
	srv := testServer(t, "")

	resp, err := http.Get(srv.URL + "/version")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHealthEndpoint(t *testing.T) {
	srv := testServer(t, "")

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthRequired(t *testing.T) {
	srv := testServer(t, "testsecret")

	resp, err := http.Get(srv.URL + "/api/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// /version stays outside the auth boundary
	resp2, err := http.Get(srv.URL + "/version")
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusOK, resp2.StatusCode)
}

func TestAuthAcceptsSignedToken(t *testing.T) {
	srv := testServer(t, "testsecret")

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "test"}).
		SignedString([]byte("testsecret"))
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/stats", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthRejectsWrongKey(t *testing.T) {
	srv := testServer(t, "testsecret")

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "test"}).
		SignedString([]byte("wrongsecret"))
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/stats", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestReloadSwapsDatabase(t *testing.T) {
	cfg := config.Default()
	cfg.DatabasePath = writeTestBlob(t)

	s, err := NewApiServer(cfg)
	require.NoError(t, err)
	require.Equal(t, 2, s.state.Load().db.Len())

	old := s.state.Load()
	require.NoError(t, s.reload())
	require.NotSame(t, old, s.state.Load())
}
