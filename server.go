package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/kanjimatch/kanjimatch/config"
	"github.com/kanjimatch/kanjimatch/kanjierr"
	"github.com/kanjimatch/kanjimatch/log"
	"github.com/kanjimatch/kanjimatch/matcher"
	"github.com/kanjimatch/kanjimatch/model"
	"github.com/kanjimatch/kanjimatch/refdb"
	"github.com/kanjimatch/kanjimatch/render"
	"github.com/kanjimatch/kanjimatch/version"
)

type ApiServer struct {
	cfg   config.Config
	state atomic.Pointer[matcherState]
}

// matcherState bundles one immutable database handle with its matcher.
// Reloads swap the whole bundle; in-flight requests keep the one they
// started with.
type matcherState struct {
	db *refdb.Database
	m  *matcher.Matcher
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type SuccessResponse struct {
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewApiServer(cfg config.Config) (*ApiServer, error) {
	s := &ApiServer{cfg: cfg}
	if err := s.reload(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ApiServer) reload() error {
	db, err := refdb.Load(s.cfg.DatabasePath)
	if err != nil {
		return err
	}
	m, err := matcher.New(db)
	if err != nil {
		return err
	}
	s.state.Store(&matcherState{db: db, m: m})
	return nil
}

func (s *ApiServer) writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: err.Error()})
}

func (s *ApiServer) writeSuccess(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SuccessResponse{Data: data})
}

// POST /api/match
func (s *ApiServer) handleMatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req model.MatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	topN := req.TopN
	if topN <= 0 {
		topN = s.cfg.TopN
	}

	results, err := s.state.Load().m.Match(req.Strokes, topN)
	if err != nil {
		s.writeError(w, matchStatus(err), err)
		return
	}

	s.writeSuccess(w, model.MatchResponse{Results: results})
}

// matchStatus maps the error kinds of the core onto HTTP statuses:
// malformed input rejects the single request, everything else is a
// server-side fault.
func matchStatus(err error) int {
	switch errors.Cause(err) {
	case kanjierr.ErrMalformedInput:
		return http.StatusBadRequest
	case kanjierr.ErrEmptyDatabase, kanjierr.ErrSchemaMismatch, kanjierr.ErrCorruptDatabase:
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

// GET /api/character?id=<identifier>
func (s *ApiServer) handleCharacter(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("id parameter is required"))
		return
	}

	char, ok := s.state.Load().db.Character(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("character %q not in database", id))
		return
	}

	s.writeSuccess(w, char)
}

// GET /api/stats
func (s *ApiServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.writeSuccess(w, s.state.Load().db.Stats())
}

// GET /api/preview?id=<identifier>&size=<pixels>
func (s *ApiServer) handlePreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	id := query.Get("id")
	if id == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("id parameter is required"))
		return
	}

	size := 160
	if sz := query.Get("size"); sz != "" {
		parsed, err := strconv.Atoi(sz)
		if err != nil || parsed < 16 || parsed > 1024 {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("size must be between 16 and 1024"))
			return
		}
		size = parsed
	}

	char, ok := s.state.Load().db.Character(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("character %q not in database", id))
		return
	}

	data, err := render.PNG(char.Strokes, size)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", id+".png"))
	w.Write(data)
}

// GET /version
func (s *ApiServer) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.writeSuccess(w, map[string]string{"version": version.Version})
}

// requestID tags every request with a uuid for trace correlation.
func (s *ApiServer) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.New().String()
		w.Header().Set("X-Request-Id", id)
		log.Trace.Printf("%s %s %s", id, r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

// auth enforces a bearer token signed with the configured secret. With
// no secret configured the API is open.
func (s *ApiServer) auth(next http.Handler) http.Handler {
	if s.cfg.AuthSecret == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			s.writeError(w, http.StatusUnauthorized, fmt.Errorf("missing bearer token"))
			return
		}

		token, err := jwt.Parse(strings.TrimPrefix(header, "Bearer "), func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(s.cfg.AuthSecret), nil
		})
		if err != nil || !token.Valid {
			s.writeError(w, http.StatusUnauthorized, fmt.Errorf("invalid token"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// watchDatabase reloads the blob when the builder rewrites it. The
// builder renames a temp file into place, so the watch sits on the
// directory and filters for the blob path.
func (s *ApiServer) watchDatabase() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create database watcher")
	}

	dbPath := filepath.Clean(s.cfg.DatabasePath)
	if err := watcher.Add(filepath.Dir(dbPath)); err != nil {
		watcher.Close()
		return errors.Wrapf(err, "watch %s", filepath.Dir(dbPath))
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != dbPath {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if err := s.reload(); err != nil {
					log.Error.Printf("database reload failed, keeping previous: %v", err)
					continue
				}
				log.Info.Printf("database reloaded: %d entries", s.state.Load().db.Len())
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Error.Printf("database watcher: %v", err)
			}
		}
	}()

	return nil
}

func (s *ApiServer) mux() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("/api/match", s.handleMatch)
	api.HandleFunc("/api/character", s.handleCharacter)
	api.HandleFunc("/api/stats", s.handleStats)
	api.HandleFunc("/api/preview", s.handlePreview)

	mux := http.NewServeMux()
	mux.Handle("/api/", s.auth(api))
	mux.HandleFunc("/version", s.handleVersion)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return s.requestID(mux)
}

func runServerMode(cfg config.Config) {
	server, err := NewApiServer(cfg)
	if err != nil {
		log.Error.Fatalf("Failed to initialize API server: %v", err)
	}

	if cfg.WatchDatabase {
		if err := server.watchDatabase(); err != nil {
			log.Error.Fatalf("Failed to watch database: %v", err)
		}
	}

	log.Info.Printf("Starting HTTP server on port %d", cfg.Port)
	if err := http.ListenAndServe(fmt.Sprintf(":%d", cfg.Port), server.mux()); err != nil {
		log.Error.Fatalf("Server failed: %v", err)
	}
}
