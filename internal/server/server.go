// Package server exposes hotspot detection over HTTP.
package server

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/MiningCrashPatterns/crash-hotspot-detection/internal/cluster"
	"github.com/MiningCrashPatterns/crash-hotspot-detection/internal/config"
	"github.com/MiningCrashPatterns/crash-hotspot-detection/internal/hotspot"
	"github.com/MiningCrashPatterns/crash-hotspot-detection/internal/ingest"
	"github.com/MiningCrashPatterns/crash-hotspot-detection/internal/model"
	"github.com/MiningCrashPatterns/crash-hotspot-detection/internal/store"
)

// Server wires the detection API, the store, and the result cache.
type Server struct {
	store    store.Store
	cache    *ResultCache
	defaults config.DetectConfig
	maxBody  int64
	log      *zap.Logger
}

// New creates a Server around the given store.
func New(st store.Store, cfg config.ServerConfig, defaults config.DetectConfig) *Server {
	cacheSize := cfg.CacheSize
	if cacheSize <= 0 {
		cacheSize = 128
	}
	ttl := time.Duration(cfg.CacheTTLSecs) * time.Second
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	maxBody := int64(cfg.MaxBodyBytes)
	if maxBody <= 0 {
		maxBody = 32 << 20
	}
	return &Server{
		store:    st,
		cache:    NewResultCache(cacheSize, ttl),
		defaults: defaults,
		maxBody:  maxBody,
		log:      zap.L().With(zap.String("component", "server")),
	}
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/stats", s.handleStats)
	r.Post("/hotspots", s.handleHotspots)
	r.Post("/hotspots/geojson", s.handleHotspotsGeoJSON)
	r.Post("/import", s.handleImport)

	return r
}

// DetectRequest is the body of the detection endpoints. Records are taken
// inline when provided, otherwise loaded from the store through the filter.
type DetectRequest struct {
	Records []model.CrashRecord `json:"records,omitempty"`
	Filter  ingest.Filter       `json:"filter,omitempty"`

	Eps          *float64 `json:"eps,omitempty"`
	MinSamples   *int     `json:"min_samples,omitempty"`
	TopN         *int     `json:"top_n,omitempty"`
	RankBy       string   `json:"rank_by,omitempty"`
	IncludeNoise bool     `json:"include_noise,omitempty"`
}

func (s *Server) options(req DetectRequest) (hotspot.Options, error) {
	opts := hotspot.Options{
		Eps:          s.defaults.Eps,
		MinSamples:   s.defaults.MinSamples,
		TopN:         s.defaults.TopN,
		RankBy:       hotspot.RankKey(s.defaults.RankBy),
		Workers:      s.defaults.Workers,
		IncludeNoise: req.IncludeNoise,
	}
	if opts.RankBy == "" {
		opts.RankBy = hotspot.ByFatalities
	}
	if req.Eps != nil {
		opts.Eps = *req.Eps
	}
	if req.MinSamples != nil {
		opts.MinSamples = *req.MinSamples
	}
	if req.TopN != nil {
		opts.TopN = *req.TopN
	}
	if req.RankBy != "" {
		key, err := hotspot.ParseRankKey(req.RankBy)
		if err != nil {
			return opts, eris.Wrap(cluster.ErrInvalidParameter, err.Error())
		}
		opts.RankBy = key
	}
	// A scoped filter picks the ranking depth when the caller left it open.
	if req.TopN == nil && (req.Filter.County != "" || req.Filter.City != "") {
		opts.TopN = ingest.DefaultTopN(req.Filter)
	}
	return opts, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	count, err := s.store.CountCrashes(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"crashes": count,
		"cache":   s.cache.Stats(),
	})
}

func (s *Server) handleHotspots(w http.ResponseWriter, r *http.Request) {
	s.detect(w, r, "hotspots", func(result *hotspot.Result) (any, error) {
		return result, nil
	})
}

func (s *Server) handleHotspotsGeoJSON(w http.ResponseWriter, r *http.Request) {
	s.detect(w, r, "hotspots/geojson", func(result *hotspot.Result) (any, error) {
		return hotspot.ToGeoJSON(result), nil
	})
}

func (s *Server) detect(w http.ResponseWriter, r *http.Request, endpoint string, shape func(*hotspot.Result) (any, error)) {
	body, err := io.ReadAll(io.LimitReader(r.Body, s.maxBody))
	if err != nil {
		s.writeError(w, eris.Wrap(err, "server: read body"))
		return
	}

	key := cacheKey(endpoint, body)
	if cached := s.cache.Get(key); cached != nil {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Cache", "hit")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(cached)
		return
	}

	var req DetectRequest
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}

	opts, err := s.options(req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	records := req.Records
	if len(records) == 0 {
		records, err = s.store.ListCrashes(r.Context(), req.Filter)
		if err != nil {
			s.writeError(w, err)
			return
		}
	}

	result, err := hotspot.Detect(records, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}

	payload, err := shape(result)
	if err != nil {
		s.writeError(w, err)
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		s.writeError(w, eris.Wrap(err, "server: marshal response"))
		return
	}

	s.cache.Put(key, data)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", "miss")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// ImportRequest is the body of POST /import.
type ImportRequest struct {
	Records []model.CrashRecord `json:"records"`
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, s.maxBody)).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	n, err := s.store.ImportCrashes(r.Context(), req.Records)
	if err != nil {
		s.writeError(w, err)
		return
	}

	// Stored data changed; every cached result is stale.
	s.cache.Invalidate()

	s.log.Info("imported crashes", zap.Int64("count", n))
	writeJSON(w, http.StatusOK, map[string]int64{"imported": n})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case eris.Is(err, cluster.ErrInvalidParameter):
		status = http.StatusBadRequest
	case eris.Is(err, cluster.ErrNoValidPoints):
		status = http.StatusUnprocessableEntity
	default:
		s.log.Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
