package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"wordhash/internal/app"
	"wordhash/internal/hasher"
	"wordhash/internal/journal"
	"wordhash/internal/lexicon"
)

const (
	maxBodyBytes      = 8 << 20
	maxBatchDocuments = 1000
)

type apiServer struct {
	app       *app.App
	telemetry *telemetry
	logger    *slog.Logger
	ready     atomic.Bool
}

func newAPIServer(components *app.App, telemetry *telemetry, logger *slog.Logger) *apiServer {
	return &apiServer{
		app:       components,
		telemetry: telemetry,
		logger:    logger,
	}
}

// warm resolves the default language's lexicons and then reports the server ready.
func (s *apiServer) warm() {
	start := time.Now()
	language := s.app.Hasher.Defaults().Language
	stopwords := s.app.Lexicon.Stopwords(language)
	acronyms := s.app.Lexicon.AllowAcronyms(language)
	s.ready.Store(true)

	if s.logger != nil {
		s.logger.Info("lexicons warmed", "language", language, "stopwords", stopwords.Len(), "acronyms", acronyms.Len(), "duration_ms", time.Since(start).Milliseconds())
	}
}

func (s *apiServer) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/hash", s.handleHash)
	mux.HandleFunc("/v1/hash/batch", s.handleBatch)
	mux.HandleFunc("/v1/lexicons/", s.handleLexicon)
	mux.HandleFunc("/v1/health", s.handleHealth)
	mux.HandleFunc("/v1/ready", s.handleReadiness)
	if s.telemetry != nil {
		mux.HandleFunc("/v1/metrics", s.telemetry.handleMetrics)
	}
	return mux
}

// hashOptions are the per-request overrides shared by the single and batch endpoints.
type hashOptions struct {
	Language string `json:"language,omitempty"`
	Stemming *bool  `json:"stemming,omitempty"`
	Clean    bool   `json:"clean,omitempty"`
}

func (o hashOptions) resolve(defaults hasher.Options) (string, bool) {
	language := strings.TrimSpace(o.Language)
	if language == "" {
		language = defaults.Language
	}
	stemming := defaults.Stemming
	if o.Stemming != nil {
		stemming = *o.Stemming
	}
	return language, stemming
}

type hashRequest struct {
	hashOptions
	Text string `json:"text"`
}

type batchDocument struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type batchRequest struct {
	hashOptions
	Documents []batchDocument `json:"documents"`
}

type batchResult struct {
	ID     string              `json:"id"`
	Tokens hasher.FrequencyMap `json:"tokens"`
	Total  int                 `json:"total"`
}

func (s *apiServer) hash(text, language string, stemming, clean bool) hasher.FrequencyMap {
	if clean {
		return s.app.Hasher.CleanWordHash(text, language, stemming)
	}
	return s.app.Hasher.WordHash(text, language, stemming)
}

func (s *apiServer) handleHash(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req hashRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), start)
		return
	}

	language, stemming := req.resolve(s.app.Hasher.Defaults())
	if !hasher.ValidLanguage(language) {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid language code '%s'", language), start)
		return
	}
	tokens := s.hash(req.Text, language, stemming, req.Clean)
	total := tokens.Total()

	if s.telemetry != nil {
		s.telemetry.recordHash(r.Context(), language, 1, total, time.Since(start))
	}

	respond(w, http.StatusOK, map[string]any{
		"language": language,
		"stemming": stemming,
		"tokens":   tokens,
		"unique":   len(tokens),
		"total":    total,
		"timingMs": time.Since(start).Milliseconds(),
	})
}

func (s *apiServer) handleBatch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req batchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), start)
		return
	}
	if len(req.Documents) == 0 {
		respondError(w, http.StatusBadRequest, "no documents provided", start)
		return
	}
	if len(req.Documents) > maxBatchDocuments {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("batch exceeds limit of %d documents", maxBatchDocuments), start)
		return
	}

	language, stemming := req.resolve(s.app.Hasher.Defaults())
	if !hasher.ValidLanguage(language) {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid language code '%s'", language), start)
		return
	}
	results := make([]batchResult, 0, len(req.Documents))
	records := make([]journal.Record, 0, len(req.Documents))
	totalTokens := 0
	for i, doc := range req.Documents {
		id := doc.ID
		if id == "" {
			id = fmt.Sprintf("doc-%d-%d", start.UnixNano(), i)
		}
		tokens := s.hash(doc.Text, language, stemming, req.Clean)
		total := tokens.Total()
		totalTokens += total

		results = append(results, batchResult{ID: id, Tokens: tokens, Total: total})
		records = append(records, journal.Record{
			ID:       id,
			Language: language,
			Stemming: stemming,
			Clean:    req.Clean,
			Tokens:   tokens,
			HashedAt: start.UTC(),
		})
	}

	var journalOffset int64
	if s.app.Journal != nil {
		offset, err := s.app.Journal.Append(records...)
		if err != nil {
			// A failed write leaves the journal in an unknown state; stop advertising readiness.
			s.ready.Store(false)
			if s.logger != nil {
				s.logger.Error("journal append failed", "documents", len(records), "error", err)
			}
			respondError(w, http.StatusInternalServerError, "journal append failed", start)
			return
		}
		journalOffset = offset
		if s.telemetry != nil {
			s.telemetry.recordJournal(ctx, len(records))
		}
	}

	if s.telemetry != nil {
		s.telemetry.recordHash(ctx, language, len(results), totalTokens, time.Since(start))
	}

	respond(w, http.StatusOK, map[string]any{
		"language":      language,
		"stemming":      stemming,
		"documents":     results,
		"journalOffset": journalOffset,
		"timingMs":      time.Since(start).Milliseconds(),
	})

	if s.logger != nil {
		s.logger.Info("batch hashed", "documents", len(results), "tokens", totalTokens, "language", language, "duration_ms", time.Since(start).Milliseconds())
	}
}

func (s *apiServer) handleLexicon(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	trimmed := strings.TrimPrefix(r.URL.Path, "/v1/lexicons/")
	segments := strings.Split(strings.Trim(trimmed, "/"), "/")
	if len(segments) != 2 || segments[0] == "" || segments[1] == "" {
		http.NotFound(w, r)
		return
	}

	kind, err := lexicon.ParseKind(segments[0])
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error(), start)
		return
	}

	language := segments[1]
	if !hasher.ValidLanguage(language) {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid language code '%s'", language), start)
		return
	}
	set := s.app.Lexicon.Lookup(kind, language)
	respond(w, http.StatusOK, map[string]any{
		"kind":     kind,
		"language": language,
		"source":   s.app.Lexicon.SourceOf(kind, language),
		"entries":  set.Words(),
		"count":    set.Len(),
		"timingMs": time.Since(start).Milliseconds(),
	})
}

func (s *apiServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	start := time.Now()
	respond(w, http.StatusOK, map[string]any{"status": "ok", "timingMs": time.Since(start).Milliseconds()})
}

func (s *apiServer) handleReadiness(w http.ResponseWriter, _ *http.Request) {
	start := time.Now()
	ready := s.ready.Load()

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}

	respond(w, status, map[string]any{
		"status":    map[bool]string{true: "ready", false: "unavailable"}[ready],
		"languages": s.app.Lexicon.Languages(lexicon.KindStopwords),
		"journal":   s.app.Journal != nil,
		"timingMs":  time.Since(start).Milliseconds(),
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("payload exceeds %d bytes", tooLarge.Limit)
		}
		return errors.New("invalid json payload")
	}
	return nil
}

func respond(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string, start time.Time) {
	respond(w, status, map[string]any{"error": message, "timingMs": time.Since(start).Milliseconds()})
}
