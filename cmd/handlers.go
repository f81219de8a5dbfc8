package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	sc "ngramcorrector/internal/corrector"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "corrector_http_requests_total",
		Help: "HTTP requests by route and status code",
	}, []string{"route", "code"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "corrector_http_request_duration_seconds",
		Help:    "HTTP request duration by route",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"route"})
)

type service interface {
	Correct(ctx context.Context, text string) (sc.Result, error)
	Suggest(ctx context.Context, text string) ([]sc.Suggestion, error)
	Alternatives(word string) []string
	AddCustomWord(ctx context.Context, word string) error
	RemoveCustomWord(ctx context.Context, word string) error
}

func newMux(svc service, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("/api/v1/correct", instrument("correct", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		text, ok := decodeText(w, r)
		if !ok {
			return
		}
		res, err := svc.Correct(r.Context(), text)
		if err != nil {
			logger.Error("correct failed", slog.Any("error", err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		if res.Applied == nil {
			res.Applied = []sc.Applied{}
		}
		writeJSON(w, http.StatusOK, res)
	}))

	mux.Handle("/api/v1/suggest", instrument("suggest", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		text, ok := decodeText(w, r)
		if !ok {
			return
		}
		sugs, err := svc.Suggest(r.Context(), text)
		if err != nil {
			logger.Error("suggest failed", slog.Any("error", err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		if sugs == nil {
			sugs = []sc.Suggestion{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"suggestions": sugs})
	}))

	mux.Handle("/api/v1/alternatives/", instrument("alternatives", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.NotFound(w, r)
			return
		}
		word := strings.TrimPrefix(r.URL.Path, "/api/v1/alternatives/")
		if word == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "word is required"})
			return
		}
		alts := svc.Alternatives(word)
		if alts == nil {
			alts = []string{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"word": word, "alternatives": alts})
	}))

	mux.Handle("/api/v1/custom-word", instrument("custom-word", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Word string `json:"word"`
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Word) == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request"})
			return
		}
		if err := svc.AddCustomWord(r.Context(), req.Word); err != nil {
			logger.Error("add custom word failed", slog.String("word", req.Word), slog.Any("error", err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"status": "ok"})
	}))

	mux.Handle("/api/v1/custom-word/", instrument("custom-word", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			http.NotFound(w, r)
			return
		}
		word := strings.TrimPrefix(r.URL.Path, "/api/v1/custom-word/")
		if word == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "word is required"})
			return
		}
		if err := svc.RemoveCustomWord(r.Context(), word); err != nil {
			logger.Error("remove custom word failed", slog.String("word", word), slog.Any("error", err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}))

	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// decodeText reads {"text": ...}. Empty text is a valid, empty document.
func decodeText(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req struct {
		Text string `json:"text"`
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request"})
		return "", false
	}
	return req.Text, true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (s *statusWriter) WriteHeader(code int) {
	s.code = code
	s.ResponseWriter.WriteHeader(code)
}

func instrument(route string, h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		h(sw, r)
		httpRequests.WithLabelValues(route, strconv.Itoa(sw.code)).Inc()
		httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
