package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/search"
)

const (
	siteName         = "Story Explorer"
	defaultFeedLimit = 15
	maxFeedLimit     = 100
)

// Catalog is the read surface the API needs from the catalog provider
type Catalog interface {
	FetchCatalog(ctx context.Context, limit int) domain.Snapshot
	FindByID(ctx context.Context, id string) (domain.Story, error)
	Neighbor(ctx context.Context, id string, dir domain.Direction) (string, error)
	Position(ctx context.Context, id string) (int, int, bool)
}

type Deps struct {
	Catalog   Catalog
	FeedLimit int // Default feed size when ?limit is absent
	Logger    *slog.Logger
}

// StoryJSON is the wire form of a story
type StoryJSON struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	ImageURL        string `json:"imageUrl"`
	PreviewImageURL string `json:"previewImageUrl"`
	AltText         string `json:"alt"`
	Hint            string `json:"dataAiHint,omitempty"`
	Author          string `json:"author,omitempty"`
	Width           int    `json:"width,omitempty"`
	Height          int    `json:"height,omitempty"`
	SourceURL       string `json:"sourceUrl,omitempty"`
}

// PageMeta is the metadata of a story page
type PageMeta struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type FeedResponse struct {
	Stories []StoryJSON `json:"stories"`
	Count   int         `json:"count"`
}

type StoryResponse struct {
	Story StoryJSON `json:"story"`
	Meta  PageMeta  `json:"meta"`
}

type NeighborResponse struct {
	ID        string `json:"id"`
	Direction string `json:"direction"`
}

type PositionResponse struct {
	Index int    `json:"index"`
	Total int    `json:"total"`
	Label string `json:"label"` // "i / N", one-based
}

// NewHandler returns the read-only story API
func NewHandler(deps Deps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.FeedLimit <= 0 {
		deps.FeedLimit = defaultFeedLimit
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(deps.Logger))

	r.Get("/healthz", handleHealth)
	r.Route("/api/stories", func(r chi.Router) {
		r.Get("/", handleFeed(deps))
		r.Get("/{id}", handleStory(deps))
		r.Get("/{id}/next", handleNeighbor(deps, domain.Forward))
		r.Get("/{id}/prev", handleNeighbor(deps, domain.Backward))
		r.Get("/{id}/position", handlePosition(deps))
	})

	return r
}

// RequestLogger logs one line per request at debug level
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start))
		})
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func handleFeed(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", deps.FeedLimit, maxFeedLimit)
		snap := deps.Catalog.FetchCatalog(r.Context(), limit)

		stories := snap.Stories()
		if q := r.URL.Query().Get("q"); q != "" {
			stories = search.Rank(q, stories)
		}

		resp := FeedResponse{Stories: make([]StoryJSON, len(stories)), Count: len(stories)}
		for i, s := range stories {
			resp.Stories[i] = NewStoryJSON(s)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleStory(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		story, err := deps.Catalog.FindByID(r.Context(), id)
		if errors.Is(err, domain.ErrStoryNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "Story Not Found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get story: %v", err)
			return
		}

		writeJSON(w, http.StatusOK, StoryResponse{Story: NewStoryJSON(story), Meta: pageMeta(story)})
	}
}

func handleNeighbor(deps Deps, dir domain.Direction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		next, err := deps.Catalog.Neighbor(r.Context(), id, dir)
		if errors.Is(err, domain.ErrStoryNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "story %q not found", id)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to resolve neighbor: %v", err)
			return
		}

		writeJSON(w, http.StatusOK, NeighborResponse{ID: next, Direction: dir.String()})
	}
}

func handlePosition(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		i, n, ok := deps.Catalog.Position(r.Context(), id)
		if !ok {
			httpError(w, http.StatusNotFound, "not_found", "story %q not found", id)
			return
		}

		writeJSON(w, http.StatusOK, PositionResponse{
			Index: i,
			Total: n,
			Label: fmt.Sprintf("%d / %d", i+1, n),
		})
	}
}

// NewStoryJSON converts a story to its wire form
func NewStoryJSON(s domain.Story) StoryJSON {
	return StoryJSON{
		ID:              s.ID,
		Title:           s.Title,
		ImageURL:        s.ImageURL,
		PreviewImageURL: s.PreviewImageURL,
		AltText:         s.AltText,
		Hint:            s.Hint,
		Author:          s.Author,
		Width:           s.Width,
		Height:          s.Height,
		SourceURL:       s.SourceURL,
	}
}

func pageMeta(s domain.Story) PageMeta {
	return PageMeta{
		Title:       fmt.Sprintf("%s | %s", s.Title, siteName),
		Description: "View the story: " + s.AltText,
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
