package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ytsummarizer/internal/domain"
	"ytsummarizer/internal/pipeline"
	"ytsummarizer/internal/youtube"
)

const maxRequestBodyBytes = 64 << 10

type pageData struct {
	URL          string
	ThumbnailURL string
	Title        string
	Summary      string
	Error        string
	History      []domain.SummaryRecord
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data := pageData{
		URL: strings.TrimSpace(r.URL.Query().Get("url")),
	}
	status := http.StatusOK

	if data.URL != "" {
		result, err := s.summarizer.Run(ctx, data.URL)
		if result != nil {
			data.ThumbnailURL = result.ThumbnailURL
			data.Title = result.Title
			data.Summary = result.Summary
		}
		if err != nil {
			data.Error = pipeline.Describe(err)
			status = statusFor(err)
		}
	}

	data.History = s.recentSummaries(ctx, s.historyLimit)

	var buf bytes.Buffer
	if err := s.page.ExecuteTemplate(&buf, "index.html", data); err != nil {
		s.log.ErrorContext(ctx, "Failed to render page",
			"error", err,
			"url", data.URL)
		http.Error(w, "could not render page", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	Message(w, http.StatusOK, "ok")
}

type createSummaryRequest struct {
	URL string `json:"url"`
}

type summaryResponse struct {
	VideoID      string    `json:"video_id"`
	URL          string    `json:"url"`
	ThumbnailURL string    `json:"thumbnail_url"`
	Title        string    `json:"title"`
	Summary      string    `json:"summary"`
	Checkpoint   string    `json:"checkpoint"`
	CreatedAt    time.Time `json:"created_at"`
}

func (s *Server) handleCreateSummary(w http.ResponseWriter, r *http.Request) {
	var req createSummaryRequest

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		Error(w, http.StatusBadRequest, "url is required", errors.New("empty url"))
		return
	}

	result, err := s.summarizer.Run(r.Context(), req.URL)
	if err != nil {
		JSON(w, statusFor(err), errorResponse{
			Message: pipeline.Describe(err),
			Error:   err.Error(),
			Kind:    domain.KindOf(err).String(),
		})

		return
	}

	JSON(w, http.StatusOK, summaryResponse{
		VideoID:      string(result.VideoID),
		URL:          result.URL,
		ThumbnailURL: result.ThumbnailURL,
		Title:        result.Title,
		Summary:      result.Summary,
		Checkpoint:   result.Checkpoint,
		CreatedAt:    result.CreatedAt,
	})
}

func (s *Server) handleListSummaries(w http.ResponseWriter, r *http.Request) {
	limit := s.historyLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > maxHistoryLimit {
			Error(w, http.StatusBadRequest, "invalid limit",
				fmt.Errorf("limit must be an integer between 0 and %d, got %q", maxHistoryLimit, raw))

			return
		}
		limit = n
	}

	if s.history == nil {
		JSON(w, http.StatusOK, []summaryResponse{})
		return
	}

	records, err := s.history.RecentSummaries(r.Context(), limit)
	if err != nil {
		s.log.ErrorContext(r.Context(), "Failed to list summaries",
			"error", err,
			"limit", limit)
		Error(w, http.StatusInternalServerError, "could not list summaries", err)

		return
	}

	resp := make([]summaryResponse, 0, len(records))
	for _, rec := range records {
		resp = append(resp, summaryResponse{
			VideoID:      string(rec.VideoID),
			URL:          rec.URL,
			ThumbnailURL: youtube.ThumbnailURL(rec.VideoID),
			Title:        rec.Title,
			Summary:      rec.Summary,
			Checkpoint:   rec.Checkpoint,
			CreatedAt:    rec.CreatedAt,
		})
	}

	JSON(w, http.StatusOK, resp)
}

func (s *Server) recentSummaries(ctx context.Context, limit int) []domain.SummaryRecord {
	if s.history == nil || limit == 0 {
		return nil
	}

	records, err := s.history.RecentSummaries(ctx, limit)
	if err != nil {
		s.log.WarnContext(ctx, "Failed to load history for page",
			"error", err,
			"limit", limit)

		return nil
	}

	return records
}
