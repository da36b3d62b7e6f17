package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/umputun/skyfeed/pkg/domain"
	"github.com/umputun/skyfeed/pkg/feed"
	"github.com/umputun/skyfeed/pkg/metrics"
	"github.com/umputun/skyfeed/pkg/repository"
)

const (
	// messages shown to clients, upstream details stay in the server log
	msgNotReady  = "feed is not ready yet, try again later"
	msgNotFound  = "snapshot not found"
	msgInvalidID = "invalid snapshot id"

	defaultSnapshotsLimit = 10
)

// feedHandler serves the latest feed document. Without a stored snapshot it runs the
// pipeline on demand, at most once per LiveMinInterval.
func (s *Server) feedHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	w.Header().Set("Access-Control-Allow-Origin", "*")

	snap, err := s.snapshots.Latest(ctx)
	if err == nil {
		metrics.IncFeedRequest("snapshot")
		s.renderDocument(w, r, snap.Document)
		return
	}
	if !errors.Is(err, repository.ErrNotFound) {
		lgr.Printf("[WARN] can't load latest snapshot: %v", err)
	}

	if !s.live.Allow() {
		metrics.IncFeedRequest("limited")
		w.Header().Set("Retry-After", strconv.Itoa(int(s.cfg.LiveMinInterval.Seconds())))
		renderErrorDocument(w, r, http.StatusServiceUnavailable, msgNotReady)
		return
	}

	snap, err = s.refresher.RefreshNow(ctx)
	if err != nil {
		lgr.Printf("[ERROR] on-demand feed run failed: %v", err)
		metrics.IncFeedRequest("error")
		renderErrorDocument(w, r, http.StatusBadGateway, feed.PublicMessage(err))
		return
	}
	metrics.IncFeedRequest("live")
	s.renderDocument(w, r, snap.Document)
}

// rssHandler serves the latest snapshot as RSS 2.0
func (s *Server) rssHandler(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshots.Latest(r.Context())
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			lgr.Printf("[WARN] can't load latest snapshot for rss: %v", err)
		}
		w.Header().Set("Cache-Control", "no-store")
		http.Error(w, msgNotReady, http.StatusServiceUnavailable)
		return
	}

	rss, err := s.rss.GenerateRSS(snap.Document)
	if err != nil {
		lgr.Printf("[ERROR] failed to generate RSS feed: %v", err)
		w.Header().Set("Cache-Control", "no-store")
		http.Error(w, "failed to generate RSS feed", http.StatusInternalServerError)
		return
	}

	metrics.IncFeedRequest("rss")
	s.setCacheHeaders(w, snap.Document)
	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	if _, err := w.Write([]byte(rss)); err != nil {
		lgr.Printf("[WARN] failed to write RSS response: %v", err)
	}
}

// statusHandler returns server status with the last pipeline run
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status":  "ok",
		"version": s.version,
		"time":    time.Now().UTC(),
		"lastRun": s.refresher.LastStatus(),
	}
	if snap, err := s.snapshots.Latest(r.Context()); err == nil {
		status["snapshot"] = snapshotInfoOf(*snap)
	}
	renderJSON(w, r, http.StatusOK, status)
}

// snapshotInfo is a snapshot without its document
type snapshotInfo struct {
	ID          int64     `json:"id"`
	RunID       string    `json:"runId"`
	GeneratedAt time.Time `json:"generatedAt"`
	TotalPosts  int       `json:"totalPosts"`
	CreatedAt   time.Time `json:"createdAt"`
}

func snapshotInfoOf(snap domain.Snapshot) snapshotInfo {
	return snapshotInfo{
		ID:          snap.ID,
		RunID:       snap.RunID,
		GeneratedAt: snap.Document.GeneratedAt,
		TotalPosts:  snap.Document.TotalPosts,
		CreatedAt:   snap.CreatedAt,
	}
}

// snapshotsHandler lists the snapshot history, newest first
func (s *Server) snapshotsHandler(w http.ResponseWriter, r *http.Request) {
	limit := defaultSnapshotsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	snaps, err := s.snapshots.List(r.Context(), limit)
	if err != nil {
		lgr.Printf("[ERROR] failed to list snapshots: %v", err)
		renderErrorDocument(w, r, http.StatusInternalServerError, feed.MsgUnavailable)
		return
	}
	res := make([]snapshotInfo, 0, len(snaps))
	for _, snap := range snaps {
		res = append(res, snapshotInfoOf(snap))
	}
	renderJSON(w, r, http.StatusOK, res)
}

// snapshotHandler returns the document of a stored snapshot
func (s *Server) snapshotHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		renderErrorDocument(w, r, http.StatusBadRequest, msgInvalidID)
		return
	}

	snap, err := s.snapshots.Get(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		renderErrorDocument(w, r, http.StatusNotFound, msgNotFound)
		return
	}
	if err != nil {
		lgr.Printf("[ERROR] failed to get snapshot %d: %v", id, err)
		renderErrorDocument(w, r, http.StatusInternalServerError, feed.MsgUnavailable)
		return
	}
	renderJSON(w, r, http.StatusOK, snap.Document)
}

// renderDocument sends the feed document with shared caching headers
func (s *Server) renderDocument(w http.ResponseWriter, r *http.Request, doc domain.FeedDocument) {
	if doc.Posts == nil {
		doc.Posts = []domain.NormalizedPost{}
	}
	s.setCacheHeaders(w, doc)
	renderJSON(w, r, http.StatusOK, doc)
}

func (s *Server) setCacheHeaders(w http.ResponseWriter, doc domain.FeedDocument) {
	age := int(s.cfg.CacheMaxAge.Seconds())
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d, s-maxage=%d", age, age))
	if !doc.GeneratedAt.IsZero() {
		w.Header().Set("Last-Modified", doc.GeneratedAt.UTC().Format(http.TimeFormat))
	}
}

// renderJSON sends JSON response
func renderJSON(w http.ResponseWriter, _ *http.Request, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			lgr.Printf("[ERROR] can't encode response to JSON: %v", err)
		}
	}
}

// renderErrorDocument sends an uncacheable error document with a client-facing message
func renderErrorDocument(w http.ResponseWriter, r *http.Request, code int, msg string) {
	w.Header().Set("Cache-Control", "no-store")
	renderJSON(w, r, code, domain.NewErrorDocument(msg))
}
