package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/edalab/copperview/pkg/drc"
	"github.com/edalab/copperview/pkg/errors"
	"github.com/edalab/copperview/pkg/geom"
	"github.com/edalab/copperview/pkg/pipeline"
	"github.com/edalab/copperview/pkg/report"
	"github.com/edalab/copperview/pkg/session"
	"github.com/edalab/copperview/pkg/tess"
)

// =============================================================================
// Response Types
// =============================================================================

type layerInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Function string `json:"function"`
	Copper   bool   `json:"copper"`
	Objects  int    `json:"objects"`
}

type statsInfo struct {
	Layers    int `json:"layers"`
	Objects   int `json:"objects"`
	Triangles int `json:"triangles"`
}

type boardResponse struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	BoardHash   string      `json:"board_hash,omitempty"`
	ClearanceMM float64     `json:"clearance_mm,omitempty"`
	Layers      []layerInfo `json:"layers,omitempty"`
	Stats       *statsInfo  `json:"stats,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	ExpiresAt   time.Time   `json:"expires_at"`
}

type objectInfo struct {
	ID        uint64     `json:"id"`
	Kind      string     `json:"kind"`
	Layer     int        `json:"layer"`
	Net       string     `json:"net,omitempty"`
	Component string     `json:"component,omitempty"`
	Pin       string     `json:"pin,omitempty"`
	Bounds    [4]float32 `json:"bounds"` // min x, min y, max x, max y
}

type violationInfo struct {
	ObjectA     uint64  `json:"object_a"`
	ObjectB     uint64  `json:"object_b"`
	LayerID     string  `json:"layer_id"`
	DistanceMM  float32 `json:"distance_mm"`
	ClearanceMM float32 `json:"clearance_mm"`
	X           float32 `json:"x"`
	Y           float32 `json:"y"`
}

type checkResponse struct {
	Violations    []violationInfo `json:"violations"`
	Total         int             `json:"total"`
	ByLayer       map[string]int  `json:"by_layer,omitempty"`
	MinDistanceMM float32         `json:"min_distance_mm,omitempty"`
	Cached        bool            `json:"cached"`
	DurationMS    int64           `json:"duration_ms"`
}

// checkRequest is the optional body of POST /boards/{id}/check.
type checkRequest struct {
	ClearanceMM float64  `json:"clearance_mm,omitempty"`
	Regions     bool     `json:"regions,omitempty"`
	ObjectIDs   []uint64 `json:"object_ids,omitempty"` // Targeted recheck when set
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleCreateBoard(w http.ResponseWriter, r *http.Request) {
	source, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBoardBytes))
	if err != nil {
		writeErrorCode(w, errors.ErrCodeInvalidInput, "request body too large or unreadable")
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		name = "board"
	}
	if err := errors.ValidateBoardName(name); err != nil {
		writeError(w, err)
		return
	}

	// Run load and tessellate once up front so a bad document fails the
	// upload rather than every later fetch.
	result, err := s.runner.Execute(r.Context(), pipeline.Options{Source: source, Name: name})
	if err != nil {
		writeError(w, err)
		return
	}

	sess := session.New(name, source, s.ttl)
	if err := s.sessions.Set(r.Context(), sess); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "store session"))
		return
	}

	writeJSON(w, http.StatusCreated, boardInfo(sess, result))
}

func (s *Server) handleGetBoard(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, boardInfo(sess, nil))
}

func (s *Server) handleDeleteBoard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.sessions.Delete(r.Context(), id); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "delete session"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetGeometry(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}

	opts := pipeline.Options{
		Source: sess.Source,
		Name:   sess.Name,
		Encode: true,
	}
	var err error
	if opts.Zoom, err = floatQuery(r, "zoom"); err != nil {
		writeError(w, err)
		return
	}
	if opts.PixelsPerMM, err = floatQuery(r, "pixels_per_mm"); err != nil {
		writeError(w, err)
		return
	}

	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("X-Board-Hash", result.BoardHash)
	w.Header().Set("X-Cache", cacheHeader(result.CacheInfo.BufferHit))
	_, _ = w.Write(result.Buffer)
}

func (s *Server) handleGetObjects(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}

	if !hasQuery(r, "x") || !hasQuery(r, "y") {
		writeErrorCode(w, errors.ErrCodeInvalidInput, "x and y query parameters are required")
		return
	}
	x, err := floatQuery(r, "x")
	if err != nil {
		writeError(w, err)
		return
	}
	y, err := floatQuery(r, "y")
	if err != nil {
		writeError(w, err)
		return
	}
	radius, err := floatQuery(r, "radius")
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := s.runner.Execute(r.Context(), pipeline.Options{Source: sess.Source, Name: sess.Name})
	if err != nil {
		writeError(w, err)
		return
	}

	p := geom.Vec2{X: float32(x), Y: float32(y)}
	var hits []*tess.ObjectRange
	if radius > 0 {
		hits = result.Index.Within(p, float32(radius))
	} else {
		hits = result.Index.At(p)
	}

	objects := make([]objectInfo, 0, len(hits))
	for _, obj := range hits {
		objects = append(objects, objectInfo{
			ID:        uint64(obj.ID),
			Kind:      obj.Kind.String(),
			Layer:     obj.ID.LayerIndex(),
			Net:       obj.Net,
			Component: obj.Component,
			Pin:       obj.Pin,
			Bounds:    [4]float32{obj.Bounds.MinX, obj.Bounds.MinY, obj.Bounds.MaxX, obj.Bounds.MaxY},
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"objects": objects})
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}

	var req checkRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErrorCode(w, errors.ErrCodeInvalidInput, "malformed check request body")
			return
		}
	}
	if req.ClearanceMM < 0 {
		writeErrorCode(w, errors.ErrCodeInvalidRules, "clearance_mm must not be negative")
		return
	}
	if req.ClearanceMM == 0 {
		req.ClearanceMM = sess.ClearanceMM
	}

	opts := pipeline.Options{
		Source:      sess.Source,
		Name:        sess.Name,
		ClearanceMM: req.ClearanceMM,
		Regions:     req.Regions,
		Check:       len(req.ObjectIDs) == 0,
	}

	start := time.Now()
	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		writeError(w, err)
		return
	}

	violations := result.Violations
	if len(req.ObjectIDs) > 0 {
		// Targeted recheck: scan only pairs touching the given objects.
		opts.SetCheckDefaults()
		checker := drc.NewChecker(result.Layers, result.Index, opts.Rules(), 0, s.logger)
		ids := make([]tess.ObjectID, len(req.ObjectIDs))
		for i, id := range req.ObjectIDs {
			ids[i] = tess.ObjectID(id)
		}
		violations = checker.RunTargeted(ids, &violations)
	}

	sum := report.Summarize(violations)
	resp := checkResponse{
		Violations:    violationList(violations),
		Total:         sum.Total,
		ByLayer:       sum.ByLayer,
		MinDistanceMM: sum.MinDistanceMM,
		Cached:        result.CacheInfo.CheckHit,
		DurationMS:    time.Since(start).Milliseconds(),
	}
	s.notifyCheck(sess, resp)
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// Helpers
// =============================================================================

// loadSession resolves the {id} route param, touches the session TTL, and
// writes the error response itself on failure.
func (s *Server) loadSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := chi.URLParam(r, "id")
	sess, err := s.sessions.Get(r.Context(), id)
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "load session"))
		return nil, false
	}
	if sess == nil {
		writeErrorCode(w, errors.ErrCodeSessionNotFound, "board session not found or expired")
		return nil, false
	}
	sess.Touch(s.ttl)
	_ = s.sessions.Set(r.Context(), sess)
	return sess, true
}

// notifyCheck posts the check outcome to the configured webhook. Failures
// are logged, never surfaced to the API caller.
func (s *Server) notifyCheck(sess *session.Session, resp checkResponse) {
	if s.notifier == nil {
		return
	}
	payload := map[string]any{
		"board_id":        sess.ID,
		"board_name":      sess.Name,
		"total":           resp.Total,
		"min_distance_mm": resp.MinDistanceMM,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.notifier.Notify(ctx, payload); err != nil {
			s.logger.Warn("check webhook failed", "board", sess.ID, "error", err)
		}
	}()
}

func boardInfo(sess *session.Session, result *pipeline.Result) boardResponse {
	resp := boardResponse{
		ID:          sess.ID,
		Name:        sess.Name,
		ClearanceMM: sess.ClearanceMM,
		CreatedAt:   sess.CreatedAt,
		ExpiresAt:   sess.ExpiresAt,
	}
	if result != nil {
		resp.BoardHash = result.BoardHash
		resp.Stats = &statsInfo{
			Layers:    result.Stats.LayerCount,
			Objects:   result.Stats.ObjectCount,
			Triangles: result.Stats.TriangleCount,
		}
		for _, lg := range result.Layers {
			resp.Layers = append(resp.Layers, layerInfo{
				ID:       lg.ID,
				Name:     lg.Name,
				Function: lg.Function,
				Copper:   lg.IsCopper(),
				Objects:  len(lg.Objects),
			})
		}
	}
	return resp
}

func violationList(violations []drc.Violation) []violationInfo {
	out := make([]violationInfo, len(violations))
	for i, v := range violations {
		out[i] = violationInfo{
			ObjectA:     uint64(v.ObjectA),
			ObjectB:     uint64(v.ObjectB),
			LayerID:     v.LayerID,
			DistanceMM:  v.DistanceMM,
			ClearanceMM: v.ClearanceMM,
			X:           v.Point.X,
			Y:           v.Point.Y,
		}
	}
	return out
}

func cacheHeader(hit bool) string {
	if hit {
		return "HIT"
	}
	return "MISS"
}

func hasQuery(r *http.Request, key string) bool {
	return r.URL.Query().Has(key)
}

func floatQuery(r *http.Request, key string) (float64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidInput, "%s must be a number", key)
	}
	return v, nil
}
