package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/gradlayer/pkg/errors"
	"github.com/matzehuels/gradlayer/pkg/graph"
	"github.com/matzehuels/gradlayer/pkg/pipeline"
)

// LayoutRequest is the body of a layout POST.
type LayoutRequest struct {
	// Options override the server defaults field by field.
	Options json.RawMessage `json:"options,omitempty"`
	// Input is the tree document or single-document acyclic graph.
	Input json.RawMessage `json:"input"`
}

// LayoutResponse is returned for a computed layout.
type LayoutResponse struct {
	ID        string            `json:"id"`
	InputHash string            `json:"input_hash"`
	Cached    bool              `json:"cached"`
	Stats     pipeline.Stats    `json:"stats"`
	Layout    graph.Layout      `json:"layout"`
	Artifacts map[string][]byte `json:"artifacts,omitempty"` // Base64 in JSON
}

// ListResponse is returned by the list route.
type ListResponse struct {
	IDs []string `json:"ids"`
}

const defaultListLimit = 100

var contentTypes = map[string]string{
	pipeline.FormatJSON: "application/json",
	pipeline.FormatDOT:  "text/vnd.graphviz; charset=utf-8",
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPNG:  "image/png",
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	variant := chi.URLParam(r, "variant")

	var req LayoutRequest
	body := http.MaxBytesReader(w, r.Body, s.bodyLimit)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request"))
		return
	}
	if len(req.Input) == 0 {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "request has no input"))
		return
	}

	opts, err := s.options(req.Options, variant)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	in, err := pipeline.Decode(ctx, variant, bytes.NewReader(req.Input), opts)
	if err != nil {
		s.writeError(w, r, asInputError(err))
		return
	}
	result, err := s.runner.Execute(ctx, in, opts)
	if err != nil {
		s.writeError(w, r, asInputError(err))
		return
	}
	if err := s.store.Put(ctx, result.Layout); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info("layout created", "id", result.Layout.ID, "variant", variant, "cached", result.CacheInfo.LayoutHit)
	writeJSON(w, http.StatusCreated, LayoutResponse{
		ID:        result.Layout.ID,
		InputHash: result.InputHash,
		Cached:    result.CacheInfo.LayoutHit,
		Stats:     result.Stats,
		Layout:    result.Layout,
		Artifacts: result.Artifacts,
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "limit must be a non-negative integer"))
			return
		}
		limit = n
	}
	ids, err := s.store.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, ListResponse{IDs: ids})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	l, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	format := chi.URLParam(r, "format")

	l, err := s.store.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	opts := s.defaults
	opts.Variant = l.Variant
	opts.Formats = []string{format}
	artifacts, err := s.runner.Render(ctx, l, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentTypes[format])
	w.WriteHeader(http.StatusOK)
	w.Write(artifacts[format])
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// options decodes request options over the server defaults. Fields absent
// from the request keep their default values.
func (s *Server) options(raw json.RawMessage, variant string) (pipeline.Options, error) {
	opts := s.defaults
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &opts); err != nil {
			return pipeline.Options{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode options")
		}
	}
	if opts.Variant != "" && opts.Variant != variant {
		return pipeline.Options{}, errors.New(errors.ErrCodeInvalidConfig, "options variant %q does not match route %q", opts.Variant, variant)
	}
	opts.Variant = variant
	opts.Logger = s.logger
	return opts, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
