package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/dgallion1/fennec/internal/parser"
	"github.com/dgallion1/fennec/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	maxSearchK    = 50
	formOverhead  = 1 << 20
	formMemoryMax = 32 << 20
)

// httpError carries the status a helper wants the handler to answer with.
type httpError struct {
	status int
	msg    string
}

func (e *httpError) Error() string { return e.msg }

func fail(w http.ResponseWriter, err error) {
	var he *httpError
	if errors.As(err, &he) {
		jsonError(w, he.msg, he.status)
		return
	}
	jsonError(w, err.Error(), http.StatusInternalServerError)
}

func (s *Server) searchK(r *http.Request) (int, error) {
	v := r.URL.Query().Get("k")
	if v == "" {
		return s.cfg.SearchK, nil
	}
	k, err := strconv.Atoi(v)
	if err != nil || k < 1 || k > maxSearchK {
		return 0, &httpError{http.StatusBadRequest, fmt.Sprintf("k must be between 1 and %d", maxSearchK)}
	}
	return k, nil
}

func (s *Server) handleManualSearch(w http.ResponseWriter, r *http.Request) {
	if s.deps.Searcher == nil {
		jsonError(w, "search unavailable", http.StatusServiceUnavailable)
		return
	}
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		jsonError(w, "q query parameter is required", http.StatusBadRequest)
		return
	}
	k, err := s.searchK(r)
	if err != nil {
		fail(w, err)
		return
	}

	results, err := s.deps.Searcher.Search(r.Context(), q, k, r.URL.Query().Get("jurisdiction"))
	if err != nil {
		s.log.Error("manual search failed", "error", err)
		jsonError(w, "search failed", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"query": q, "results": results})
}

// readUpload pulls the "file" part out of a multipart request and checks its
// extension and size.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	limit := s.cfg.MaxUploadBytes
	r.Body = http.MaxBytesReader(w, r.Body, limit+formOverhead)
	if err := r.ParseMultipartForm(formMemoryMax); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return "", nil, &httpError{http.StatusRequestEntityTooLarge, "request body too large"}
		}
		return "", nil, &httpError{http.StatusBadRequest, "invalid multipart form: " + err.Error()}
	}
	defer r.MultipartForm.RemoveAll()

	f, hdr, err := r.FormFile("file")
	if err != nil {
		return "", nil, &httpError{http.StatusBadRequest, "file is required"}
	}
	defer f.Close()

	name := sanitizeFilename(hdr.Filename)
	if !parser.IsSupportedExtension(name) {
		return "", nil, &httpError{http.StatusBadRequest, "unsupported file type: " + path.Ext(name)}
	}
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return "", nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return "", nil, &httpError{http.StatusRequestEntityTooLarge, fmt.Sprintf("file exceeds max size (%d bytes)", limit)}
	}
	return name, data, nil
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if s.deps.Orchestrator == nil {
		jsonError(w, "ingestion unavailable", http.StatusServiceUnavailable)
		return
	}
	name, data, err := s.readUpload(w, r)
	if err != nil {
		fail(w, err)
		return
	}

	job := pipeline.NewJob(uuid.NewString(), name, data)
	if err := s.deps.Orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":       job.ID,
		"status":       pipeline.StatusQueued,
		"content_hash": job.ContentHash,
		"poll_url":     "/api/v1/manual/ingest/" + job.ID + "/status",
	})
}

func (s *Server) handleIngestStatus(w http.ResponseWriter, r *http.Request) {
	if s.deps.Orchestrator == nil {
		jsonError(w, "ingestion unavailable", http.StatusServiceUnavailable)
		return
	}
	job := s.deps.Orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

// sanitizeFilename keeps the base name of a client-supplied path, whichever
// separator the client used.
func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	switch name {
	case "", ".", "/":
		return "unnamed"
	}
	return name
}
