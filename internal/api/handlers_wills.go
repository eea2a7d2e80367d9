package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dgallion1/fennec/internal/account"
	"github.com/dgallion1/fennec/internal/auth"
	"github.com/dgallion1/fennec/internal/will"
	"github.com/go-chi/chi/v5"
)

// readWill reads and validates a will body. On failure the response has
// been written and ok is false.
func (s *Server) readWill(w http.ResponseWriter, r *http.Request) (content *will.WillContent, ok bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxWillBodyBytes)
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit), http.StatusRequestEntityTooLarge)
			return nil, false
		}
		jsonError(w, "failed to read request body", http.StatusBadRequest)
		return nil, false
	}

	content, err = s.deps.Validator.Validate(raw)
	if err != nil {
		var ve *will.ValidationError
		if errors.As(err, &ve) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"detail": "Validation error",
				"errors": ve.Errors,
			})
			return nil, false
		}
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return nil, false
	}
	return content, true
}

func (s *Server) handleValidateWill(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.readWill(w, r); !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"valid": true})
}

func (s *Server) handleSubmitWill(w http.ResponseWriter, r *http.Request) {
	email, ok := auth.EmailFrom(r.Context())
	if !ok {
		jsonError(w, "Not authenticated", http.StatusUnauthorized)
		return
	}
	content, ok := s.readWill(w, r)
	if !ok {
		return
	}

	stored, err := s.deps.Wills.SubmitWill(r.Context(), email, content)
	if err != nil {
		s.log.Error("submit will failed", "error", err)
		if errors.Is(err, account.ErrIdentity) {
			jsonError(w, "identity service unavailable", http.StatusBadGateway)
			return
		}
		jsonError(w, "Internal server error processing will", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success":   true,
		"will_id":   stored.ID,
		"message":   "Will received successfully",
		"timestamp": s.now().UTC(),
	})
}

func (s *Server) handleGetWill(w http.ResponseWriter, r *http.Request) {
	email, ok := auth.EmailFrom(r.Context())
	if !ok {
		jsonError(w, "Not authenticated", http.StatusUnauthorized)
		return
	}
	id := chi.URLParam(r, "willID")
	stored, err := s.deps.Wills.GetWill(r.Context(), email, id)
	if err != nil {
		s.log.Error("get will failed", "will_id", id, "error", err)
		jsonError(w, "failed to load will", http.StatusInternalServerError)
		return
	}
	if stored == nil {
		jsonError(w, "will not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}
