package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/kalambet/careervibe/internal/persona"
)

const maxResumeSize = 10 << 20 // 10MB

// handleResume merges the persona inferred from an uploaded résumé into the
// persona sent alongside it. The résumé is a PDF, or plain text when the
// file name ends in .txt.
func handleResume(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Generator == nil {
			httpError(w, http.StatusServiceUnavailable, "api_error", "resume analysis is not configured")
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxResumeSize)
		if err := r.ParseMultipartForm(maxResumeSize); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid multipart body: %v", err)
			return
		}

		var current persona.Persona
		if raw := r.FormValue("persona"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &current); err != nil {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid persona: %v", err)
				return
			}
		}

		f, hdr, err := r.FormFile("resume")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "resume file is required")
			return
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "reading resume: %v", err)
			return
		}

		text := string(data)
		if !strings.EqualFold(filepath.Ext(hdr.Filename), ".txt") {
			text, err = persona.ExtractText(data)
			if err != nil {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "could not read resume: %v", err)
				return
			}
		}

		delta, err := persona.ImportResume(r.Context(), deps.Generator, text)
		if errors.Is(err, persona.ErrEmptyResume) {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "resume contains no text")
			return
		}
		if err != nil {
			httpError(w, http.StatusBadGateway, "api_error", "resume analysis failed: %v", err)
			return
		}

		writeJSON(w, http.StatusOK, persona.Merge(current, delta))
	}
}
