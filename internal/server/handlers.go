package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/Kumkum-Mishra/CleanForge/internal/dataset"
	"github.com/Kumkum-Mishra/CleanForge/internal/scoring"
)

// UploadResponse summarises an uploaded file without analysing it.
type UploadResponse struct {
	Filename    string   `json:"filename"`
	Rows        int      `json:"rows"`
	Columns     int      `json:"columns"`
	ColumnNames []string `json:"column_names"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "CleanForge Backend Running"})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	ds, name, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, UploadResponse{
		Filename:    name,
		Rows:        ds.Rows(),
		Columns:     ds.Width(),
		ColumnNames: ds.Names(),
	})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	ds, _, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	rep, err := s.runner.Profile(ds)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleSemantic(w http.ResponseWriter, r *http.Request) {
	ds, _, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, s.runner.Semantic(r.Context(), ds))
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	ds, _, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	rep, err := s.runner.Analyze(r.Context(), ds)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleClean(w http.ResponseWriter, r *http.Request) {
	ds, _, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	rep, err := s.runner.Clean(ds)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rep)
}

// readUpload parses the "file" form field. On failure it has already
// written the response.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*dataset.Dataset, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.errorResponse(w, http.StatusRequestEntityTooLarge, "file_too_large",
				fmt.Sprintf("upload exceeds %d bytes", s.cfg.MaxUploadBytes))
			return nil, "", false
		}
		s.errorResponse(w, http.StatusBadRequest, "invalid_form", err.Error())
		return nil, "", false
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "missing_file", `multipart field "file" is required`)
		return nil, "", false
	}
	defer f.Close()
	ds, err := dataset.ReadCSV(f, s.cfg.ReadOptions)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid_csv", err.Error())
		return nil, "", false
	}
	return ds, hdr.Filename, true
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, scoring.ErrInvalidInput), errors.Is(err, dataset.ErrEmptyInput):
		s.errorResponse(w, http.StatusBadRequest, "invalid_input", err.Error())
	default:
		s.logger.Error("request failed", zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) errorResponse(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, map[string]string{"error": code, "message": message})
}
