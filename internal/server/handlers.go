package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cleared-dev/backoffice/internal/buildinfo"
	"github.com/cleared-dev/backoffice/internal/catalog"
	"github.com/cleared-dev/backoffice/internal/exporter"
	"github.com/cleared-dev/backoffice/internal/id"
	"github.com/cleared-dev/backoffice/internal/importer"
	"github.com/cleared-dev/backoffice/internal/logging"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ErrorResponse is the JSON body of failed API calls.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.String()})
}

func (s *Server) handleEntities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"entities": s.registry.Names()})
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	schema, ok := s.schema(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "bad_request", fmt.Errorf("reading upload: %w", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, "missing_file", errors.New(`multipart field "file" is required`))
		return
	}
	defer file.Close()
	dryRun, _ := strconv.ParseBool(r.FormValue("dry_run"))

	if !s.acquire(schema.Name) {
		s.respondError(w, r, http.StatusConflict, "import_in_progress",
			fmt.Errorf("an import of %s is already running", schema.Name))
		return
	}
	defer s.release(schema.Name)

	log := s.log.With().Str("request_id", middleware.GetReqID(r.Context())).Logger()
	ctx := logging.WithContext(r.Context(), log)
	name := filepath.Base(header.Filename)

	var sum *importer.Summary
	if dryRun {
		sum, err = s.importer.ValidateFile(ctx, schema, file, name)
	} else {
		sum, err = s.importer.ImportFile(ctx, schema, file, name)
	}
	if err != nil {
		switch {
		case errors.Is(err, importer.ErrSheetNotFound),
			errors.Is(err, importer.ErrNoRecords),
			errors.Is(err, importer.ErrUnsupportedFormat):
			s.respondError(w, r, http.StatusUnprocessableEntity, "invalid_file", err)
		default:
			s.respondError(w, r, http.StatusInternalServerError, "import_failed", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	schema, ok := s.schema(w, r)
	if !ok {
		return
	}

	ref, err := s.reference.ReferenceData(r.Context())
	if err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "export_failed", err)
		return
	}
	params := r.URL.Query()
	q, err := exporter.Filter{
		From:    params.Get("from"),
		To:      params.Get("to"),
		Account: params.Get("account"),
		Tag:     params.Get("tag"),
		User:    params.Get("user"),
		Batch:   params.Get("batch"),
	}.Resolve(ref)
	if err != nil {
		var nf *catalog.NotFoundError
		if errors.As(err, &nf) {
			s.respondError(w, r, http.StatusNotFound, "unknown_"+nf.Kind, err)
			return
		}
		s.respondError(w, r, http.StatusBadRequest, "bad_filter", err)
		return
	}

	format := strings.ToLower(params.Get("format"))
	switch format {
	case "":
		format = exporter.FormatXLSX
	case exporter.FormatXLSX, exporter.FormatCSV:
	default:
		s.respondError(w, r, http.StatusBadRequest, "bad_format",
			fmt.Errorf("%w: %q", importer.ErrUnsupportedFormat, format))
		return
	}
	fileName := id.ExportFileName(schema.Name, time.Now(), format)
	setDownloadHeaders(w, fileName, format)
	if _, err := s.exporter.Write(r.Context(), w, schema, q, format); err != nil {
		// Headers are sent only on the first body write, so an error here
		// can still become a JSON response.
		w.Header().Del("Content-Disposition")
		s.respondError(w, r, http.StatusInternalServerError, "export_failed", err)
	}
}

func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	schema, ok := s.schema(w, r)
	if !ok {
		return
	}
	setDownloadHeaders(w, id.TemplateFileName(schema.Name), exporter.FormatXLSX)
	if err := exporter.Template(w, schema, exporter.FormatXLSX); err != nil {
		w.Header().Del("Content-Disposition")
		s.respondError(w, r, http.StatusInternalServerError, "template_failed", err)
	}
}

func (s *Server) schema(w http.ResponseWriter, r *http.Request) (importer.Schema, bool) {
	entity := chi.URLParam(r, "entity")
	schema, ok := s.registry.Get(entity)
	if !ok {
		s.respondError(w, r, http.StatusNotFound, "unknown_entity", fmt.Errorf("unknown entity %q", entity))
	}
	return schema, ok
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, status int, code string, err error) {
	ev := s.log.Warn()
	if status >= http.StatusInternalServerError {
		ev = s.log.Error()
	}
	ev.Err(err).
		Str("path", r.URL.Path).
		Int("status", status).
		Str("code", code).
		Str("request_id", middleware.GetReqID(r.Context())).
		Msg("request error")

	writeJSON(w, status, ErrorResponse{Error: err.Error(), Code: code})
}

func setDownloadHeaders(w http.ResponseWriter, fileName, format string) {
	ct := xlsxContentType
	if format == exporter.FormatCSV {
		ct = "text/csv; charset=utf-8"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
