package web

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/JonMunkholm/gtfsload/internal/feed"
	"github.com/JonMunkholm/gtfsload/internal/gtfs"
	"github.com/JonMunkholm/gtfsload/internal/logging"
	"github.com/JonMunkholm/gtfsload/internal/service"
	"github.com/JonMunkholm/gtfsload/internal/store"
	"github.com/JonMunkholm/gtfsload/internal/web/templates"
)

const (
	defaultRunLimit   = 20
	defaultErrorLimit = 500
	multipartMemory   = 32 << 20
)

// ValidateResponse is the body of POST /api/validate.
type ValidateResponse struct {
	*feed.Report
	Valid bool              `json:"valid"`
	Rows  int64             `json:"rows"`
	Fatal *feed.UserMessage `json:"fatal,omitempty"`
}

// handleValidate validates a feed. The archive is either the raw request
// body, a multipart "file" field, or an s3:// object named by the location
// query parameter.
//
// A completed validation answers 200 whether or not the feed is valid. A load
// that stopped on a fatal error answers 422 with the partial report.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		report *feed.Report
		err    error
	)
	if location := r.URL.Query().Get("location"); location != "" {
		if !strings.HasPrefix(location, "s3://") {
			respondError(w, r, badRequest("only s3:// locations can be validated remotely"))
			return
		}
		report, err = s.validator.ValidateLocation(ctx, location)
	} else {
		name, data, readErr := s.readArchive(w, r)
		if readErr != nil {
			respondError(w, r, readErr)
			return
		}
		report, err = s.validator.ValidateUpload(ctx, name, data)
	}

	if report == nil {
		respondError(w, r, err)
		return
	}

	resp := ValidateResponse{Report: report, Valid: report.Valid(), Rows: report.Rows()}
	status := http.StatusOK
	if err != nil {
		msg := feed.MapError(err)
		resp.Fatal = &msg
		status = http.StatusUnprocessableEntity
		logging.FromContext(ctx).Warn("validation stopped", "run_id", report.RunID, "error", err)
	}

	// Browser form posts land on the run page.
	page := "/runs/" + report.RunID.String()
	switch {
	case isHTMX(r):
		w.Header().Set("HX-Redirect", page)
		w.WriteHeader(http.StatusNoContent)
		return
	case isForm(r) && !strings.Contains(r.Header.Get("Accept"), "application/json"):
		http.Redirect(w, r, page, http.StatusSeeOther)
		return
	}
	writeJSON(w, r, status, resp)
}

// readArchive reads the uploaded zip from a multipart form or the raw body.
func (s *Server) readArchive(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Load.MaxArchiveSize+multipartMemory)

	if isForm(r) {
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				return "", nil, err
			}
			return "", nil, badRequest("invalid multipart form")
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return "", nil, badRequest("no file provided")
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		return path.Base(header.Filename), data, err
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return "", nil, err
	}
	if len(data) == 0 {
		return "", nil, badRequest("empty request body")
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "upload.zip"
	}
	return path.Base(name), data, nil
}

func isForm(r *http.Request) bool {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mt == "multipart/form-data"
}

func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, gtfs.Infos())
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.validator.Status())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok\n")
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.validator.RecentRuns(r.Context(), parseIntParam(r, "limit", defaultRunLimit))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}
	writeJSON(w, r, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id, err := runID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	run, err := s.validator.Run(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, run)
}

// handleRunErrors lists a run's errors as JSON, or as CSV with format=csv.
func (s *Server) handleRunErrors(w http.ResponseWriter, r *http.Request) {
	id, err := runID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	errs, err := s.validator.RunErrors(r.Context(), id, parseIntParam(r, "limit", defaultErrorLimit))
	if err != nil {
		respondError(w, r, err)
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		writeErrorsCSV(w, r, id, errs)
		return
	}
	if errs == nil {
		errs = []feed.ValidationError{}
	}
	writeJSON(w, r, http.StatusOK, errs)
}

func writeErrorsCSV(w http.ResponseWriter, r *http.Request, id uuid.UUID, errs []feed.ValidationError) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="errors-`+id.String()+`.csv"`)
	if err := feed.WriteCSV(w, errs); err != nil {
		logging.FromContext(r.Context()).Error("csv export failed", "run_id", id, "error", err)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	runs, err := s.validator.RecentRuns(r.Context(), defaultRunLimit)
	if err != nil && !errors.Is(err, service.ErrHistoryDisabled) {
		respondError(w, r, err)
		return
	}
	render(w, r, templates.Index(runs, gtfs.Infos()))
}

func (s *Server) handleRunPage(w http.ResponseWriter, r *http.Request) {
	id, err := runID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	run, err := s.validator.Run(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	errs, err := s.validator.RunErrors(r.Context(), id, defaultErrorLimit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	render(w, r, templates.RunPage(run, errs, run.ErrorCount > len(errs)))
}

func render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render page", "path", r.URL.Path, "error", err)
	}
}

func runID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "runID"))
	if err != nil {
		return uuid.Nil, badRequest("invalid run id")
	}
	return id, nil
}

// parseIntParam parses a positive integer query parameter with a default.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	i, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}
