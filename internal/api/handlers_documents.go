package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/texgest/internal/document"
	"github.com/dgallion1/texgest/internal/output"
	"github.com/dgallion1/texgest/internal/pipeline"
	"github.com/dgallion1/texgest/internal/texerr"
)

// handleParse builds the raw LaTeX request body synchronously.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read body", http.StatusBadRequest)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("body exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	opts := s.cfg.DocumentOptions()
	opts.Logger = s.log
	doc, err := document.Parse(string(data), "", opts)
	if err != nil {
		s.log.Warn("build failed", "error", err, "kind", errorKind(err))
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	s.writeDocument(w, r, doc)
}

// handleSubmit queues an asynchronous build of an uploaded file and its
// assets.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	assets := make(map[string][]byte)
	for _, fh := range r.MultipartForm.File["assets"] {
		name := sanitizeFilename(fh.Filename)
		f, err := fh.Open()
		if err != nil {
			jsonError(w, "failed to open asset "+name, http.StatusBadRequest)
			return
		}
		b, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes+1))
		f.Close()
		if err != nil || int64(len(b)) > s.cfg.MaxUploadBytes {
			jsonError(w, "asset too large or read error: "+name, http.StatusRequestEntityTooLarge)
			return
		}
		assets[name] = b
	}

	job := pipeline.NewJob(filename, data, assets)
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	// A worker may already hold the job; read its status under the lock.
	snap := job.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   snap.ID,
		"status":   snap.Status,
		"poll_url": fmt.Sprintf("/api/documents/%s", job.ID),
	})
}

// handleDocument reports a job's status and, once complete, its document.
func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	snap := job.Snapshot()
	doc := job.Document()
	if doc == nil {
		status := http.StatusOK
		if snap.Status == pipeline.StatusFailed {
			status = http.StatusUnprocessableEntity
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{"job": snap})
		return
	}
	s.writeDocument(w, r, doc)
}

// writeDocument renders the view named by ?view= (summary, latex, markup
// or xrefs). Structured views honour ?format= and the jq filter ?q=.
func (s *Server) writeDocument(w http.ResponseWriter, r *http.Request, doc *document.Document) {
	q := r.URL.Query()
	switch q.Get("view") {
	case "latex":
		w.Header().Set("Content-Type", "application/x-tex; charset=utf-8")
		io.WriteString(w, doc.Latex())
		return
	case "markup":
		out, err := doc.Markup()
		if err != nil {
			jsonError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/xml; charset=utf-8")
		io.WriteString(w, out)
		return
	case "xrefs":
		s.writeData(w, r, doc.XrefList())
	case "", "summary":
		s.writeData(w, r, doc.Summarize())
	default:
		jsonError(w, "unknown view: "+q.Get("view"), http.StatusBadRequest)
	}
}

func (s *Server) writeData(w http.ResponseWriter, r *http.Request, data any) {
	format := output.FormatJSON
	contentType := "application/json"
	if strings.EqualFold(r.URL.Query().Get("format"), "yaml") {
		format, contentType = output.FormatYAML, "application/yaml"
	}

	ctx := output.WithQuery(r.Context(), r.URL.Query().Get("q"))
	var buf bytes.Buffer
	if err := output.NewPrinter(&buf, format).Print(ctx, data); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Write(buf.Bytes())
}

func errorKind(err error) string {
	if kind := texerr.Kind(err); kind != nil {
		return kind.Error()
	}
	return "other"
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
