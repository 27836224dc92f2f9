// Package web serves the browser front-ends: an upload form that returns an
// annotated copy of a PDF, and a standalone inline viewer.
package web

import (
	"embed"
	"encoding/base64"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/mgmeyers/pdfannotate/annotate"
	"github.com/mgmeyers/pdfannotate/layout"
	"github.com/mgmeyers/pdfannotate/locate"
	"github.com/mgmeyers/pdfannotate/pdfutils"
)

const DefaultMaxUpload = 64 << 20

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Pipeline locates terms in the PDF at src and writes the annotated copy to
// dst.
type Pipeline interface {
	Annotate(src, dst string, terms []string) (locate.MatchSet, error)
}

// Previewer renders the first page of a PDF as a PNG.
type Previewer interface {
	Preview(pdf []byte) ([]byte, error)
}

// AnnotatePipeline runs the locator and the annotator on files.
type AnnotatePipeline struct {
	Layout  layout.Config
	Options annotate.Options
}

func (p AnnotatePipeline) Annotate(src, dst string, terms []string) (locate.MatchSet, error) {
	return annotate.Run(src, dst, terms, p.Layout, p.Options)
}

type Config struct {
	// MaxUpload caps the request body in bytes.
	MaxUpload int64
	// TempDir is the parent of the per-request scratch directories; empty
	// means os.TempDir.
	TempDir string
}

type Handler struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	pipeline Pipeline
	preview  Previewer
	cfg      Config
}

// New wires the routes. preview may be nil, in which case the viewer shows
// no fallback image.
func New(logger *slog.Logger, pipeline Pipeline, preview Previewer, cfg Config) *Handler {
	if cfg.MaxUpload <= 0 {
		cfg.MaxUpload = DefaultMaxUpload
	}

	h := &Handler{
		mux:      http.NewServeMux(),
		logger:   logger,
		pipeline: pipeline,
		preview:  preview,
		cfg:      cfg,
	}

	h.mux.HandleFunc("GET /{$}", h.handleIndex)
	h.mux.HandleFunc("POST /annotate", h.handleAnnotate)
	h.mux.HandleFunc("GET /viewer", h.handleViewerForm)
	h.mux.HandleFunc("POST /viewer", h.handleViewer)
	h.mux.HandleFunc("GET /health", h.handleHealth)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("request",
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr)

	h.mux.ServeHTTP(w, r)
}

// ParseTerms splits a comma-separated field into trimmed, non-empty terms.
func ParseTerms(field string) []string {
	terms := []string{}

	for _, t := range strings.Split(field, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			terms = append(terms, t)
		}
	}

	return terms
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
	})
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	h.render(w, "index.html", nil)
}

func (h *Handler) handleViewerForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, "viewer.html", nil)
}

type upload struct {
	name string
	data []byte
}

// readUpload parses the multipart body and returns the "file" part. It writes
// the error response itself and returns ok=false on failure.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (upload, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUpload)

	if err := r.ParseMultipartForm(h.cfg.MaxUpload); err != nil {
		h.logger.Error("parse multipart form", "error", err)

		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, http.StatusBadRequest, "invalid_request", "upload exceeds size limit")
		} else {
			h.writeError(w, http.StatusBadRequest, "invalid_request", "failed to parse multipart form")
		}
		return upload{}, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "file is required")
		return upload{}, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error("read upload", "error", err)
		h.writeError(w, http.StatusBadRequest, "invalid_request", "failed to read file")
		return upload{}, false
	}

	return upload{name: header.Filename, data: data}, true
}

func (h *Handler) handleAnnotate(w http.ResponseWriter, r *http.Request) {
	up, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	terms := ParseTerms(r.FormValue("terms"))

	dir, err := os.MkdirTemp(h.cfg.TempDir, "pdfannotate-")
	if err != nil {
		h.fail(w, err)
		return
	}
	defer os.RemoveAll(dir)

	src := filepath.Join(dir, "upload.pdf")
	if err := os.WriteFile(src, up.data, 0o600); err != nil {
		h.fail(w, err)
		return
	}

	name := annotate.DefaultOutputPath(uploadName(up.name))
	dst := filepath.Join(dir, "out", name)

	if err := os.Mkdir(filepath.Dir(dst), 0o700); err != nil {
		h.fail(w, err)
		return
	}

	ms, err := h.pipeline.Annotate(src, dst, terms)
	if err != nil {
		h.fail(w, err)
		return
	}

	out, err := os.Open(dst)
	if err != nil {
		h.fail(w, err)
		return
	}
	defer out.Close()

	h.logger.Info("annotated upload",
		"file", up.name,
		"terms", len(terms),
		"occurrences", ms.Count())

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, out); err != nil {
		h.logger.Error("stream annotated pdf", "error", err)
	}
}

type viewerPage struct {
	Name     string
	Document template.URL
	Preview  template.URL
}

func (h *Handler) handleViewer(w http.ResponseWriter, r *http.Request) {
	up, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	page := viewerPage{
		Name:     uploadName(up.name),
		Document: template.URL("data:application/pdf;base64," + base64.StdEncoding.EncodeToString(up.data)),
	}

	if h.preview != nil {
		png, err := h.preview.Preview(up.data)
		if err != nil {
			h.logger.Warn("render preview", "file", page.Name, "error", err)
		} else {
			page.Preview = template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png))
		}
	}

	h.render(w, "view.html", page)
}

// uploadName strips any client-side directories from a multipart file name.
func uploadName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "document.pdf"
	}

	return name
}

func (h *Handler) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if err := templates.ExecuteTemplate(w, name, data); err != nil {
		h.logger.Error("render template", "template", name, "error", err)
	}
}

// fail maps err onto a status code: unreadable documents are the client's
// fault, anything else is ours.
func (h *Handler) fail(w http.ResponseWriter, err error) {
	var readErr *pdfutils.DocumentReadError
	if errors.As(err, &readErr) {
		h.logger.Warn("unreadable upload", "error", err)
		h.writeError(w, http.StatusUnprocessableEntity, "invalid_document", "the uploaded file is not a readable PDF")
		return
	}

	h.logger.Error("request failed", "error", err)
	h.writeError(w, http.StatusInternalServerError, "internal_error", "failed to process document")
}

func (h *Handler) writeError(w http.ResponseWriter, status int, errType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{
			"type":    errType,
			"message": message,
		},
	})
}
