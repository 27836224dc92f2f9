package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mgmeyers/pdfannotate/annotate"
	"github.com/mgmeyers/pdfannotate/inspect"
	"github.com/mgmeyers/pdfannotate/internal/pdftest"
	"github.com/mgmeyers/pdfannotate/layout"
	"github.com/mgmeyers/pdfannotate/locate"
	"github.com/mgmeyers/pdfannotate/pdfutils"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakePipeline struct {
	terms []string
	src   []byte
	err   error
}

func (p *fakePipeline) Annotate(src, dst string, terms []string) (locate.MatchSet, error) {
	p.terms = terms

	data, err := os.ReadFile(src)
	if err != nil {
		return nil, err
	}
	p.src = data

	if p.err != nil {
		return nil, p.err
	}

	return locate.MatchSet{}, os.WriteFile(dst, append([]byte("annotated:"), data...), 0o600)
}

type fakePreview struct{}

func (fakePreview) Preview(pdf []byte) ([]byte, error) {
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		return nil, &pdfutils.DocumentReadError{Err: errors.New("not a pdf")}
	}
	return []byte("png"), nil
}

func multipartRequest(t *testing.T, target, filename string, content []byte, fields map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write(content)
	}

	for k, v := range fields {
		mw.WriteField(k, v)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) (string, string) {
	t.Helper()

	var body struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}

	return body.Error.Type, body.Error.Message
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("temporary files left behind: %v", entries)
	}
}

func TestParseTerms(t *testing.T) {
	tests := map[string][]string{
		"":                        {},
		"Steuer":                  {"Steuer"},
		" Steuer , recht ,, ":     {"Steuer", "recht"},
		",,,":                     {},
		"a,a":                     {"a", "a"},
		"Einkommen steuer, Recht": {"Einkommen steuer", "Recht"},
	}

	for in, want := range tests {
		if diff := cmp.Diff(want, ParseTerms(in)); diff != "" {
			t.Errorf("ParseTerms(%q) mismatch (-want +got):\n%s", in, diff)
		}
	}
}

func TestHealth(t *testing.T) {
	h := New(testLogger(), &fakePipeline{}, nil, Config{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != `{"status":"ok"}` {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestForms(t *testing.T) {
	h := New(testLogger(), &fakePipeline{}, nil, Config{})

	for path, want := range map[string]string{
		"/":       `action="/annotate"`,
		"/viewer": `action="/viewer"`,
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

		if rec.Code != http.StatusOK {
			t.Errorf("GET %s status = %d", path, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("GET %s body lacks %s", path, want)
		}
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET /nope status = %d", rec.Code)
	}
}

func TestAnnotate_ReturnsAttachment(t *testing.T) {
	tmp := t.TempDir()
	p := &fakePipeline{}
	h := New(testLogger(), p, nil, Config{TempDir: tmp})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, multipartRequest(t, "/annotate", "dir/report.pdf", []byte("%PDF-1.4"), map[string]string{
		"terms": "Steuer, ,recht",
	}))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}

	if got := rec.Header().Get("Content-Type"); got != "application/pdf" {
		t.Errorf("Content-Type = %q", got)
	}

	_, params, err := mime.ParseMediaType(rec.Header().Get("Content-Disposition"))
	if err != nil {
		t.Fatal(err)
	}
	if params["filename"] != "report.annotated.pdf" {
		t.Errorf("filename = %q", params["filename"])
	}

	if rec.Body.String() != "annotated:%PDF-1.4" {
		t.Errorf("body = %q", rec.Body.String())
	}

	if diff := cmp.Diff([]string{"Steuer", "recht"}, p.terms); diff != "" {
		t.Errorf("terms mismatch (-want +got):\n%s", diff)
	}

	assertEmptyDir(t, tmp)
}

func TestAnnotate_Errors(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		pipeErr  error
		status   int
		errType  string
	}{
		{"missing file", "", nil, http.StatusBadRequest, "invalid_request"},
		{"unreadable pdf", "x.pdf", &pdfutils.DocumentReadError{Err: errors.New("bad")}, http.StatusUnprocessableEntity, "invalid_document"},
		{"write failure", "x.pdf", &pdfutils.WriteError{Err: errors.New("disk full")}, http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmp := t.TempDir()
			h := New(testLogger(), &fakePipeline{err: tt.pipeErr}, nil, Config{TempDir: tmp})

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, multipartRequest(t, "/annotate", tt.filename, []byte("data"), map[string]string{"terms": "a"}))

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}

			if errType, _ := decodeError(t, rec); errType != tt.errType {
				t.Errorf("error type = %q, want %q", errType, tt.errType)
			}

			assertEmptyDir(t, tmp)
		})
	}
}

func TestAnnotate_NotMultipart(t *testing.T) {
	h := New(testLogger(), &fakePipeline{}, nil, Config{})

	req := httptest.NewRequest(http.MethodPost, "/annotate", strings.NewReader("terms=a"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestAnnotate_UploadLimit(t *testing.T) {
	h := New(testLogger(), &fakePipeline{}, nil, Config{MaxUpload: 512})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, multipartRequest(t, "/annotate", "big.pdf", bytes.Repeat([]byte("x"), 4096), nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestAnnotate_EndToEnd(t *testing.T) {
	tmp := t.TempDir()
	pipeline := AnnotatePipeline{Layout: layout.DefaultConfig(), Options: annotate.DefaultOptions()}
	h := New(testLogger(), pipeline, nil, Config{TempDir: tmp})

	doc := pdftest.Build(pdftest.Letter(pdftest.Line{Text: "Steuerrecht 2022", X: 72, Y: 720}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, multipartRequest(t, "/annotate", "steuer.pdf", doc, map[string]string{"terms": "Steuer"}))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}

	annots, err := inspect.Reader(bytes.NewReader(rec.Body.Bytes()), inspect.Options{})
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}

	counts := map[string]int{}
	for _, a := range annots {
		counts[a.Type]++
	}

	want := map[string]int{pdfutils.Highlight: 1, pdfutils.Text: 1}
	if diff := cmp.Diff(want, counts); diff != "" {
		t.Errorf("annotation counts mismatch (-want +got):\n%s", diff)
	}

	assertEmptyDir(t, tmp)
}

func TestAnnotate_EmptyTermsFilteredOut(t *testing.T) {
	pipeline := AnnotatePipeline{Layout: layout.DefaultConfig(), Options: annotate.DefaultOptions()}
	h := New(testLogger(), pipeline, nil, Config{TempDir: t.TempDir()})

	doc := pdftest.Build(pdftest.Letter(pdftest.Line{Text: "Steuerrecht 2022", X: 72, Y: 720}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, multipartRequest(t, "/annotate", "steuer.pdf", doc, map[string]string{"terms": " , "}))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}

	annots, err := inspect.Reader(bytes.NewReader(rec.Body.Bytes()), inspect.Options{})
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}

	if len(annots) != 0 {
		t.Errorf("expected no annotations, got %d", len(annots))
	}
}

func TestViewer(t *testing.T) {
	h := New(testLogger(), &fakePipeline{}, fakePreview{}, Config{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, multipartRequest(t, "/viewer", "report.pdf", []byte("%PDF-1.4"), nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}

	body := rec.Body.String()
	for _, want := range []string{
		`src="data:application/pdf;base64,JVBERi0xLjQ="`,
		`src="data:image/png;base64,cG5n"`,
		"<title>report.pdf</title>",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("viewer body lacks %s", want)
		}
	}
}

func TestViewer_UnreadablePreview(t *testing.T) {
	h := New(testLogger(), &fakePipeline{}, fakePreview{}, Config{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, multipartRequest(t, "/viewer", "junk.pdf", []byte("junk"), nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}

	body := rec.Body.String()
	if !strings.Contains(body, `<iframe`) || !strings.Contains(body, `src="data:application/pdf;base64,anVuaw=="`) {
		t.Errorf("viewer body lacks the embedded document:\n%s", body)
	}

	if strings.Contains(body, "<img") {
		t.Errorf("viewer body has a preview image for an unreadable upload")
	}
}

func TestFitzPreview(t *testing.T) {
	png, err := FitzPreview{DPI: 36}.Preview(pdftest.Build(pdftest.Letter(pdftest.Line{Text: "Hallo", X: 72, Y: 720})))
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}

	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Errorf("preview is not a png")
	}

	_, err = FitzPreview{}.Preview([]byte("junk"))

	var readErr *pdfutils.DocumentReadError
	if !errors.As(err, &readErr) {
		t.Errorf("expected DocumentReadError, got %v", err)
	}
}

func TestUploadName(t *testing.T) {
	tests := map[string]string{
		"report.pdf":         "report.pdf",
		"a/b/report.pdf":     "report.pdf",
		`C:\Users\x\tax.pdf`: "tax.pdf",
		"":                   "document.pdf",
		"/":                  "document.pdf",
	}

	for in, want := range tests {
		if got := uploadName(in); got != want {
			t.Errorf("uploadName(%q) = %q, want %q", in, got, want)
		}
	}
}
