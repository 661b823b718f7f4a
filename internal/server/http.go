package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/joseph-ayodele/po-matcher/internal/common"
	"github.com/joseph-ayodele/po-matcher/internal/document"
	"github.com/joseph-ayodele/po-matcher/internal/report"
)

// Multipart field names for the two documents.
const (
	FieldInvoice       = "invoice"
	FieldPurchaseOrder = "purchase_order"
)

type HTTPServer struct {
	comparer       Comparer
	renderer       *report.Renderer
	maxUploadBytes int64
	logger         *slog.Logger
}

func NewHTTPServer(comparer Comparer, renderer *report.Renderer, maxUploadBytes int64, logger *slog.Logger) *HTTPServer {
	if logger == nil {
		logger = slog.Default()
	}
	if renderer == nil {
		renderer = report.NewRenderer(report.Config{}, logger)
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = 20 << 20
	}
	return &HTTPServer{comparer: comparer, renderer: renderer, maxUploadBytes: maxUploadBytes, logger: logger}
}

// Router returns the HTTP API.
func (s *HTTPServer) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/v1/compare", s.handleCompare)
	return r
}

func (s *HTTPServer) handleCompare(w http.ResponseWriter, r *http.Request) {
	rid := middleware.GetReqID(r.Context())
	ctx := common.WithRequestID(r.Context(), rid)
	w.Header().Set("X-Request-ID", rid)

	format, err := report.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.writeError(w, rid, err)
		return
	}

	tooLarge := common.InvalidInput(fmt.Sprintf("upload exceeds %d bytes", s.maxUploadBytes))
	if r.ContentLength > s.maxUploadBytes {
		s.writeErrorStatus(w, rid, http.StatusRequestEntityTooLarge, tooLarge)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.writeErrorStatus(w, rid, http.StatusRequestEntityTooLarge, tooLarge)
			return
		}
		s.writeError(w, rid, common.InvalidInput("expected a multipart/form-data body"))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	invoice, err := readPart(r.MultipartForm, FieldInvoice)
	if err != nil {
		s.writeError(w, rid, err)
		return
	}
	po, err := readPart(r.MultipartForm, FieldPurchaseOrder)
	if err != nil {
		s.writeError(w, rid, err)
		return
	}

	cmp, err := s.comparer.Compare(ctx, invoice, po)
	if err != nil {
		s.writeError(w, rid, err)
		return
	}

	var buf bytes.Buffer
	if err := s.renderer.Render(ctx, &buf, format, cmp); err != nil {
		s.writeError(w, rid, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	if format.Binary() {
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="comparison-%s.%s"`, cmp.RequestID, format))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// readPart returns an empty Source when the field is absent; the gateway rejects it.
func readPart(form *multipart.Form, field string) (document.Source, error) {
	files := form.File[field]
	if len(files) == 0 {
		return document.Source{}, nil
	}
	fh := files[0]
	f, err := fh.Open()
	if err != nil {
		return document.Source{}, common.InvalidInput("cannot open " + field)
	}
	defer func() { _ = f.Close() }()
	data, err := io.ReadAll(f)
	if err != nil {
		return document.Source{}, common.InvalidInput("cannot read " + field)
	}
	return document.Source{Name: fh.Filename, Data: data}, nil
}

type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *HTTPServer) writeError(w http.ResponseWriter, rid string, err error) {
	s.writeErrorStatus(w, rid, HTTPStatus(err), err)
}

func (s *HTTPServer) writeErrorStatus(w http.ResponseWriter, rid string, status int, err error) {
	code := common.CodeOf(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("http.compare.failed", "req_id", rid, "code", code, "error", err)
	} else {
		s.logger.Warn("http.compare.rejected", "req_id", rid, "code", code, "error", err)
	}
	writeJSON(w, status, errorBody{Code: code, Message: err.Error(), RequestID: rid})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *HTTPServer) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http.request",
			"req_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	})
}
