package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/noobjs/blog-backend/internal/blog"
	"github.com/noobjs/blog-backend/internal/db/entities"
	"github.com/noobjs/blog-backend/internal/db/interfaces"
)

const maxBodyBytes = 1 << 20

// MetricsInterface defines the interface for metrics recording
type MetricsInterface interface {
	RecordHTTPRequest(ctx context.Context, method, path string, status int, duration time.Duration)
}

// Pinger reports whether the event broker is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	svc        *blog.Service
	broker     Pinger
	wsHandler  http.Handler
	sseHandler http.Handler
	logger     *zap.SugaredLogger
}

// NewHandler wires the route handlers. broker, wsHandler and sseHandler may
// be nil, in which case the event endpoints are not mounted.
func NewHandler(
	svc *blog.Service,
	broker Pinger,
	wsHandler http.Handler,
	sseHandler http.Handler,
	logger *zap.SugaredLogger,
) *Handler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Handler{
		svc:        svc,
		broker:     broker,
		wsHandler:  wsHandler,
		sseHandler: sseHandler,
		logger:     logger,
	}
}

func (h *Handler) Hello(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Hello World!"))
}

func (h *Handler) CreateAuthor(w http.ResponseWriter, r *http.Request) {
	var in blog.AuthorInput
	if !h.decodeBody(w, r, &in) {
		return
	}

	author, err := h.svc.CreateAuthor(r.Context(), in)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, author)
}

func (h *Handler) ListAuthors(w http.ResponseWriter, r *http.Request) {
	authors, err := h.svc.ListAuthors(r.Context())
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, authors)
}

func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var in blog.PostInput
	if !h.decodeBody(w, r, &in) {
		return
	}

	post, err := h.svc.CreatePost(r.Context(), in)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, post)
}

func (h *Handler) CreatePostForAuthor(w http.ResponseWriter, r *http.Request) {
	authorID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var in blog.PostInput
	if !h.decodeBody(w, r, &in) {
		return
	}

	post, err := h.svc.CreatePostForAuthor(r.Context(), authorID, in)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, post)
}

func (h *Handler) PostsByAuthor(w http.ResponseWriter, r *http.Request) {
	authorID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	posts, err := h.svc.PostsByAuthor(r.Context(), authorID)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, posts)
}

func (h *Handler) AuthorOfPost(w http.ResponseWriter, r *http.Request) {
	postID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	author, err := h.svc.AuthorOfPost(r.Context(), postID)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, author)
}

// Health endpoints
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	dto := newHealthDTO(h.svc.Backend())
	status := http.StatusOK

	if h.svc.Healthy(ctx) {
		dto.Checks["storage"] = "ok"
	} else {
		dto.Checks["storage"] = "unavailable"
		dto.Status = "unavailable"
		status = http.StatusServiceUnavailable
	}

	if h.broker != nil {
		if err := h.broker.Ping(ctx); err != nil {
			h.logger.Warnw("Event broker ping failed", "error", err)
			dto.Checks["events"] = "unavailable"
			dto.Status = "unavailable"
			status = http.StatusServiceUnavailable
		} else {
			dto.Checks["events"] = "ok"
		}
	}

	h.writeJSON(w, status, dto)
}

// Live update endpoints
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	h.wsHandler.ServeHTTP(w, r)
}

func (h *Handler) HandleSSE(w http.ResponseWriter, r *http.Request) {
	h.sseHandler.ServeHTTP(w, r)
}

// Utility methods
func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, param string) (entities.IntID, bool) {
	raw := chi.URLParam(r, param)
	id, err := entities.ParseIntID(raw)
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, CodeInvalidID, fmt.Sprintf("invalid %s %q", param, raw), nil)
		return 0, false
	}
	return id, true
}

// formDecoder is implemented by inputs that accept urlencoded forms
type formDecoder interface {
	DecodeForm(values url.Values) error
}

// decodeBody reads a JSON or urlencoded form body into v. A JSON request
// without Content-Type is accepted, and an empty body leaves v zeroed.
func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType := "application/json"
	if ct := r.Header.Get("Content-Type"); ct != "" {
		parsed, _, err := mime.ParseMediaType(ct)
		if err != nil {
			h.writeError(w, r, http.StatusUnsupportedMediaType, CodeUnsupportedMedia, fmt.Sprintf("invalid Content-Type %q", ct), nil)
			return false
		}
		mediaType = parsed
	}

	switch {
	case mediaType == "application/x-www-form-urlencoded":
		return h.decodeForm(w, r, v)
	case mediaType == "application/json" || strings.HasSuffix(mediaType, "+json"):
		return h.decodeJSON(w, r, v)
	default:
		h.writeError(w, r, http.StatusUnsupportedMediaType, CodeUnsupportedMedia, fmt.Sprintf("unsupported Content-Type %q", mediaType), nil)
		return false
	}
}

func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, r, http.StatusBadRequest, CodeInvalidJSON, describeDecodeError(err), nil)
		return false
	}
	// the body must hold exactly one value
	if err := dec.Decode(&json.RawMessage{}); !errors.Is(err, io.EOF) {
		h.writeError(w, r, http.StatusBadRequest, CodeInvalidJSON, "unexpected data after the JSON body", nil)
		return false
	}
	return true
}

func (h *Handler) decodeForm(w http.ResponseWriter, r *http.Request, v any) bool {
	fd, ok := v.(formDecoder)
	if !ok {
		h.writeError(w, r, http.StatusUnsupportedMediaType, CodeUnsupportedMedia, "form bodies are not accepted here", nil)
		return false
	}
	if err := r.ParseForm(); err != nil {
		h.writeError(w, r, http.StatusBadRequest, CodeInvalidForm, describeDecodeError(err), nil)
		return false
	}
	if err := fd.DecodeForm(r.PostForm); err != nil {
		h.writeError(w, r, http.StatusBadRequest, CodeInvalidForm, describeDecodeError(err), nil)
		return false
	}
	return true
}

func describeDecodeError(err error) string {
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	var maxErr *http.MaxBytesError
	var coerceErr *blog.CoercionError
	switch {
	case errors.As(err, &coerceErr):
		return coerceErr.Error()
	case errors.As(err, &typeErr):
		return fmt.Sprintf("field %q must be of type %s", typeErr.Field, typeErr.Type)
	case errors.As(err, &syntaxErr):
		return fmt.Sprintf("malformed JSON at offset %d", syntaxErr.Offset)
	case errors.As(err, &maxErr):
		return fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit)
	default:
		return "malformed request body"
	}
}

// writeStoreError maps service and storage errors onto HTTP responses
func (h *Handler) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *blog.ValidationError
	if errors.As(err, &verr) {
		h.writeError(w, r, http.StatusUnprocessableEntity, CodeValidationFailed, "request validation failed", verr.Fields)
		return
	}

	status, code := statusFor(err)
	h.writeError(w, r, status, code, err.Error(), nil)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, interfaces.ErrForeignKeyConstraint):
		return http.StatusUnprocessableEntity, CodeAuthorNotFound
	case errors.Is(err, interfaces.ErrNotNullConstraint):
		return http.StatusUnprocessableEntity, CodeValidationFailed
	case errors.Is(err, interfaces.ErrUniqueConstraint):
		return http.StatusConflict, CodeConflict
	case errors.Is(err, interfaces.ErrInvalidID):
		return http.StatusBadRequest, CodeInvalidID
	case errors.Is(err, interfaces.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, interfaces.ErrUnsupported):
		return http.StatusNotImplemented, CodeNotImplemented
	case errors.Is(err, interfaces.ErrDatabaseNotConnected):
		return http.StatusServiceUnavailable, CodeStorageUnavailable
	default:
		return http.StatusInternalServerError, CodeStorageError
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Errorw("Failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]string) {
	log := h.logger.Warnw
	if status >= http.StatusInternalServerError {
		log = h.logger.Errorw
	}
	log("API error",
		"request_id", middleware.GetReqID(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
		"code", code,
		"message", message,
		"status", status,
	)

	h.writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
		Details: details,
	})
}
