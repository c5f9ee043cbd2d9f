// Package handler maps single structured requests onto bundle mutations.
// It backs the Lambda function, the invoke command and the HTTP server.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/google/uuid"
	"github.com/mscno/vaultenv"
)

const (
	ActionRead   = "read"
	ActionView   = "view"
	ActionWrite  = "write"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Request is one handler invocation. Value is a pointer so that an empty
// value can be told apart from a missing one.
type Request struct {
	Action    string  `json:"action"`
	ProjectID string  `json:"project_id"`
	Key       string  `json:"key,omitempty"`
	Value     *string `json:"value,omitempty"`
}

// Response follows the API Gateway proxy shape: Body holds a JSON document.
type Response struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       string            `json:"body"`
}

// StringPtr returns a pointer to s, for building requests.
func StringPtr(s string) *string {
	return &s
}

// normalizedAction returns the lower-cased action without surrounding spaces.
func (r Request) normalizedAction() string {
	return strings.ToLower(strings.TrimSpace(r.Action))
}

// Validate checks the fields required before dispatch. The value of an update
// is checked later, once the key is known to exist.
func (r Request) Validate() error {
	if strings.TrimSpace(r.ProjectID) == "" {
		return fmt.Errorf("%w: project_id is required", vaultenv.ErrValidation)
	}
	action := r.normalizedAction()
	switch action {
	case ActionRead, ActionView:
		return nil
	case ActionWrite, ActionUpdate, ActionDelete:
	case "":
		return fmt.Errorf("%w: action is required", vaultenv.ErrValidation)
	default:
		return fmt.Errorf("%w: unknown action %q", vaultenv.ErrValidation, r.Action)
	}
	if strings.TrimSpace(r.Key) == "" {
		return fmt.Errorf("%w: key is required for %s", vaultenv.ErrValidation, action)
	}
	if action == ActionWrite && r.Value == nil {
		return fmt.Errorf("%w: value is required for write", vaultenv.ErrValidation)
	}
	return nil
}

type requestIDKey struct{}

// WithRequestID stores a request id in ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id stored by WithRequestID or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type Handler struct {
	mutator *vaultenv.Mutator
	logger  *slog.Logger
}

func New(mutator *vaultenv.Mutator, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Handler{mutator: mutator, logger: logger}
}

// Handle validates req and applies it. It never returns an error: every
// failure, including a panic below it, is turned into a Response.
func (h *Handler) Handle(ctx context.Context, req Request) Response {
	return h.serve(ctx, func(ctx context.Context, logger *slog.Logger) Response {
		return h.handle(ctx, logger, req)
	})
}

// HandleJSON decodes payload as a Request and handles it. Malformed JSON is
// a 400.
func (h *Handler) HandleJSON(ctx context.Context, payload []byte) Response {
	return h.serve(ctx, func(ctx context.Context, logger *slog.Logger) Response {
		var req Request
		if err := json.Unmarshal(payload, &req); err != nil {
			logger.Debug("rejected request body", "error", err)
			return errorResponse(http.StatusBadRequest, fmt.Sprintf("%s: invalid request body: %s", vaultenv.ErrValidation, err))
		}
		return h.handle(ctx, logger, req)
	})
}

// serve resolves the request id, recovers panics and sets the common headers.
func (h *Handler) serve(ctx context.Context, fn func(context.Context, *slog.Logger) Response) (resp Response) {
	requestID := RequestID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
		ctx = WithRequestID(ctx, requestID)
	}
	logger := h.logger.With("request_id", requestID)

	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("panic while handling request", "panic", rec, "stack", string(debug.Stack()))
			resp = errorResponse(http.StatusInternalServerError, fmt.Sprint(rec))
		}
		if resp.Headers == nil {
			resp.Headers = map[string]string{}
		}
		resp.Headers["Content-Type"] = "application/json"
		resp.Headers["X-Request-Id"] = requestID
	}()
	return fn(ctx, logger)
}

func (h *Handler) handle(ctx context.Context, logger *slog.Logger, req Request) Response {
	logger = logger.With("action", req.Action, "project", req.ProjectID)
	if err := req.Validate(); err != nil {
		logger.Debug("rejected request", "error", err)
		return errorResponse(http.StatusBadRequest, err.Error())
	}

	resp, err := h.dispatch(ctx, req)
	if err != nil {
		status := StatusCode(err)
		if status == http.StatusInternalServerError {
			logger.Error("request failed", "key", req.Key, "error", err)
		} else {
			logger.Info("request failed", "key", req.Key, "status", status, "error", err)
		}
		return errorResponse(status, err.Error())
	}
	logger.Info("request handled", "key", req.Key, "status", resp.StatusCode)
	return resp
}

func (h *Handler) dispatch(ctx context.Context, req Request) (Response, error) {
	project := strings.TrimSpace(req.ProjectID)
	switch req.normalizedAction() {
	case ActionRead, ActionView:
		bundle, err := h.mutator.View(ctx, project)
		if err != nil {
			return Response{}, err
		}
		return jsonResponse(http.StatusOK, bundle), nil
	case ActionWrite:
		if err := h.mutator.SetKey(ctx, project, req.Key, *req.Value); err != nil {
			return Response{}, err
		}
		return messageResponse(fmt.Sprintf("Secret '%s' set in project '%s'.", req.Key, project)), nil
	case ActionUpdate:
		if req.Value == nil {
			// a missing key wins over a missing value
			if _, err := h.mutator.GetKey(ctx, project, req.Key); err != nil {
				return Response{}, err
			}
			return Response{}, fmt.Errorf("%w: value is required for update", vaultenv.ErrValidation)
		}
		if err := h.mutator.UpdateKey(ctx, project, req.Key, *req.Value); err != nil {
			return Response{}, err
		}
		return messageResponse(fmt.Sprintf("Secret '%s' updated in project '%s'.", req.Key, project)), nil
	case ActionDelete:
		if err := h.mutator.DeleteKey(ctx, project, req.Key); err != nil {
			return Response{}, err
		}
		return messageResponse(fmt.Sprintf("Secret '%s' deleted from project '%s'.", req.Key, project)), nil
	}
	return Response{}, fmt.Errorf("%w: unknown action %q", vaultenv.ErrValidation, req.Action)
}

// StatusCode maps an error to the status code reported for it.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, vaultenv.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, vaultenv.ErrKeyNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func messageResponse(msg string) Response {
	return jsonResponse(http.StatusOK, map[string]string{"message": msg})
}

func errorResponse(status int, msg string) Response {
	return jsonResponse(status, map[string]string{"error": msg})
}

func jsonResponse(status int, v any) Response {
	body, err := json.Marshal(v)
	if err != nil {
		return Response{
			StatusCode: http.StatusInternalServerError,
			Body:       `{"error":"failed to encode response"}`,
		}
	}
	return Response{StatusCode: status, Body: string(body)}
}
