package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"chat-proxy/internal/locale"
	"chat-proxy/internal/logger"
	"chat-proxy/internal/usecase"
)

const (
	correlationHeader = "X-Correlation-Id"
	methodNotAllowed  = "Method not allowed"
)

var corsHeaders = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Methods": "POST, OPTIONS",
	"Access-Control-Allow-Headers": "Content-Type",
}

type ChatUseCase interface {
	Ask(ctx context.Context, in usecase.AskInput) (usecase.AskOutput, error)
}

type askRequest struct {
	Question json.RawMessage `json:"question"`
}

type askResponse struct {
	Success bool            `json:"success"`
	Answer  string          `json:"answer"`
	Raw     json.RawMessage `json:"raw"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type Handler struct {
	chat     ChatUseCase
	messages locale.Catalog
	log      *slog.Logger
}

// NewHandler builds the API Gateway handler. A nil log uses slog.Default().
func NewHandler(chat ChatUseCase, messages locale.Catalog, log *slog.Logger) (*Handler, error) {
	if chat == nil {
		return nil, errors.New("handler: chat use case must not be nil")
	}
	if messages.InternalError == "" {
		messages = locale.Chinese
	}
	if log == nil {
		log = slog.Default()
	}
	return &Handler{chat: chat, messages: messages, log: log}, nil
}

// Handle serves one API Gateway proxy event. Every outcome, including a
// panic further down, is turned into a response; the returned error is
// always nil.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (resp events.APIGatewayProxyResponse, err error) {
	correlationID := headerValue(event.Headers, correlationHeader)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	log, ctx := logger.With(logger.ToContext(ctx, h.log),
		"correlation_id", correlationID, "method", event.HTTPMethod, "path", event.Path)

	defer func() {
		if r := recover(); r != nil {
			log.Error("handler panic", "panic", r)
			resp = h.jsonResponse(http.StatusInternalServerError, correlationID, errorResponse{
				Error:   h.messages.InternalError,
				Message: fmt.Sprint(r),
			})
			err = nil
		}
	}()

	switch strings.ToUpper(event.HTTPMethod) {
	case http.MethodOptions:
		return response(http.StatusOK, correlationID, ""), nil
	case http.MethodPost:
	default:
		return h.jsonResponse(http.StatusMethodNotAllowed, correlationID, errorResponse{Error: methodNotAllowed}), nil
	}

	question, parseErr := parseQuestion(event)
	if parseErr != nil {
		log.Error("unreadable question", "err", parseErr)
		return h.jsonResponse(http.StatusInternalServerError, correlationID, errorResponse{
			Error:   h.messages.InternalError,
			Message: parseErr.Error(),
		}), nil
	}

	out, askErr := h.chat.Ask(ctx, usecase.AskInput{
		Question:      question,
		CorrelationID: correlationID,
	})
	if askErr != nil {
		return h.errorToResponse(ctx, correlationID, askErr), nil
	}

	log.Info("question answered", "outcome", out.Outcome)
	return h.jsonResponse(http.StatusOK, correlationID, askResponse{
		Success: true,
		Answer:  out.Answer,
		Raw:     out.Raw,
	}), nil
}

func (h *Handler) errorToResponse(ctx context.Context, correlationID string, err error) events.APIGatewayProxyResponse {
	log := logger.FromContext(ctx)

	var ucErr *usecase.Error
	if !errors.As(err, &ucErr) {
		log.Error("unexpected error", "err", err)
		return h.jsonResponse(http.StatusInternalServerError, correlationID, errorResponse{
			Error:   h.messages.InternalError,
			Message: err.Error(),
		})
	}

	switch ucErr.Code {
	case usecase.ErrorInvalidInput:
		log.Info("request rejected", "reason", ucErr.Reason)
		return h.jsonResponse(http.StatusBadRequest, correlationID, errorResponse{Error: h.messages.QuestionRequired})
	case usecase.ErrorMisconfigured:
		log.Error("credential unavailable", "reason", ucErr.Reason, "err", ucErr.Err)
		return h.jsonResponse(http.StatusInternalServerError, correlationID, errorResponse{Error: h.messages.ServerMisconfigured})
	default:
		log.Error("chat request failed", "reason", ucErr.Reason, "err", ucErr.Err)
		return h.jsonResponse(http.StatusInternalServerError, correlationID, errorResponse{
			Error:   h.messages.InternalError,
			Message: ucErr.Cause(),
		})
	}
}

// parseQuestion returns "" when the body cannot be read or the question is
// absent or falsy (null, false, 0). Any other non-string question is an
// error.
func parseQuestion(event events.APIGatewayProxyRequest) (string, error) {
	body := []byte(event.Body)
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(event.Body)
		if err != nil {
			return "", nil
		}
		body = decoded
	}
	var req askRequest
	if err := json.Unmarshal(body, &req); err != nil || len(req.Question) == 0 {
		return "", nil
	}
	var v any
	if err := json.Unmarshal(req.Question, &v); err != nil {
		return "", nil
	}
	switch q := v.(type) {
	case nil:
		return "", nil
	case string:
		return q, nil
	case bool:
		if !q {
			return "", nil
		}
		return "", errors.New("handler: question must be a string, got boolean")
	case float64:
		if q == 0 {
			return "", nil
		}
		return "", errors.New("handler: question must be a string, got number")
	case []any:
		return "", errors.New("handler: question must be a string, got array")
	default:
		return "", errors.New("handler: question must be a string, got object")
	}
}

func (h *Handler) jsonResponse(status int, correlationID string, v any) events.APIGatewayProxyResponse {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		h.log.Error("encode response", "err", err)
		status = http.StatusInternalServerError
		buf.Reset()
		_ = json.NewEncoder(&buf).Encode(errorResponse{Error: h.messages.InternalError, Message: err.Error()})
	}
	resp := response(status, correlationID, strings.TrimSuffix(buf.String(), "\n"))
	resp.Headers["Content-Type"] = "application/json"
	return resp
}

func response(status int, correlationID, body string) events.APIGatewayProxyResponse {
	headers := make(map[string]string, len(corsHeaders)+2)
	for k, v := range corsHeaders {
		headers[k] = v
	}
	headers[correlationHeader] = correlationID
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    headers,
		Body:       body,
	}
}

func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
