package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"chat-proxy/internal/domain"
	"chat-proxy/internal/locale"
	"chat-proxy/internal/logger"
)

type UpstreamClient interface {
	WorkflowChat(ctx context.Context, apiKey string, in domain.WorkflowChatRequest) (json.RawMessage, error)
}

type CredentialSource interface {
	APIKey(ctx context.Context) (string, error)
}

type ExchangeRecorder interface {
	SaveExchange(ctx context.Context, correlationID, question, answer, outcome string, upstreamCode int) error
}

type ChatService struct {
	upstream   UpstreamClient
	creds      CredentialSource
	recorder   ExchangeRecorder
	workflowID string
	appID      string
	messages   locale.Catalog
}

type AskInput struct {
	Question      string
	CorrelationID string
}

type AskOutput struct {
	Answer  string
	Outcome string
	// Raw is the upstream response body, unmodified.
	Raw json.RawMessage
}

// NewChatService wires the service. recorder may be nil to disable the
// exchange log.
func NewChatService(upstream UpstreamClient, creds CredentialSource, recorder ExchangeRecorder, workflowID, appID string, messages locale.Catalog) (*ChatService, error) {
	if upstream == nil {
		return nil, errors.New("usecase: upstream client must not be nil")
	}
	if creds == nil {
		return nil, errors.New("usecase: credential source must not be nil")
	}
	workflowID = strings.TrimSpace(workflowID)
	if workflowID == "" {
		return nil, errors.New("usecase: workflow id must not be empty")
	}
	appID = strings.TrimSpace(appID)
	if appID == "" {
		return nil, errors.New("usecase: app id must not be empty")
	}
	if messages.FallbackAnswer == "" {
		messages = locale.Chinese
	}
	return &ChatService{
		upstream:   upstream,
		creds:      creds,
		recorder:   recorder,
		workflowID: workflowID,
		appID:      appID,
		messages:   messages,
	}, nil
}

// Ask validates the question, checks the credential and makes exactly one
// upstream call. Nothing is retried.
func (s *ChatService) Ask(ctx context.Context, in AskInput) (AskOutput, error) {
	if strings.TrimSpace(in.Question) == "" {
		return AskOutput{}, newError(ErrorInvalidInput, "empty_question", nil)
	}

	apiKey, err := s.creds.APIKey(ctx)
	if err != nil {
		return AskOutput{}, newError(ErrorMisconfigured, "missing_credential", err)
	}

	raw, err := s.upstream.WorkflowChat(ctx, apiKey, buildWorkflowRequest(s.workflowID, s.appID, in.Question))
	if err != nil {
		return AskOutput{}, newError(ErrorInternal, "upstream_error", err)
	}

	result, err := interpretResponse(raw, s.messages)
	if err != nil {
		return AskOutput{}, newError(ErrorInternal, "upstream_malformed_response", err)
	}

	s.record(ctx, in, result)

	return AskOutput{
		Answer:  result.answer,
		Outcome: result.outcome,
		Raw:     raw,
	}, nil
}

// record writes the exchange log. Failures never reach the caller.
func (s *ChatService) record(ctx context.Context, in AskInput, result interpretation) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.SaveExchange(ctx, in.CorrelationID, in.Question, result.answer, result.outcome, result.upstreamCode); err != nil {
		logger.FromContext(ctx).Warn("exchange log write failed", "err", err)
	}
}
