package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"chat-proxy/internal/credentials"
	"chat-proxy/internal/domain"
	"chat-proxy/internal/locale"
)

type mockUpstream struct {
	raw       string
	err       error
	callCount int
	apiKey    string
	req       domain.WorkflowChatRequest
}

func (m *mockUpstream) WorkflowChat(_ context.Context, apiKey string, in domain.WorkflowChatRequest) (json.RawMessage, error) {
	m.callCount++
	m.apiKey = apiKey
	m.req = in
	if m.err != nil {
		return nil, m.err
	}
	return json.RawMessage(m.raw), nil
}

type staticCreds struct {
	key string
	err error
}

func (s staticCreds) APIKey(_ context.Context) (string, error) {
	return s.key, s.err
}

type mockRecorder struct {
	err           error
	invoked       bool
	correlationID string
	question      string
	answer        string
	outcome       string
	upstreamCode  int
}

func (m *mockRecorder) SaveExchange(_ context.Context, correlationID, question, answer, outcome string, upstreamCode int) error {
	m.invoked = true
	m.correlationID = correlationID
	m.question = question
	m.answer = answer
	m.outcome = outcome
	m.upstreamCode = upstreamCode
	return m.err
}

func okCreds() staticCreds { return staticCreds{key: "pat-test"} }

func newTestService(t *testing.T, up UpstreamClient, creds CredentialSource, rec ExchangeRecorder) *ChatService {
	t.Helper()
	svc, err := NewChatService(up, creds, rec, "wf-1", "app-1", locale.English)
	require.NoError(t, err)
	return svc
}

func expectAskError(t *testing.T, err error, code ErrorCode, reason string) {
	t.Helper()
	var usecaseErr *Error
	require.ErrorAs(t, err, &usecaseErr)
	require.Equal(t, code, usecaseErr.Code)
	require.Equal(t, reason, usecaseErr.Reason)
}

func TestNewChatService_ValidatesDependencies(t *testing.T) {
	_, err := NewChatService(nil, okCreds(), nil, "wf", "app", locale.English)
	require.Error(t, err)

	_, err = NewChatService(&mockUpstream{}, nil, nil, "wf", "app", locale.English)
	require.Error(t, err)

	_, err = NewChatService(&mockUpstream{}, okCreds(), nil, " ", "app", locale.English)
	require.Error(t, err)

	_, err = NewChatService(&mockUpstream{}, okCreds(), nil, "wf", "", locale.English)
	require.Error(t, err)
}

func TestNewChatService_DefaultsToChineseMessages(t *testing.T) {
	up := &mockUpstream{raw: `{"code":0,"data":{"messages":[]}}`}
	svc, err := NewChatService(up, okCreds(), nil, "wf", "app", locale.Catalog{})
	require.NoError(t, err)

	out, err := svc.Ask(context.Background(), AskInput{Question: "hi"})
	require.NoError(t, err)
	require.Equal(t, locale.Chinese.FallbackAnswer, out.Answer)
}

func TestAsk_HappyPath_FirstAssistantMessageWins(t *testing.T) {
	up := &mockUpstream{raw: `{"code":0,"data":{"messages":[{"role":"user","content":"x"},{"role":"assistant","content":"42"},{"role":"assistant","content":"43"}]}}`}
	svc := newTestService(t, up, okCreds(), nil)

	out, err := svc.Ask(context.Background(), AskInput{Question: "What is the answer?"})
	require.NoError(t, err)
	require.Equal(t, "42", out.Answer)
	require.Equal(t, domain.OutcomeAnswered, out.Outcome)
	require.JSONEq(t, up.raw, string(out.Raw))
	require.Equal(t, "pat-test", up.apiKey)
}

func TestAsk_BuildsUpstreamRequest(t *testing.T) {
	up := &mockUpstream{raw: `{"code":0}`}
	svc := newTestService(t, up, okCreds(), nil)

	_, err := svc.Ask(context.Background(), AskInput{Question: "  hello  "})
	require.NoError(t, err)
	require.Equal(t, domain.WorkflowChatRequest{
		WorkflowID: "wf-1",
		AppID:      "app-1",
		Parameters: domain.WorkflowParameters{ConversationName: "resume", UserInput: "  hello  "},
		AdditionalMessages: []domain.AdditionalMessage{
			{Content: "  hello  ", ContentType: "text", Role: "user", Type: "question"},
		},
	}, up.req)
}

func TestAsk_ValidationErrors(t *testing.T) {
	for _, q := range []string{"", "   ", "\n\t"} {
		up := &mockUpstream{}
		svc := newTestService(t, up, staticCreds{err: credentials.ErrMissingCredential}, nil)
		_, err := svc.Ask(context.Background(), AskInput{Question: q})
		expectAskError(t, err, ErrorInvalidInput, "empty_question")
		require.Zero(t, up.callCount)
	}
}

func TestAsk_MissingCredential_NoUpstreamCall(t *testing.T) {
	up := &mockUpstream{raw: `{"code":0}`}
	svc := newTestService(t, up, staticCreds{err: credentials.ErrMissingCredential}, nil)

	_, err := svc.Ask(context.Background(), AskInput{Question: "hi"})
	expectAskError(t, err, ErrorMisconfigured, "missing_credential")
	require.ErrorIs(t, err, credentials.ErrMissingCredential)
	require.Zero(t, up.callCount)
}

func TestAsk_UpstreamFailure(t *testing.T) {
	up := &mockUpstream{err: errors.New("coze: request failed: connection refused")}
	svc := newTestService(t, up, okCreds(), nil)

	_, err := svc.Ask(context.Background(), AskInput{Question: "hi"})
	expectAskError(t, err, ErrorInternal, "upstream_error")

	var usecaseErr *Error
	require.ErrorAs(t, err, &usecaseErr)
	require.Equal(t, "coze: request failed: connection refused", usecaseErr.Cause())
	require.Equal(t, 1, up.callCount)
}

func TestAsk_NullUpstreamBody(t *testing.T) {
	svc := newTestService(t, &mockUpstream{raw: `null`}, okCreds(), nil)
	_, err := svc.Ask(context.Background(), AskInput{Question: "hi"})
	expectAskError(t, err, ErrorInternal, "upstream_malformed_response")
}

func TestAsk_RecordsExchange(t *testing.T) {
	rec := &mockRecorder{}
	up := &mockUpstream{raw: `{"code":1,"message":"rate limited"}`}
	svc := newTestService(t, up, okCreds(), rec)

	out, err := svc.Ask(context.Background(), AskInput{Question: "hi", CorrelationID: "corr-1"})
	require.NoError(t, err)
	require.Equal(t, "API error: rate limited", out.Answer)
	require.True(t, rec.invoked)
	require.Equal(t, "corr-1", rec.correlationID)
	require.Equal(t, "hi", rec.question)
	require.Equal(t, "API error: rate limited", rec.answer)
	require.Equal(t, domain.OutcomeUpstreamError, rec.outcome)
	require.Equal(t, 1, rec.upstreamCode)
}

func TestAsk_RecorderFailureDoesNotFailRequest(t *testing.T) {
	rec := &mockRecorder{err: errors.New("dynamodb down")}
	svc := newTestService(t, &mockUpstream{raw: `{"code":0,"data":{"messages":[{"role":"assistant","content":"ok"}]}}`}, okCreds(), rec)

	out, err := svc.Ask(context.Background(), AskInput{Question: "hi"})
	require.NoError(t, err)
	require.Equal(t, "ok", out.Answer)
	require.True(t, rec.invoked)
}

func TestAsk_NoRecordOnFailure(t *testing.T) {
	rec := &mockRecorder{}
	svc := newTestService(t, &mockUpstream{err: errors.New("boom")}, okCreds(), rec)
	_, err := svc.Ask(context.Background(), AskInput{Question: "hi"})
	require.Error(t, err)
	require.False(t, rec.invoked)
}

func TestError_Cause(t *testing.T) {
	require.Equal(t, "empty_question", newError(ErrorInvalidInput, "empty_question", nil).Cause())
	require.Equal(t, "boom", newError(ErrorInternal, "upstream_error", errors.New("boom")).Cause())
	require.Contains(t, newError(ErrorInternal, "upstream_error", errors.New("boom")).Error(), "INTERNAL_ERROR")
}
