package usecase

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"

	"chat-proxy/internal/domain"
	"chat-proxy/internal/locale"
)

// noUpstreamCode is recorded when the response has no numeric code.
const noUpstreamCode = -1

type upstreamEnvelope struct {
	Code    json.RawMessage `json:"code"`
	Data    json.RawMessage `json:"data"`
	Message json.RawMessage `json:"message"`
}

type interpretation struct {
	answer       string
	outcome      string
	upstreamCode int
}

// interpretResponse picks the answer out of a workflow chat response. Fields
// of an unexpected type are treated as absent, so anything other than a
// JSON null still produces an answer.
func interpretResponse(raw json.RawMessage, msgs locale.Catalog) (interpretation, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return interpretation{}, errors.New("usecase: upstream returned an empty body")
	}

	out := interpretation{
		answer:       msgs.FallbackAnswer,
		outcome:      domain.OutcomeFallback,
		upstreamCode: noUpstreamCode,
	}

	var env upstreamEnvelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return out, nil
	}

	code, hasCode := numberValue(env.Code)
	if hasCode {
		out.upstreamCode = recordedCode(code)
	}

	if hasCode && code == 0 {
		if messages := dataMessages(env.Data); len(messages) > 0 {
			if answer, ok := firstAssistantAnswer(messages); ok {
				out.answer = answer
				out.outcome = domain.OutcomeAnswered
			}
			return out, nil
		}
	}

	if message := stringValue(env.Message); message != "" {
		out.answer = msgs.UpstreamError(message)
		out.outcome = domain.OutcomeUpstreamError
	}
	return out, nil
}

func firstAssistantAnswer(messages []domain.ChatMessage) (string, bool) {
	for _, m := range messages {
		if m.Role != roleAssistant {
			continue
		}
		if content := stringValue(m.Content); content != "" {
			return content, true
		}
	}
	return "", false
}

// dataMessages decodes data.messages. Elements that are not objects decode
// to a zero ChatMessage so they still count toward the length.
func dataMessages(data json.RawMessage) []domain.ChatMessage {
	if len(data) == 0 {
		return nil
	}
	var d struct {
		Messages json.RawMessage `json:"messages"`
	}
	if err := json.Unmarshal(data, &d); err != nil {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(d.Messages, &items); err != nil {
		return nil
	}
	messages := make([]domain.ChatMessage, 0, len(items))
	for _, item := range items {
		var m domain.ChatMessage
		if err := json.Unmarshal(item, &m); err != nil {
			m = domain.ChatMessage{}
		}
		messages = append(messages, m)
	}
	return messages
}

func numberValue(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, false
	}
	return f, true
}

// recordedCode keeps integral codes in int32 range and maps anything else
// to noUpstreamCode.
func recordedCode(code float64) int {
	if code != math.Trunc(code) || code < math.MinInt32 || code > math.MaxInt32 {
		return noUpstreamCode
	}
	return int(code)
}

func stringValue(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
