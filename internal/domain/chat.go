package domain

import "encoding/json"

// ChatMessage is a message as Coze returns it inside data.messages.
// Content stays raw because non-text messages carry objects there.
type ChatMessage struct {
	Role        string          `json:"role"`
	Type        string          `json:"type,omitempty"`
	Content     json.RawMessage `json:"content,omitempty"`
	ContentType string          `json:"content_type,omitempty"`
}

// AdditionalMessage is a message injected into the workflow run.
type AdditionalMessage struct {
	Content     string `json:"content"`
	ContentType string `json:"content_type"`
	Role        string `json:"role"`
	Type        string `json:"type"`
}

type WorkflowParameters struct {
	ConversationName string `json:"CONVERSATION_NAME"`
	UserInput        string `json:"USER_INPUT"`
}

// WorkflowChatRequest is the body of POST /v1/workflows/chat.
type WorkflowChatRequest struct {
	WorkflowID         string              `json:"workflow_id"`
	AppID              string              `json:"app_id"`
	Parameters         WorkflowParameters  `json:"parameters"`
	AdditionalMessages []AdditionalMessage `json:"additional_messages"`
}
