package usecase

import "chat-proxy/internal/domain"

const (
	conversationName    = "resume"
	roleUser            = "user"
	roleAssistant       = "assistant"
	contentTypeText     = "text"
	messageTypeQuestion = "question"
)

// buildWorkflowRequest passes the question through untrimmed.
func buildWorkflowRequest(workflowID, appID, question string) domain.WorkflowChatRequest {
	return domain.WorkflowChatRequest{
		WorkflowID: workflowID,
		AppID:      appID,
		Parameters: domain.WorkflowParameters{
			ConversationName: conversationName,
			UserInput:        question,
		},
		AdditionalMessages: []domain.AdditionalMessage{
			{
				Content:     question,
				ContentType: contentTypeText,
				Role:        roleUser,
				Type:        messageTypeQuestion,
			},
		},
	}
}
