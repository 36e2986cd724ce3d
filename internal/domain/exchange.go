package domain

// Exchange outcomes recorded in the exchange log.
const (
	OutcomeAnswered      = "answered"
	OutcomeFallback      = "fallback"
	OutcomeUpstreamError = "upstream_error"
)

// Exchange is one question/answer pass through the proxy.
type Exchange struct {
	PK            string `dynamodbav:"PK"`
	SK            string `dynamodbav:"SK"`
	ExchangeID    string `dynamodbav:"exchangeId"`
	CorrelationID string `dynamodbav:"correlationId"`
	Question      string `dynamodbav:"question"`
	Answer        string `dynamodbav:"answer"`
	Outcome       string `dynamodbav:"outcome"`
	UpstreamCode  int    `dynamodbav:"upstreamCode"`
	CreatedAt     string `dynamodbav:"createdAt"`
	TTL           int64  `dynamodbav:"ttl"`
}
