package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/google/uuid"

	"chat-proxy/internal/domain"
)

const (
	pkPrefixExchange = "EXCHANGE#"
	skMeta           = "META#"
	ttlDuration      = 30 * 24 * time.Hour
)

// dynamodbAPI is the subset of *dynamodb.Client used here.
type dynamodbAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// Client writes exchange records to a DynamoDB table.
type Client struct {
	api       dynamodbAPI
	tableName string
}

func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	tableName = strings.TrimSpace(tableName)
	if tableName == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName}, nil
}

func exchangePK(exchangeID string) string {
	return pkPrefixExchange + exchangeID
}

func ttlValue(now time.Time) int64 {
	return now.Add(ttlDuration).Unix()
}

// RecordExchange stores ex once; an existing record with the same id is not
// overwritten.
func (c *Client) RecordExchange(ctx context.Context, ex domain.Exchange) error {
	if ex.PK == "" || ex.SK == "" {
		return errors.New("repository: RecordExchange: PK and SK are required")
	}

	item, err := attributevalue.MarshalMap(ex)
	if err != nil {
		return fmt.Errorf("repository: RecordExchange marshal: %w", err)
	}

	_, err = c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		return fmt.Errorf("repository: RecordExchange: %w", err)
	}
	return nil
}

// SaveExchange records one question/answer pass under a fresh id.
func (c *Client) SaveExchange(ctx context.Context, correlationID, question, answer, outcome string, upstreamCode int) error {
	ex := NewExchange(newExchangeID(), correlationID, question, answer, outcome, upstreamCode)
	if err := c.RecordExchange(ctx, ex); err != nil {
		return fmt.Errorf("repository: SaveExchange: %w", err)
	}
	return nil
}

// NewExchange builds an Exchange keyed by exchangeID with CreatedAt and TTL
// derived from the current time.
func NewExchange(exchangeID, correlationID, question, answer, outcome string, upstreamCode int) domain.Exchange {
	now := time.Now().UTC()
	return domain.Exchange{
		PK:            exchangePK(exchangeID),
		SK:            skMeta,
		ExchangeID:    exchangeID,
		CorrelationID: correlationID,
		Question:      question,
		Answer:        answer,
		Outcome:       outcome,
		UpstreamCode:  upstreamCode,
		CreatedAt:     now.Format(time.RFC3339),
		TTL:           ttlValue(now),
	}
}

var newExchangeID = func() string {
	return uuid.NewString()
}
