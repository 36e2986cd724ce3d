package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"chat-proxy/handler"
	"chat-proxy/internal/config"
	"chat-proxy/internal/credentials"
	"chat-proxy/internal/integrations/coze"
	"chat-proxy/internal/integrations/paramstore"
	"chat-proxy/internal/locale"
	"chat-proxy/internal/logger"
	"chat-proxy/internal/repository"
	"chat-proxy/internal/usecase"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)
	messages := locale.For(cfg.Locale)

	// ---- AWS SDK config ----
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		log.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	// ---- Clients ----
	var getter credentials.Getter
	if cfg.ParamPrefix != "" {
		ssmClient, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
		if err != nil {
			log.Error("failed to create SSM client", "err", err)
			os.Exit(1)
		}
		getter = ssmClient
	}
	resolver := credentials.NewResolver(cfg.APIKey, getter, cfg.ParamPrefix)

	var recorder usecase.ExchangeRecorder
	if cfg.ExchangeTable != "" {
		exchangeClient, err := repository.New(awsdynamodb.NewFromConfig(awsCfg), cfg.ExchangeTable)
		if err != nil {
			log.Error("failed to create exchange client", "err", err)
			os.Exit(1)
		}
		recorder = exchangeClient
	}

	cozeClient, err := coze.NewClient(coze.WithBaseURL(cfg.BaseURL))
	if err != nil {
		log.Error("failed to create Coze client", "err", err)
		os.Exit(1)
	}

	// ---- Handler ----
	chatService, err := usecase.NewChatService(cozeClient, resolver, recorder, cfg.WorkflowID, cfg.AppID, messages)
	if err != nil {
		log.Error("failed to create chat service", "err", err)
		os.Exit(1)
	}

	h, err := handler.NewHandler(chatService, messages, log)
	if err != nil {
		log.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	log.Info("chat proxy starting",
		"workflow_id", cfg.WorkflowID,
		"locale", messages.Tag.String(),
		"param_store", cfg.ParamPrefix != "",
		"exchange_log", cfg.ExchangeTable != "",
	)
	lambda.Start(h.Handle)
}
