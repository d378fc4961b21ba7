// Package llm adapta o cliente OpenAI de chat completions ao port
// Classifier, com a pilha de resiliência completa: bulkhead, circuit
// breaker, retry com backoff e timeout por chamada.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/IgorSimim/zoopia-go/internal/domain"
	"github.com/IgorSimim/zoopia-go/internal/infra/observability"
	"github.com/IgorSimim/zoopia-go/internal/infra/resilience"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("infra/llm")

// Config configura o adaptador do classificador.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	Resilience resilience.Config
}

// Classifier chama o modelo de linguagem com um prompt e devolve o texto
// da completion. Toda chamada passa pelo bulkhead, pelo circuit breaker e
// pelo retry de erros transitórios, sob um timeout fixo.
type Classifier struct {
	client   openai.Client
	model    string
	timeout  time.Duration
	breaker  *gobreaker.CircuitBreaker
	bulkhead *resilience.Bulkhead
	retryCfg resilience.Config
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewClassifier cria o adaptador.
func NewClassifier(cfg Config, metrics *observability.Metrics, logger *zap.Logger) *Classifier {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Classifier{
		client:   openai.NewClient(opts...),
		model:    cfg.Model,
		timeout:  cfg.Timeout,
		breaker:  resilience.NewCircuitBreaker("classifier"),
		bulkhead: resilience.NewBulkhead(cfg.Resilience.MaxConcurrency),
		retryCfg: cfg.Resilience,
		metrics:  metrics,
		logger:   logger,
	}
}

// Classify envia o prompt e devolve o texto bruto da resposta.
func (c *Classifier) Classify(ctx context.Context, prompt string) (string, error) {
	ctx, span := tracer.Start(ctx, "Classifier.Classify")
	defer span.End()
	span.SetAttributes(attribute.Int("prompt.length", len(prompt)))

	if err := c.bulkhead.Acquire(ctx); err != nil {
		return "", &domain.ErrTimeout{Operation: "classifier bulkhead"}
	}
	defer c.bulkhead.Release()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	var content string

	err := resilience.RetryWithBackoff(ctx, c.retryCfg, func() error {
		result, err := c.breaker.Execute(func() (any, error) {
			resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
				Model: openai.ChatModel(c.model),
				Messages: []openai.ChatCompletionMessageParamUnion{
					openai.UserMessage(prompt),
				},
			})
			if err != nil {
				return nil, err
			}
			if len(resp.Choices) == 0 {
				return nil, fmt.Errorf("empty completion")
			}
			c.metrics.RecordTokens(int(resp.Usage.PromptTokens), int(resp.Usage.CompletionTokens))
			return resp.Choices[0].Message.Content, nil
		})
		if err != nil {
			return err
		}
		content = result.(string)
		return nil
	})

	c.metrics.RecordRequestDuration("classifier", time.Since(start))

	if err != nil {
		c.metrics.IncrClassifierError()
		c.logger.Warn("classifier call failed", zap.Error(err))

		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			return "", &domain.ErrCircuitOpen{Service: "classifier"}
		case errors.Is(err, context.DeadlineExceeded):
			return "", &domain.ErrTimeout{Operation: "classifier"}
		default:
			return "", &domain.ErrExternalService{Service: "classifier", Err: err}
		}
	}
	return content, nil
}
