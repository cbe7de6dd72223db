// Package translate produces glossary-grounded translations of food label
// text via a chat completion model.
package translate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/foodlang/tarjama/internal/cost"
	"github.com/foodlang/tarjama/internal/models"
	"github.com/foodlang/tarjama/internal/retrieval"
	"github.com/foodlang/tarjama/pkg/utils"
)

const (
	maxInputLength = 10000
	retryBaseDelay = 500 * time.Millisecond
)

type Translator struct {
	retriever *retrieval.Engine
	chat      ChatClient
	meter     *cost.Meter
	counter   *cost.Counter
	retries   int
	logger    *zap.Logger
}

func NewTranslator(retriever *retrieval.Engine, chat ChatClient, meter *cost.Meter, retries int, logger *zap.Logger) *Translator {
	if retries < 1 {
		retries = 1
	}
	return &Translator{
		retriever: retriever,
		chat:      chat,
		meter:     meter,
		counter:   &cost.Counter{},
		retries:   retries,
		logger:    logger,
	}
}

// Translate translates text using the active glossary for context.
func (t *Translator) Translate(ctx context.Context, text string) (*models.Translation, error) {
	return t.TranslateAs(ctx, text, "/api/v1/translate", "translation")
}

// TranslateAs is Translate with usage attributed to a different endpoint,
// for callers like image extraction that translate as a second step.
func (t *Translator) TranslateAs(ctx context.Context, text, endpoint, requestType string) (*models.Translation, error) {
	text = utils.SanitizeText(text)
	if text == "" {
		return nil, &ValidationError{Reason: "empty text"}
	}
	if len(text) > maxInputLength {
		return nil, &ValidationError{Reason: fmt.Sprintf("text exceeds %d characters", maxInputLength)}
	}

	hints, err := t.retriever.Retrieve(ctx, text)
	if err != nil {
		return nil, err
	}

	completion, err := t.complete(ctx, BuildPrompt(text, hints))
	if err != nil {
		return nil, err
	}

	embTokens := t.counter.Count(text)
	rec, err := t.meter.Record(endpoint, requestType, embTokens, completion.TotalTokens)
	if err != nil {
		t.logger.Warn("usage record not persisted", zap.Error(err))
	}

	return &models.Translation{
		TranslatedText:   completion.Text,
		DetectedLanguage: DetectLanguage(text),
		TokensUsed:       completion.TotalTokens,
		CostEstimate:     rec.Cost,
		Hints:            hints,
	}, nil
}

// complete calls the chat model, retrying transient failures with
// exponential backoff.
func (t *Translator) complete(ctx context.Context, prompt string) (Completion, error) {
	var lastErr error
	delay := retryBaseDelay
	for attempt := 0; attempt < t.retries; attempt++ {
		if attempt > 0 {
			t.logger.Debug("retrying chat completion",
				zap.Int("attempt", attempt+1),
				zap.Error(lastErr))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return Completion{}, classify(ctx.Err())
			}
			delay *= 2
		}

		completion, err := t.chat.Complete(ctx, prompt)
		if err == nil {
			return completion, nil
		}
		lastErr = err

		var se *ServiceError
		if !errors.As(err, &se) || !se.Transient {
			return Completion{}, err
		}
	}
	return Completion{}, lastErr
}
