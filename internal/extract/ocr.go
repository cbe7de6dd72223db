package extract

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
)

// OCR recognizes text in an image. The returned token count covers model
// usage for vision backends and is zero for local ones.
type OCR interface {
	Recognize(ctx context.Context, image []byte, mime string) (text string, tokens int, err error)
}

const visionPrompt = `Extract all text from this food packaging image in both Arabic and English.
Focus on ingredient lists, nutritional information, and product descriptions.
Return only the text, preserving line breaks and formatting.`

const visionMaxTokens = 1500

// VisionOCR reads label images with a multimodal chat model.
type VisionOCR struct {
	client  *openai.Client
	model   string
	breaker *gobreaker.CircuitBreaker
}

func NewVisionOCR(apiKey, model string) *VisionOCR {
	return &VisionOCR{
		client: openai.NewClient(apiKey),
		model:  model,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "openai-vision",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

func (o *VisionOCR) Recognize(ctx context.Context, image []byte, mime string) (string, int, error) {
	dataURL := fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(image))

	result, err := o.breaker.Execute(func() (interface{}, error) {
		return o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:     o.model,
			MaxTokens: visionMaxTokens,
			Messages: []openai.ChatCompletionMessage{
				{
					Role: openai.ChatMessageRoleUser,
					MultiContent: []openai.ChatMessagePart{
						{Type: openai.ChatMessagePartTypeText, Text: visionPrompt},
						{
							Type: openai.ChatMessagePartTypeImageURL,
							ImageURL: &openai.ChatMessageImageURL{
								URL:    dataURL,
								Detail: openai.ImageURLDetailHigh,
							},
						},
					},
				},
			},
		})
	})
	if err != nil {
		return "", 0, fmt.Errorf("vision extraction: %w", err)
	}

	resp := result.(openai.ChatCompletionResponse)
	if len(resp.Choices) == 0 {
		return "", 0, errors.New("vision extraction: no choices returned")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), resp.Usage.TotalTokens, nil
}

// TesseractOCR shells out to a local tesseract binary. Used when vision
// extraction is disabled or unavailable.
type TesseractOCR struct {
	binary    string
	languages string
}

func NewTesseractOCR(binary, languages string) *TesseractOCR {
	if binary == "" {
		binary = "tesseract"
	}
	if languages == "" {
		languages = "ara+eng"
	}
	return &TesseractOCR{binary: binary, languages: languages}
}

func (o *TesseractOCR) Recognize(ctx context.Context, image []byte, mime string) (string, int, error) {
	cmd := exec.CommandContext(ctx, o.binary, "stdin", "stdout", "-l", o.languages, "--psm", "6")
	cmd.Stdin = bytes.NewReader(image)

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", 0, fmt.Errorf("tesseract: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(out.String()), 0, nil
}
