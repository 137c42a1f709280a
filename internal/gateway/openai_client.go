package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

const researchSystemPrompt = "You are an architectural researcher. Answer with a JSON object " +
	`{"summary": string, "materials": [string], "lighting": string, "vernacular": string} ` +
	"describing the building context of the given brief. No prose outside the JSON."

// OpenAIClient is the generation backend for deployments without a studio
// engine. Reference images are folded into the prompt text; the image API is
// prompt-driven.
type OpenAIClient struct {
	client     *openai.Client
	chatModel  string
	imageModel string
	limiter    *rate.Limiter
}

func NewOpenAIClient(apiKey string, ratePerMinute int) *OpenAIClient {
	if ratePerMinute <= 0 {
		ratePerMinute = 30
	}
	return &OpenAIClient{
		client:     openai.NewClient(apiKey),
		chatModel:  openai.GPT4oMini,
		imageModel: openai.CreateImageModelDallE3,
		limiter:    rate.NewLimiter(rate.Limit(float64(ratePerMinute)/60.0), 1),
	}
}

func (c *OpenAIClient) GenerateResearch(ctx context.Context, req ResearchRequest) (*Research, error) {
	logger := NewLogger(ctx)
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	user := fmt.Sprintf("Typology: %s\nLocation: %s", req.Typology, req.Location)
	if req.ContextDetails != "" {
		user += "\nContext: " + req.ContextDetails
	}
	if req.PreferredMaterials != "" {
		user += "\nPreferred materials: " + req.PreferredMaterials
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: researchSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	duration := time.Since(start)
	if err != nil {
		logger.LogError("generate_research", err)
		recordTextCall(duration, err)
		return nil, fmt.Errorf("openai chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		err := fmt.Errorf("openai returned no choices")
		logger.LogError("generate_research", err)
		recordTextCall(duration, err)
		return nil, err
	}

	var out Research
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &out); err != nil {
		logger.LogError("generate_research", err)
		recordTextCall(duration, err)
		return nil, fmt.Errorf("parse research payload: %w", err)
	}

	recordTextCall(duration, nil)
	return &out, nil
}

func (c *OpenAIClient) GenerateImage(ctx context.Context, req ImageRequest) (string, error) {
	logger := NewLogger(ctx)

	if req.BaseImage != "" {
		if _, err := DecodePayload(req.BaseImage); err != nil {
			return "", fmt.Errorf("base image: %w", err)
		}
	}

	prompt := req.Prompt
	if refs := FilterDecodable(req.ReferenceImages); len(refs) > 0 {
		prompt += fmt.Sprintf(" (blend the mood of %d supplied inspiration references)", len(refs))
	}
	if req.MassingLock {
		prompt += " Preserve the massing geometry exactly; change only surface materials and lighting."
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	start := time.Now()
	resp, err := c.client.CreateImage(ctx, openai.ImageRequest{
		Model:          c.imageModel,
		Prompt:         prompt,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	duration := time.Since(start)
	if err != nil {
		logger.LogError("generate_image", err)
		recordImageCall(duration, err)
		return "", fmt.Errorf("openai image: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		err := fmt.Errorf("openai returned no image data")
		logger.LogWarnf("generate_image", "empty image response")
		recordImageCall(duration, err)
		return "", err
	}

	recordImageCall(duration, nil)
	return "data:image/png;base64," + resp.Data[0].B64JSON, nil
}
