package gemini

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// ErrNoImage is returned when the model produced no image part.
var ErrNoImage = errors.New("no image was generated by the API")

// Config holds Gemini connection configuration
type Config struct {
	APIKey string
	Model  string
}

// Client wraps the Gemini API for image-to-image generation
type Client struct {
	genai *genai.Client
	model string
}

// NewClient creates a Gemini client
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{genai: client, model: cfg.Model}, nil
}

// GenerateImage sends one prompt + source image and returns the generated
// image bytes. Exactly one image per call; a response without an inline
// image part is an error.
func (c *Client) GenerateImage(ctx context.Context, prompt string, image []byte, mimeType string) ([]byte, error) {
	content := &genai.Content{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			genai.NewPartFromText(prompt),
			genai.NewPartFromBytes(image, mimeType),
		},
	}

	result, err := c.genai.Models.GenerateContent(ctx, c.model,
		[]*genai.Content{content},
		&genai.GenerateContentConfig{
			ResponseModalities: []string{"IMAGE", "TEXT"},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}

	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData.Data, nil
			}
		}
	}

	return nil, ErrNoImage
}
