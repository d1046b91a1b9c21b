package review

import (
	"context"
	"errors"
	"net/http"

	"google.golang.org/genai"

	ferrors "git.home.luguber.info/inful/normalize/internal/foundation/errors"
)

// Gemini reviews through the Gemini API.
type Gemini struct {
	client *genai.Client
}

// NewGemini creates a Gemini reviewer.
func NewGemini(ctx context.Context, apiKey, baseURL string) (*Gemini, error) {
	cfg := &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, ferrors.CollaboratorError("failed to create gemini client").WithCause(err).Build()
	}
	return &Gemini{client: client}, nil
}

// Review implements Reviewer.
func (g *Gemini) Review(ctx context.Context, req Request) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, req.Model, genai.Text(req.Payload),
		&genai.GenerateContentConfig{Temperature: genai.Ptr(req.Temperature)})
	if err != nil {
		return "", collaboratorError("gemini", classifyGemini(err))
	}
	text := resp.Text()
	if text == "" {
		return "", collaboratorError("gemini", ErrEmptyResponse)
	}
	return text, nil
}

func classifyGemini(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		return &RateLimitError{Err: err, Wait: suggestedWait(apiErr.Message)}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr.Code == http.StatusTooManyRequests {
		return &RateLimitError{Err: err, Wait: suggestedWait(apiErrPtr.Message)}
	}
	return err
}
