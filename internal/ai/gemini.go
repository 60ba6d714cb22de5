package ai

import (
	"context"
	"strings"

	"google.golang.org/genai"

	"github.com/xxxsen/mvector/internal/pkg/errdefs"
)

type geminiConfig struct {
	APIKey string `json:"api_key"`
}

type geminiEmbedProvider struct {
	apiKey string
}

func (p *geminiEmbedProvider) Name() string {
	return ProviderGemini
}

func (p *geminiEmbedProvider) Embed(ctx context.Context, model string, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errdefs.Wrap(errdefs.KindConfiguration, "gemini embed", ErrEmptyText)
	}
	if p.apiKey == "" {
		return nil, errdefs.Wrap(errdefs.KindConfiguration, "gemini embed", ErrMissingAPIKey)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  p.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errdefs.Wrap(errdefs.KindTransport, "gemini client", err)
	}
	resp, err := client.Models.EmbedContent(
		ctx,
		model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: text}}}},
		nil,
	)
	if err != nil {
		return nil, errdefs.Wrap(errdefs.KindTransport, "gemini request", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, errdefs.New(errdefs.KindProviderResponse, "gemini response has no embeddings")
	}
	return resp.Embeddings[0].Values, nil
}

func createGeminiEmbedFactory(args interface{}) (IEmbedProvider, error) {
	cfg := &geminiConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	return &geminiEmbedProvider{
		apiKey: strings.TrimSpace(cfg.APIKey),
	}, nil
}

func init() {
	Register(ProviderGemini, createGeminiEmbedFactory)
}
