package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/xxxsen/mvector/internal/pkg/errdefs"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// newlineReplacer flattens whitespace before the request; embedding
// endpoints score newline-bearing input worse on some models.
var newlineReplacer = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

type openAIConfig struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url"`
}

// openAIEmbedProvider speaks the OpenAI embeddings wire format. Several
// hosted services expose the same shape, so the one client backs multiple
// registered provider names distinguished only by base URL and label.
type openAIEmbedProvider struct {
	name    string
	apiKey  string
	baseURL string
	client  *http.Client
}

type openAIEmbedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type openAIEmbedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (p *openAIEmbedProvider) Name() string {
	return p.name
}

func (p *openAIEmbedProvider) Embed(ctx context.Context, model string, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errdefs.Wrap(errdefs.KindConfiguration, p.name+" embed", ErrEmptyText)
	}
	if p.apiKey == "" {
		return nil, errdefs.Wrap(errdefs.KindConfiguration, p.name+" embed", ErrMissingAPIKey)
	}
	endpoint := strings.TrimRight(p.baseURL, "/") + "/embeddings"
	reqBody := openAIEmbedRequest{
		Model: model,
		Input: newlineReplacer.Replace(text),
	}
	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, errdefs.Wrap(errdefs.KindTransport, p.name+" request", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, errdefs.Newf(errdefs.KindProviderResponse, "%s request failed: %s: %s",
			p.name, resp.Status, strings.TrimSpace(string(body)))
	}
	var out openAIEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errdefs.Wrap(errdefs.KindProviderResponse, p.name+" decode response", err)
	}
	if len(out.Data) == 0 || len(out.Data[0].Embedding) == 0 {
		return nil, errdefs.New(errdefs.KindProviderResponse, p.name+" response has no embeddings")
	}
	return out.Data[0].Embedding, nil
}

func openAICompatibleFactory(name string, defaultBase string) EmbedProviderFactory {
	return func(args interface{}) (IEmbedProvider, error) {
		cfg := &openAIConfig{}
		if err := decodeConfig(args, cfg); err != nil {
			return nil, err
		}
		baseURL := strings.TrimSpace(cfg.BaseURL)
		if baseURL == "" {
			baseURL = defaultBase
		}
		return &openAIEmbedProvider{
			name:    name,
			apiKey:  strings.TrimSpace(cfg.APIKey),
			baseURL: baseURL,
			client:  &http.Client{Timeout: 30 * time.Second},
		}, nil
	}
}

func init() {
	Register(ProviderOpenAI, openAICompatibleFactory(ProviderOpenAI, defaultOpenAIBaseURL))
	Register(ProviderAutomattic, openAICompatibleFactory(ProviderAutomattic,
		"https://public-api.wordpress.com/wpcom/v2/vdb/ai"))
	Register(ProviderSpecter, openAICompatibleFactory(ProviderSpecter,
		"https://public-api.wordpress.com/wpcom/v2/vdb/specter"))
}
