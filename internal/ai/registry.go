package ai

import "strings"

// Registered provider names. These are the keys accepted by NewProvider
// and stored in the provider migration state.
const (
	ProviderOpenAI     = "openai"
	ProviderAutomattic = "automattic"
	ProviderSpecter    = "specter"
	ProviderGemini     = "gemini"
)

type ProviderInfo struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

type ModelInfo struct {
	Name       string `json:"name"`
	Label      string `json:"label"`
	Dimensions int    `json:"dimensions"`
	Provider   string `json:"provider"`
}

// Providers lists the selectable providers in display order.
func Providers() []ProviderInfo {
	return []ProviderInfo{
		{Name: ProviderOpenAI, Label: "OpenAI"},
		{Name: ProviderAutomattic, Label: "Automattic AI"},
		{Name: ProviderSpecter, Label: "Specter"},
		{Name: ProviderGemini, Label: "Google Gemini"},
	}
}

var knownModels = []ModelInfo{
	{Name: "text-embedding-3-small", Label: "Text Embedding 3 Small", Dimensions: 1536, Provider: ProviderOpenAI},
	{Name: "text-embedding-3-large", Label: "Text Embedding 3 Large", Dimensions: 3072, Provider: ProviderOpenAI},
	{Name: "text-embedding-ada-002", Label: "Text Embedding Ada 002", Dimensions: 1536, Provider: ProviderOpenAI},
	{Name: "a8cai-embedding-small-1", Label: "Automattic Embedding Small", Dimensions: 512, Provider: ProviderAutomattic},
	{Name: "a8cai-embedding-large-1", Label: "Automattic Embedding Large", Dimensions: 1024, Provider: ProviderAutomattic},
	{Name: "specter2", Label: "Specter 2", Dimensions: 768, Provider: ProviderSpecter},
	{Name: "gemini-embedding-001", Label: "Gemini Embedding", Dimensions: 3072, Provider: ProviderGemini},
}

// ModelsFor returns the known models of one provider.
func ModelsFor(provider string) []ModelInfo {
	key := strings.ToLower(strings.TrimSpace(provider))
	var out []ModelInfo
	for _, m := range knownModels {
		if m.Provider == key {
			out = append(out, m)
		}
	}
	return out
}

// LookupModel resolves a model name to its metadata; ok is false for
// models outside the table (custom deployments are still usable, the
// caller just cannot infer dimensions).
func LookupModel(name string) (ModelInfo, bool) {
	key := strings.TrimSpace(name)
	for _, m := range knownModels {
		if m.Name == key {
			return m, true
		}
	}
	return ModelInfo{}, false
}

// DefaultModelFor picks the first known model of a provider.
func DefaultModelFor(provider string) string {
	models := ModelsFor(provider)
	if len(models) == 0 {
		return ""
	}
	return models[0].Name
}
