package model

// ProviderModelState records which provider/model pair produced the
// stored embeddings (active) and any proposed change awaiting explicit
// confirmation (pending). Stored rows are assumed to be generated
// exclusively with the active pair; flipping active without purging
// storage would mix vector spaces, so the transition only happens through
// the apply operation which truncates first.
type ProviderModelState struct {
	ActiveProvider  string `json:"active_provider"`
	ActiveModel     string `json:"active_model"`
	PendingProvider string `json:"pending_provider"`
	PendingModel    string `json:"pending_model"`
}

func (s ProviderModelState) HasActive() bool {
	return s.ActiveProvider != "" && s.ActiveModel != ""
}

func (s ProviderModelState) HasPending() bool {
	return s.PendingProvider != "" || s.PendingModel != ""
}
