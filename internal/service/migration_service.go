package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/mvector/internal/ai"
	"github.com/xxxsen/mvector/internal/embedcache"
	"github.com/xxxsen/mvector/internal/model"
	"github.com/xxxsen/mvector/internal/pkg/errdefs"
)

// ProviderStateOption is the options-table key holding the provider
// migration state.
const ProviderStateOption = "mvector_provider_state"

const (
	embedCacheSize = 512
	embedCacheTTL  = 10 * time.Minute
)

// StateStore is the slice of the options repo the migration service
// needs.
type StateStore interface {
	GetJSON(ctx context.Context, name string, dst interface{}) (bool, error)
	SetJSON(ctx context.Context, name string, v interface{}) error
}

// Truncator wipes the embedding store when the active model flips.
type Truncator interface {
	Truncate(ctx context.Context) error
}

// MigrationService owns the active/pending provider selection. Vectors
// from different models do not share a space, so changing the active
// pair always goes through an explicit truncate-then-apply step.
type MigrationService struct {
	opts            StateStore
	truncator       Truncator
	providerConfigs map[string]json.RawMessage

	mu        sync.Mutex
	providers map[string]ai.IEmbedProvider
}

func NewMigrationService(opts StateStore, truncator Truncator, providerConfigs map[string]json.RawMessage) *MigrationService {
	return &MigrationService{
		opts:            opts,
		truncator:       truncator,
		providerConfigs: providerConfigs,
		providers:       map[string]ai.IEmbedProvider{},
	}
}

func (s *MigrationService) State(ctx context.Context) (model.ProviderModelState, error) {
	var state model.ProviderModelState
	if _, err := s.opts.GetJSON(ctx, ProviderStateOption, &state); err != nil {
		return model.ProviderModelState{}, err
	}
	return state, nil
}

// Configure requests a provider/model selection. The first selection
// becomes active immediately; any later differing selection is staged as
// pending until Apply. Re-selecting the active pair clears a pending
// one.
func (s *MigrationService) Configure(ctx context.Context, provider, modelName string) (model.ProviderModelState, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	modelName = strings.TrimSpace(modelName)
	if provider == "" {
		return model.ProviderModelState{}, errdefs.New(errdefs.KindConfiguration, "provider is required")
	}
	if modelName == "" {
		modelName = ai.DefaultModelFor(provider)
	}
	if modelName == "" {
		return model.ProviderModelState{}, errdefs.Newf(errdefs.KindConfiguration, "no model given and no default for provider %s", provider)
	}
	if _, err := ai.NewProvider(provider, s.providerConfigs[provider]); err != nil {
		return model.ProviderModelState{}, errdefs.Wrap(errdefs.KindConfiguration, "validate provider", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	state, err := s.State(ctx)
	if err != nil {
		return model.ProviderModelState{}, err
	}
	switch {
	case !state.HasActive():
		state.ActiveProvider = provider
		state.ActiveModel = modelName
	case state.ActiveProvider == provider && state.ActiveModel == modelName:
		state.PendingProvider = ""
		state.PendingModel = ""
	default:
		state.PendingProvider = provider
		state.PendingModel = modelName
	}
	if err := s.opts.SetJSON(ctx, ProviderStateOption, state); err != nil {
		return model.ProviderModelState{}, err
	}
	logutil.GetLogger(ctx).Info("provider selection configured",
		zap.String("provider", provider), zap.String("model", modelName),
		zap.Bool("pending", state.HasPending()))
	return state, nil
}

// Apply truncates the embedding store and promotes the pending pair. A
// truncate failure leaves the state untouched so the vectors on disk
// always belong to the active model.
func (s *MigrationService) Apply(ctx context.Context) (model.ProviderModelState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, err := s.State(ctx)
	if err != nil {
		return model.ProviderModelState{}, err
	}
	if !state.HasPending() {
		return model.ProviderModelState{}, errdefs.New(errdefs.KindConfiguration, "no pending provider migration")
	}
	if err := s.truncator.Truncate(ctx); err != nil {
		return model.ProviderModelState{}, err
	}
	state.ActiveProvider = state.PendingProvider
	state.ActiveModel = state.PendingModel
	state.PendingProvider = ""
	state.PendingModel = ""
	if err := s.opts.SetJSON(ctx, ProviderStateOption, state); err != nil {
		return model.ProviderModelState{}, err
	}
	logutil.GetLogger(ctx).Info("provider migration applied",
		zap.String("provider", state.ActiveProvider), zap.String("model", state.ActiveModel))
	return state, nil
}

// Cancel drops the pending pair, keeping the active one.
func (s *MigrationService) Cancel(ctx context.Context) (model.ProviderModelState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, err := s.State(ctx)
	if err != nil {
		return model.ProviderModelState{}, err
	}
	state.PendingProvider = ""
	state.PendingModel = ""
	if err := s.opts.SetJSON(ctx, ProviderStateOption, state); err != nil {
		return model.ProviderModelState{}, err
	}
	return state, nil
}

// ActiveEmbedder returns the provider client and model of the active
// selection.
func (s *MigrationService) ActiveEmbedder(ctx context.Context) (ai.IEmbedProvider, string, error) {
	state, err := s.State(ctx)
	if err != nil {
		return nil, "", err
	}
	if !state.HasActive() {
		return nil, "", errdefs.New(errdefs.KindConfiguration, "no embedding provider configured")
	}
	provider, err := s.EmbedderFor(state.ActiveProvider)
	if err != nil {
		return nil, "", err
	}
	return provider, state.ActiveModel, nil
}

// EmbedderFor builds (and memoizes) the client for one provider name.
func (s *MigrationService) EmbedderFor(name string) (ai.IEmbedProvider, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.providers[name]; ok {
		return p, nil
	}
	p, err := ai.NewProvider(name, s.providerConfigs[name])
	if err != nil {
		return nil, errdefs.Wrap(errdefs.KindConfiguration, "build provider "+name, err)
	}
	p = embedcache.WrapLruCacheToProvider(p, embedCacheSize, embedCacheTTL)
	s.providers[name] = p
	return p, nil
}
