package ai

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

// scriptedProvider returns canned responses keyed by operation name
type scriptedProvider struct {
	mu        sync.Mutex
	responses map[string]string
	err       error
	calls     []CompletionRequest
}

func (p *scriptedProvider) Complete(_ context.Context, req CompletionRequest) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls = append(p.calls, req)
	if p.err != nil {
		return "", p.err
	}
	resp, ok := p.responses[req.Operation]
	if !ok {
		return "", fmt.Errorf("no scripted response for operation %q", req.Operation)
	}
	return resp, nil
}

func (p *scriptedProvider) callOperations() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	ops := make([]string, 0, len(p.calls))
	for _, call := range p.calls {
		ops = append(ops, call.Operation)
	}
	return ops
}

func TestProviderRegistry(t *testing.T) {
	t.Parallel()

	registry := NewProviderRegistry()
	registry.Register("scripted", func(config map[string]string) (CompletionProvider, error) {
		return &scriptedProvider{}, nil
	})

	if _, err := registry.GetProvider("scripted", nil); err != nil {
		t.Errorf("GetProvider(scripted) error = %v", err)
	}

	_, err := registry.GetProvider("missing", nil)
	if err == nil {
		t.Fatal("GetProvider(missing) error = nil, want ErrProviderNotFound")
	}
	var notFound *ErrProviderNotFound
	if !errors.As(err, &notFound) {
		t.Errorf("GetProvider(missing) error = %v, want *ErrProviderNotFound", err)
	}
}

func TestRegisterOpenAIRequiresAPIKey(t *testing.T) {
	t.Parallel()

	registry := NewProviderRegistry()
	RegisterOpenAI(registry)

	if _, err := registry.GetProvider("openai", map[string]string{}); err == nil {
		t.Error("GetProvider(openai) without api_key error = nil, want error")
	}

	if _, err := registry.GetProvider("openai", map[string]string{"api_key": "sk-test"}); err != nil {
		t.Errorf("GetProvider(openai) error = %v", err)
	}
}
