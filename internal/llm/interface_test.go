package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	initErr error
}

func (p *stubProvider) Initialize(config map[string]string) error { return p.initErr }
func (p *stubProvider) GetName() string                           { return "stub" }

func (p *stubProvider) CompleteText(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	return &CompletionResponse{Text: "ок"}, nil
}

func (p *stubProvider) StreamCompletion(ctx context.Context, req CompletionRequest) (<-chan StreamResponse, error) {
	ch := make(chan StreamResponse, 1)
	ch <- StreamResponse{Done: true}
	close(ch)
	return ch, nil
}

func TestRegisterAndListProviders(t *testing.T) {
	Register("stub", func() Provider { return &stubProvider{} })

	assert.Contains(t, ListProviders(), "stub")

	provider, err := GetProvider("stub", map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, "stub", provider.GetName())
}

func TestGetProvider_Unknown(t *testing.T) {
	_, err := GetProvider("несуществующий", nil)
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestGetProvider_InitializeError(t *testing.T) {
	wantErr := errors.New("нет ключа")
	Register("stub_broken", func() Provider { return &stubProvider{initErr: wantErr} })

	_, err := GetProvider("stub_broken", map[string]string{})
	assert.ErrorIs(t, err, wantErr)
}
