package providers

import (
	"context"
	"fmt"
	"strings"
)

type Message struct {
	Role    string
	Content string
}

type Provider interface {
	Chat(ctx context.Context, messages []Message) (string, error)
	Name() string
}

// LocalProvider answers every prompt with a canned echo. It keeps the
// pipeline runnable without an API key, for dry runs and tests.
type LocalProvider struct{}

func NewLocalProvider() *LocalProvider {
	return &LocalProvider{}
}

func (l *LocalProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("no messages provided")
	}
	last := strings.TrimSpace(messages[len(messages)-1].Content)
	if idx := strings.IndexByte(last, '\n'); idx > 0 {
		last = last[:idx]
	}
	return "[local-stub] " + last, nil
}

func (l *LocalProvider) Name() string {
	return "local"
}
