package providers

import (
	"context"
	"testing"
)

func TestLocalProviderEchoesFirstLine(t *testing.T) {
	p := NewLocalProvider()
	got, err := p.Chat(context.Background(), []Message{
		{Role: "user", Content: "What drives EV adoption?\nAnswer in Vietnamese."},
	})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if got != "[local-stub] What drives EV adoption?" {
		t.Fatalf("unexpected response: %q", got)
	}
}

func TestLocalProviderRequiresMessages(t *testing.T) {
	p := NewLocalProvider()
	if _, err := p.Chat(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty message list")
	}
}
