//go:build !mapweb

package platform

import (
	"testing"

	"github.com/mohammed-shakir/safemap/internal/core/config"
)

func TestNative_RejectsTinyTerminal(t *testing.T) {
	cfg := config.FromEnv()
	cfg.TermWidth = 4
	if _, err := New(Deps{Config: cfg}); err == nil {
		t.Fatalf("expected error for tiny terminal")
	}
}
