//nolint:testpackage
package httprouter

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"otodake/internal/config"
	"otodake/internal/observability"
)

func TestNewUsesConfiguredHandlerTimeout(t *testing.T) {
	cfg := &config.Config{}
	cfg.HTTP.HandlerTimeout = 42 * time.Second

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := New(log, cfg, nil, nil, observability.New())

	if r.handlerTimeout != 42*time.Second {
		t.Errorf("handlerTimeout = %v, want %v", r.handlerTimeout, 42*time.Second)
	}
}
