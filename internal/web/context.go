package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/ledgeraudit/internal/core"
)

// WithRequestMetadata marks ctx as an HTTP-triggered run from the client
// address resolved by TrustedRealIP.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ctx = core.ContextWithTrigger(ctx, core.TriggerHTTP)
	return core.ContextWithIPAddress(ctx, r.RemoteAddr)
}
