// Package classifier turns assembled prompts into verdicts. It wraps
// interchangeable scoring backends behind a gateway that retries transient
// failures and fails over between backends.
package classifier

import (
	"context"

	"github.com/groupguard/modbot/internal/prompt"
)

// Backend is one scoring model. Complete sends the request and returns the
// raw completion text; parsing happens in the gateway so every backend is
// held to the same verdict contract.
type Backend interface {
	Name() string
	Complete(ctx context.Context, req prompt.Request) (string, error)
}
