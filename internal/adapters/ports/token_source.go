package ports

import "context"

// TokenSource fetches an OAuth access token for OpenPayU calls that require one
// (retrieve, cancel, status update). Implementations must not cache: every call
// performs a fresh client-credentials exchange.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}
