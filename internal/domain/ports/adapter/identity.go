package adapter

import "context"

// IdentityProfile is the verified identity behind a platform token.
type IdentityProfile struct {
	Subject string // opaque, stable user id
	Name    string
	Picture string
}

// IdentityVerifier exchanges an opaque bearer token for a verified
// profile. Implementations must apply their own call timeout and fail on
// invalid or expired tokens.
type IdentityVerifier interface {
	Verify(ctx context.Context, idToken string) (*IdentityProfile, error)
}
