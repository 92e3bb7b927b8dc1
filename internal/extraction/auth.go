package extraction

import "context"

// LocalVerifier is the AuthVerifier used by the stdio and CLI surfaces,
// where the caller is the operating system user and no token exchange
// happens. Networked deployments substitute a real verifier.
type LocalVerifier struct{}

// Verify always succeeds with the local identity.
func (LocalVerifier) Verify(_ context.Context, _ string) (Identity, error) {
	return LocalIdentity(), nil
}
