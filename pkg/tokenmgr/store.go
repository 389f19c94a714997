package tokenmgr

import "context"

// Store persists the credential pair across process restarts so a session
// survives an application reload. Save and Clear replace or remove the pair
// as a unit: a concurrent Load never observes a state with only one of the
// two tokens updated.
//
// The manager is the only component that writes through a Store; consumers
// must not mutate persisted tokens directly.
type Store interface {
	// Load returns the stored pair, or ErrNoCredentials if none is stored.
	Load(ctx context.Context) (Credentials, error)

	// Save atomically replaces the stored pair.
	Save(ctx context.Context, creds Credentials) error

	// Clear removes the stored pair. Clearing an empty store is a no-op.
	Clear(ctx context.Context) error
}
