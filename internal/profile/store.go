package profile

import "context"

// Store is the persistence interface for subscriber profiles.
type Store interface {
	// Get retrieves a profile by its owning user ID.
	Get(ctx context.Context, userID string) (*Profile, bool, error)

	// Put inserts or replaces a profile.
	Put(ctx context.Context, p *Profile) error

	// All returns every profile in stable insertion order. The fan-out
	// engine performs one full scan per detection; this is the documented
	// scaling limit of the base design.
	All(ctx context.Context) ([]Profile, error)
}
