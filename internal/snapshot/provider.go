// Package snapshot defines the persisted-state abstraction: a single
// named blob holding the full item and category collections.
package snapshot

import "github.com/arnstad/mnemo/internal/models"

// Snapshot is the full persisted state of the store. Query and
// selection state is ephemeral UI state and deliberately absent.
type Snapshot struct {
	Items      []models.KnowledgeItem `json:"items"`
	Categories []models.Category      `json:"categories"`
}

// Provider loads and saves the state snapshot.
type Provider interface {
	// Load returns the stored snapshot, or ok=false when none exists yet.
	Load() (snap *Snapshot, ok bool, err error)
	// Save writes the full snapshot, replacing any previous one.
	Save(snap *Snapshot) error
}
