// Package handlers contains the HTTP handlers for the update endpoint
// and the management API.
package handlers

import (
	"github.com/cdennis121/Shipyard/internal/services"
	"github.com/cdennis121/Shipyard/internal/storage"
)

var (
	// Store is the object store used for presigned transfers.
	Store storage.ObjectStore
	// Cleaner runs orphan reconciliation passes.
	Cleaner *services.Reconciler
)

// Configure wires the handlers' storage-side dependencies; called once
// at startup (and by tests).
func Configure(store storage.ObjectStore, cleaner *services.Reconciler) {
	Store = store
	Cleaner = cleaner
}
