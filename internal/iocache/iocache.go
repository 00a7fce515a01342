// Package iocache persists run history to a SQL database.
package iocache

import (
	"sync"

	"github.com/huangsam/liftwatch/internal/contract"
)

// HistoryStoreManager guards the process-wide history store.
type HistoryStoreManager struct {
	sync.RWMutex // Protects the store pointer during initialization
	history      contract.HistoryStore
}

// GetHistoryStore returns the configured HistoryStore, or nil when none was initialized.
func (mgr *HistoryStoreManager) GetHistoryStore() contract.HistoryStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.history
}
