// Package iocache persists run history for auditing.
package iocache

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/huangsam/srcmeasure/internal/contract"
	"github.com/huangsam/srcmeasure/schema"
)

// HistoryStoreManager manages the HistoryStore instance.
type HistoryStoreManager struct {
	sync.RWMutex // Protects the store pointer during initialization
	history      contract.HistoryStore
}

var _ contract.StoreManager = &HistoryStoreManager{} // Compile-time check

// GetHistoryStore returns the HistoryStore, or nil when tracking is disabled.
func (mgr *HistoryStoreManager) GetHistoryStore() contract.HistoryStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.history
}

// tableNamePattern restricts table names to SQL identifiers.
var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// validateTableName rejects anything that is not a plain identifier.
func validateTableName(tableName string) error {
	if !tableNamePattern.MatchString(tableName) {
		return fmt.Errorf("invalid table name %q: must match %s", tableName, tableNamePattern)
	}
	return nil
}

// quoteTableName quotes an identifier for the backend's dialect.
func quoteTableName(tableName string, backend schema.DatabaseBackend) string {
	if backend == schema.MySQLBackend {
		return "`" + tableName + "`"
	}
	return `"` + tableName + `"`
}

// placeholders returns n positional parameters for the backend, starting at 1.
func placeholders(backend schema.DatabaseBackend, n int) []string {
	out := make([]string, n)
	for i := range out {
		if backend == schema.PostgreSQLBackend {
			out[i] = fmt.Sprintf("$%d", i+1)
		} else {
			out[i] = "?"
		}
	}
	return out
}
