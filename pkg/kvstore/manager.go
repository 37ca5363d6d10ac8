package kvstore

import (
	"fmt"
	"sync"

	"shopfront/config"
	"shopfront/pkg/logger"
)

var (
	managerMu     sync.RWMutex
	drivers       = map[string]Store{}
	defaultDriver string
)

// Connect boots the key-value manager.
// Call once at process start, before constructing the stores.
func Connect() {
	defaultDriver = config.StoreDriver()

	managerMu.Lock()
	defer managerMu.Unlock()

	// File and memory drivers are always available.
	drivers["file"] = NewFile(config.StoreRoot())
	drivers["memory"] = NewMemory()

	if defaultDriver == "redis" {
		d, err := NewRedis()
		if err != nil {
			// Degrade rather than fail: the file driver still persists locally.
			logger.Warn("kvstore: redis unavailable, falling back to file", "error", err)
			defaultDriver = "file"
		} else {
			drivers["redis"] = d
		}
	}
}

// Use returns the named driver.
//
//	kvstore.Use("memory").Set("cart_guest", lines, 0)
func Use(name string) Store {
	managerMu.RLock()
	d, ok := drivers[name]
	managerMu.RUnlock()
	if !ok {
		panic(fmt.Sprintf("kvstore: driver %q is not configured", name))
	}
	return d
}

// Default returns the driver selected by STORE_DRIVER.
func Default() Store {
	return Use(defaultDriver)
}

// RegisterDriver plugs in a custom Store implementation at boot time.
func RegisterDriver(name string, s Store) {
	managerMu.Lock()
	drivers[name] = s
	managerMu.Unlock()
}
