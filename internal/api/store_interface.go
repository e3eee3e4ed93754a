package api

import "github.com/soaringjerry/moodtrack/internal/services"

// Store is a key-value backend the server can own and close.
type Store interface {
	services.KeyValueStore
	Close() error
}

var _ Store = (*memoryStore)(nil)
