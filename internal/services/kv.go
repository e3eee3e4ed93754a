package services

import (
	"context"
	"strings"
)

// KeyValueStore is the persistence contract every backend satisfies. Values
// are opaque JSON blobs; Get reports ok=false for a missing key.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
}

const (
	StudyDataKey = "studyData"
	HistoryKey   = "mh_agent_history"
)

// participantKey namespaces one of the two per-participant blobs.
func participantKey(participantID, name string) string {
	return "participant:" + participantID + ":" + name
}

// participantFromKey is the inverse of participantKey for the given blob name.
func participantFromKey(key, name string) (string, bool) {
	rest, ok := strings.CutPrefix(key, "participant:")
	if !ok {
		return "", false
	}
	id, ok := strings.CutSuffix(rest, ":"+name)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
