package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/soaringjerry/moodtrack/internal/logger"
	"github.com/soaringjerry/moodtrack/internal/models"
)

// HistoryLog is the append-only, most-recent-first list of screenings and
// chat sessions kept under the mh_agent_history key.
type HistoryLog struct {
	kv    KeyValueStore
	log   *logger.Logger
	now   func() time.Time
	locks keyedMutex
}

func NewHistoryLog(kv KeyValueStore, log *logger.Logger) *HistoryLog {
	if log == nil {
		log = logger.Nop()
	}
	return &HistoryLog{
		kv:  kv,
		log: log.With("component", "HistoryLog"),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// NewEntryID builds "<type>-<unix millis>-<9 random chars>".
func NewEntryID(t models.HistoryType, at time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return string(t) + "-" + strconv.FormatInt(at.UnixMilli(), 10) + "-" + suffix
}

// NewHistoryEntry wraps a payload into an entry stamped with at.
func NewHistoryEntry(t models.HistoryType, at time.Time, payload any) (models.HistoryEntry, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return models.HistoryEntry{}, fmt.Errorf("encode %s payload: %w", t, err)
	}
	return models.HistoryEntry{ID: NewEntryID(t, at), Type: t, Timestamp: at, Data: b}, nil
}

// Append prepends entry to the stored list.
func (h *HistoryLog) Append(ctx context.Context, participantID string, entry models.HistoryEntry) error {
	unlock := h.locks.lock(participantID)
	defer unlock()
	existing := h.List(ctx, participantID)
	updated := make([]models.HistoryEntry, 0, len(existing)+1)
	updated = append(updated, entry)
	updated = append(updated, existing...)
	b, err := json.Marshal(updated)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := h.kv.Put(ctx, participantKey(participantID, HistoryKey), b); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}

// List returns every entry sorted by timestamp, newest first. A missing or
// malformed list reads as empty.
func (h *HistoryLog) List(ctx context.Context, participantID string) []models.HistoryEntry {
	raw, ok, err := h.kv.Get(ctx, participantKey(participantID, HistoryKey))
	if err != nil {
		h.log.Warn("read history", "participant_id", participantID, "error", err)
		return []models.HistoryEntry{}
	}
	if !ok || len(raw) == 0 {
		return []models.HistoryEntry{}
	}
	var entries []models.HistoryEntry
	if err := json.Unmarshal(raw, &entries); err != nil || entries == nil {
		if err != nil {
			h.log.Warn("discarding malformed history", "participant_id", participantID, "error", err)
		}
		return []models.HistoryEntry{}
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Timestamp.After(entries[j].Timestamp) })
	return entries
}

func (h *HistoryLog) Clear(ctx context.Context, participantID string) error {
	unlock := h.locks.lock(participantID)
	defer unlock()
	if err := h.kv.Delete(ctx, participantKey(participantID, HistoryKey)); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// FilterHistory keeps entries of the given type; "" or "all" keeps everything.
func FilterHistory(entries []models.HistoryEntry, t models.HistoryType) []models.HistoryEntry {
	if t == "" || t == "all" {
		return entries
	}
	out := make([]models.HistoryEntry, 0, len(entries))
	for _, e := range entries {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// Filter lists and filters in one call.
func (h *HistoryLog) Filter(ctx context.Context, participantID string, t models.HistoryType) []models.HistoryEntry {
	return FilterHistory(h.List(ctx, participantID), t)
}

// record appends an entry and swallows storage failures; the caller's
// primary result stands even when history cannot be written.
func (h *HistoryLog) record(ctx context.Context, participantID string, t models.HistoryType, payload any) *models.HistoryEntry {
	entry, err := NewHistoryEntry(t, h.now(), payload)
	if err != nil {
		h.log.Error("build history entry", "participant_id", participantID, "error", err)
		return nil
	}
	if err := h.Append(ctx, participantID, entry); err != nil {
		h.log.Error("append history entry", "participant_id", participantID, "type", t, "error", err)
		return nil
	}
	return &entry
}
