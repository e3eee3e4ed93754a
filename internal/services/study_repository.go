package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/soaringjerry/moodtrack/internal/logger"
	"github.com/soaringjerry/moodtrack/internal/models"
)

// StudyRepository owns the per-participant studyData blob.
type StudyRepository struct {
	kv    KeyValueStore
	log   *logger.Logger
	locks keyedMutex
}

func NewStudyRepository(kv KeyValueStore, log *logger.Logger) *StudyRepository {
	if log == nil {
		log = logger.Nop()
	}
	return &StudyRepository{kv: kv, log: log.With("component", "StudyRepository")}
}

// Load returns the stored record, or an empty one when it is missing,
// unreadable or malformed. Read failures are logged, never returned.
func (r *StudyRepository) Load(ctx context.Context, participantID string) *models.StudyData {
	empty := &models.StudyData{EMAEntries: []models.EMAEntry{}}
	raw, ok, err := r.kv.Get(ctx, participantKey(participantID, StudyDataKey))
	if err != nil {
		r.log.Warn("load study data", "participant_id", participantID, "error", err)
		return empty
	}
	if !ok || len(raw) == 0 {
		return empty
	}
	var data models.StudyData
	if err := json.Unmarshal(raw, &data); err != nil {
		r.log.Warn("discarding malformed study data", "participant_id", participantID, "error", err)
		return empty
	}
	if data.EMAEntries == nil {
		data.EMAEntries = []models.EMAEntry{}
	}
	return &data
}

// Save overwrites the whole record; the last writer wins.
func (r *StudyRepository) Save(ctx context.Context, participantID string, data *models.StudyData) error {
	if data == nil {
		data = &models.StudyData{}
	}
	if data.EMAEntries == nil {
		data.EMAEntries = []models.EMAEntry{}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode study data: %w", err)
	}
	if err := r.kv.Put(ctx, participantKey(participantID, StudyDataKey), b); err != nil {
		return fmt.Errorf("save study data: %w", err)
	}
	return nil
}

// Update loads, applies fn and saves while holding the participant's lock.
// When fn returns an error nothing is written.
func (r *StudyRepository) Update(ctx context.Context, participantID string, fn func(*models.StudyData) error) (*models.StudyData, error) {
	unlock := r.locks.lock(participantID)
	defer unlock()
	data := r.Load(ctx, participantID)
	if err := fn(data); err != nil {
		return nil, err
	}
	if err := r.Save(ctx, participantID, data); err != nil {
		return nil, err
	}
	return data, nil
}

// Participants lists every participant that has a studyData record.
func (r *StudyRepository) Participants(ctx context.Context) ([]string, error) {
	keys, err := r.kv.Keys(ctx, "participant:")
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if id, ok := participantFromKey(k, StudyDataKey); ok {
			out = append(out, id)
		}
	}
	return out, nil
}
