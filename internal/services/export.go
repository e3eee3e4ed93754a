package services

import (
	"bytes"
	"encoding/csv"
	"sort"
	"strconv"
	"time"

	"github.com/soaringjerry/moodtrack/internal/models"
)

type EMARow struct {
	ParticipantID string
	StudyDay      int
	QuestionID    int
	Score         int
	Composite     string
	SubmittedAt   string
}

type PHQRow struct {
	ParticipantID string
	Baseline      *int
	FollowUp      *int
	Change        *int
}

func emaRows(participantID string, entries []models.EMAEntry) []EMARow {
	var rows []EMARow
	for _, e := range entries {
		qids := make([]int, 0, len(e.Responses))
		for q := range e.Responses {
			qids = append(qids, q)
		}
		sort.Ints(qids)
		for _, q := range qids {
			row := EMARow{
				ParticipantID: participantID,
				StudyDay:      e.StudyDay,
				QuestionID:    q,
				Score:         e.Responses[q],
				SubmittedAt:   e.SubmittedAt.UTC().Format(time.RFC3339),
			}
			if q == EMACompositeQItem {
				row.Composite = e.CompositeResponse
			}
			rows = append(rows, row)
		}
	}
	return rows
}

func phqRow(participantID string, d *models.StudyData) PHQRow {
	row := PHQRow{ParticipantID: participantID, Change: PHQChange(d.PHQ8, d.PHQ14)}
	if d.PHQ8 != nil {
		v := d.PHQ8.TotalScore
		row.Baseline = &v
	}
	if d.PHQ14 != nil {
		v := d.PHQ14.TotalScore
		row.FollowUp = &v
	}
	return row
}

// ExportEMALongCSV renders one row per answered question.
func ExportEMALongCSV(rows []EMARow) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"participant_id", "study_day", "question_id", "score", "composite", "submitted_at"})
	for _, r := range rows {
		rec := []string{
			r.ParticipantID,
			strconv.Itoa(r.StudyDay),
			strconv.Itoa(r.QuestionID),
			strconv.Itoa(r.Score),
			r.Composite,
			r.SubmittedAt,
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// ExportPHQCSV renders baseline/follow-up totals; missing scores are empty cells.
func ExportPHQCSV(rows []PHQRow) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"participant_id", "phq8_baseline", "phq8_followup", "phq8_change"})
	for _, r := range rows {
		if err := w.Write([]string{r.ParticipantID, optInt(r.Baseline), optInt(r.FollowUp), optInt(r.Change)}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func optInt(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}
