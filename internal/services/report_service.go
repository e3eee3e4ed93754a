package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/soaringjerry/moodtrack/internal/models"
)

type PHQScore struct {
	TotalScore  int       `json:"totalScore"`
	Severity    string    `json:"severity"`
	SubmittedAt time.Time `json:"submittedAt"`
}

type EMAStats struct {
	Completed  int `json:"completed"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

type TrendPoint struct {
	StudyDay  int         `json:"studyDay"`
	Label     string      `json:"label"`
	Responses map[int]int `json:"responses"`
}

type ReportSummary struct {
	ParticipantID string            `json:"participantId"`
	ConsentDate   time.Time         `json:"consentDate"`
	StudyDay      int               `json:"studyDay"`
	Baseline      *PHQScore         `json:"baseline"`
	FollowUp      *PHQScore         `json:"followUp"`
	Change        *int              `json:"change"`
	EMA           EMAStats          `json:"ema"`
	Questions     []QuestionSummary `json:"questions"`
	Trend         []TrendPoint      `json:"trend"`
	GeneratedAt   time.Time         `json:"generatedAt"`
}

// ReportService derives the dashboard and end-of-study report from studyData.
type ReportService struct {
	repo *StudyRepository
	loc  *time.Location
	now  func() time.Time
}

func NewReportService(repo *StudyRepository, loc *time.Location) *ReportService {
	if loc == nil {
		loc = time.Local
	}
	return &ReportService{repo: repo, loc: loc, now: time.Now}
}

func (s *ReportService) Summary(ctx context.Context, participantID string) (*ReportSummary, error) {
	d := s.repo.Load(ctx, participantID)
	consent, err := requireConsent(d)
	if err != nil {
		return nil, err
	}
	return BuildSummary(participantID, d, consent.ConsentDate, s.now()), nil
}

// BuildSummary is the pure part of Summary.
func BuildSummary(participantID string, d *models.StudyData, consentDate, now time.Time) *ReportSummary {
	sum := &ReportSummary{
		ParticipantID: participantID,
		ConsentDate:   consentDate,
		StudyDay:      StudyDay(consentDate, now),
		Baseline:      phqScore(d.PHQ8),
		FollowUp:      phqScore(d.PHQ14),
		Change:        PHQChange(d.PHQ8, d.PHQ14),
		EMA: EMAStats{
			Completed:  CompletedDays(d.EMAEntries),
			Total:      models.StudyLengthDays,
			Percentage: CompletionPercentage(d.EMAEntries),
		},
		Questions:   make([]QuestionSummary, 0, EMAQuestionCount),
		Trend:       trend(d.EMAEntries),
		GeneratedAt: now.UTC(),
	}
	for q := 1; q <= EMAQuestionCount; q++ {
		sum.Questions = append(sum.Questions, SummarizeQuestion(d.EMAEntries, q))
	}
	return sum
}

func phqScore(a *models.PHQAssessment) *PHQScore {
	if a == nil {
		return nil
	}
	return &PHQScore{TotalScore: a.TotalScore, Severity: SeverityLabel(a.TotalScore), SubmittedAt: a.SubmittedAt}
}

// trend orders entries by study day for charting.
func trend(entries []models.EMAEntry) []TrendPoint {
	sorted := append([]models.EMAEntry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].StudyDay < sorted[j].StudyDay })
	out := make([]TrendPoint, 0, len(sorted))
	for _, e := range sorted {
		out = append(out, TrendPoint{StudyDay: e.StudyDay, Label: fmt.Sprintf("Day %d", e.StudyDay), Responses: e.Responses})
	}
	return out
}

// RenderText produces the downloadable plain-text study report.
func (s *ReportService) RenderText(sum *ReportSummary) string {
	const dateLayout = "2006-01-02"
	var b strings.Builder
	line := func(format string, args ...any) { fmt.Fprintf(&b, format+"\n", args...) }

	line("DEPRESSION SYMPTOM MONITORING STUDY")
	line("=====================================")
	line("")
	line("Study Period: %s - %s", sum.ConsentDate.In(s.loc).Format(dateLayout), sum.GeneratedAt.In(s.loc).Format(dateLayout))
	line("")
	line("BASELINE ASSESSMENT (PHQ-8)")
	line("---------------------------")
	if sum.Baseline != nil {
		line("Day 0 Total Score: %d", sum.Baseline.TotalScore)
		line("Severity Category: %s", sum.Baseline.Severity)
		line("Score Range: 0-24 (monitoring only, not diagnostic)")
	} else {
		line("Day 0 Total Score: Not completed")
	}
	line("")
	line("FOLLOW-UP ASSESSMENT (PHQ-8)")
	line("-----------------------------")
	if sum.FollowUp != nil {
		line("Day 14 Total Score: %d", sum.FollowUp.TotalScore)
		line("Severity Category: %s", sum.FollowUp.Severity)
		if sum.Change != nil {
			line("Change from Baseline: %+d", *sum.Change)
		}
	} else {
		line("Day 14 Total Score: Not yet completed")
	}
	line("")
	line("DAILY ASSESSMENTS (EMA)")
	line("------------------------")
	line("Days Completed: %d / %d", sum.EMA.Completed, sum.EMA.Total)
	line("Completion Rate: %d%%", sum.EMA.Percentage)
	if sum.EMA.Completed >= sum.EMA.Total {
		line("All daily assessments completed")
	} else {
		line("%d days remaining", sum.EMA.Total-sum.EMA.Completed)
	}
	line("")
	line("SUMMARY")
	line("--------")
	line("This report summarises symptom monitoring data collected over a 14-day period.")
	line("Data is for monitoring purposes only and does not constitute a clinical diagnosis.")
	line("")
	line("Report Generated: %s", sum.GeneratedAt.In(s.loc).Format(time.RFC1123))
	b.WriteString("=====================================")
	return b.String()
}

// ExportCSV renders one participant's EMA entries in long format.
func (s *ReportService) ExportCSV(ctx context.Context, participantID string) ([]byte, error) {
	d := s.repo.Load(ctx, participantID)
	if _, err := requireConsent(d); err != nil {
		return nil, err
	}
	return ExportEMALongCSV(emaRows(participantID, d.EMAEntries))
}

// ExportAll renders every participant's EMA entries, plus one PHQ row each, for researchers.
func (s *ReportService) ExportAll(ctx context.Context) ([]byte, []byte, error) {
	ids, err := s.repo.Participants(ctx)
	if err != nil {
		return nil, nil, err
	}
	sort.Strings(ids)
	var rows []EMARow
	phq := make([]PHQRow, 0, len(ids))
	for _, id := range ids {
		d := s.repo.Load(ctx, id)
		rows = append(rows, emaRows(id, d.EMAEntries)...)
		phq = append(phq, phqRow(id, d))
	}
	emaCSV, err := ExportEMALongCSV(rows)
	if err != nil {
		return nil, nil, err
	}
	phqCSV, err := ExportPHQCSV(phq)
	if err != nil {
		return nil, nil, err
	}
	return emaCSV, phqCSV, nil
}
