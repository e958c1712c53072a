package school

import (
	"math"
	"time"

	"github.com/yungbote/cadenza-backend/internal/domain/rules"
)

const (
	ResultPending = "Pending"
	ResultPass    = "Pass"
	ResultFail    = "Fail"
	ResultAbsent  = "Absent"
)

// GradeBand maps a minimum percentage to a letter.
type GradeBand struct {
	Letter     string  `yaml:"letter" json:"letter"`
	MinPercent float64 `yaml:"min_percent" json:"min_percent"`
}

// DefaultGradingScale is ordered from the highest band down.
var DefaultGradingScale = []GradeBand{
	{Letter: "A", MinPercent: 90},
	{Letter: "B", MinPercent: 80},
	{Letter: "C", MinPercent: 70},
	{Letter: "D", MinPercent: 60},
	{Letter: "F", MinPercent: 0},
}

type StudentExamination struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ExaminationID uint      `gorm:"column:examination_id;not null;uniqueIndex:idx_exam_student" json:"examination_id"`
	StudentID     uint      `gorm:"column:student_id;not null;uniqueIndex:idx_exam_student;index" json:"student_id" validate:"required"`
	RegisteredAt  time.Time `gorm:"column:registered_at;not null" json:"registered_at"`
	Score         *float64  `gorm:"column:score" json:"score,omitempty"`
	Result        string    `gorm:"column:result;size:20;not null" json:"result"`
	Remarks       *string   `gorm:"column:remarks;size:500" json:"remarks,omitempty" validate:"omitempty,max=500"`
	Student       *Student  `gorm:"foreignKey:StudentID" json:"student,omitempty" validate:"-"`
	AuditFields
}

func (StudentExamination) TableName() string { return "student_examination" }

func (se StudentExamination) Validate() []string {
	var s rules.Set
	s.Merge("", rules.Struct(se))
	s.Check(!rules.OneOf(se.Result, ResultPending, ResultPass, ResultFail, ResultAbsent),
		"result must be one of Pending, Pass, Fail, Absent")
	switch se.Result {
	case ResultPass, ResultFail:
		s.Checkf(se.Score == nil, "a %s result requires a score", se.Result)
	case ResultAbsent:
		s.Check(se.Score != nil, "an absent candidate must not have a score")
	}
	s.Check(se.Score != nil && *se.Score < 0, "score must not be negative")
	return s.List()
}

// RecordScore grades the registration against the examination's passing
// and maximum score.
func (se *StudentExamination) RecordScore(score, passing, max float64) error {
	if math.IsNaN(score) || score < 0 || score > max {
		return rangeErr("score %.2f must be between 0 and %.2f", score, max)
	}
	se.Score = &score
	if score >= passing {
		se.Result = ResultPass
	} else {
		se.Result = ResultFail
	}
	return nil
}

func (se *StudentExamination) MarkAbsent() error {
	se.Score = nil
	se.Result = ResultAbsent
	return nil
}

func (se StudentExamination) IsGraded() bool {
	return se.Result == ResultPass || se.Result == ResultFail
}

func (se StudentExamination) Percentage(max float64) float64 {
	if se.Score == nil {
		return 0
	}
	return rules.Round2(rules.Percent(*se.Score, max))
}

// LetterGrade uses DefaultGradingScale; "N/A" until a score is recorded.
func (se StudentExamination) LetterGrade(max float64) string {
	return se.LetterGradeWith(max, DefaultGradingScale)
}

func (se StudentExamination) LetterGradeWith(max float64, scale []GradeBand) string {
	if se.Score == nil || max <= 0 {
		return "N/A"
	}
	return letterFor(rules.Percent(*se.Score, max), scale)
}

func letterFor(pct float64, scale []GradeBand) string {
	for _, b := range scale {
		if pct >= b.MinPercent {
			return b.Letter
		}
	}
	if len(scale) > 0 {
		return scale[len(scale)-1].Letter
	}
	return "N/A"
}

type GradeCount struct {
	Letter string `json:"letter"`
	Count  int    `json:"count"`
}

type ExamResultSummary struct {
	Count             int          `json:"count"`
	Passed            int          `json:"passed"`
	Failed            int          `json:"failed"`
	Absent            int          `json:"absent"`
	Pending           int          `json:"pending"`
	PassRate          float64      `json:"pass_rate"`
	AverageScore      float64      `json:"average_score"`
	HighestScore      float64      `json:"highest_score"`
	LowestScore       float64      `json:"lowest_score"`
	GradeDistribution []GradeCount `json:"grade_distribution"`
}

// SummarizeExamResults folds registrations graded out of max. The grade
// distribution lists every band of scale in order, including empty ones.
func SummarizeExamResults(results []StudentExamination, max float64, scale []GradeBand) ExamResultSummary {
	if len(scale) == 0 {
		scale = DefaultGradingScale
	}
	out := ExamResultSummary{GradeDistribution: make([]GradeCount, len(scale))}
	idx := map[string]int{}
	for i, b := range scale {
		out.GradeDistribution[i].Letter = b.Letter
		idx[b.Letter] = i
	}
	var sum float64
	scored := 0
	for _, se := range results {
		out.Count++
		switch se.Result {
		case ResultPass:
			out.Passed++
		case ResultFail:
			out.Failed++
		case ResultAbsent:
			out.Absent++
		default:
			out.Pending++
		}
		if se.Score == nil {
			continue
		}
		v := *se.Score
		if scored == 0 || v > out.HighestScore {
			out.HighestScore = v
		}
		if scored == 0 || v < out.LowestScore {
			out.LowestScore = v
		}
		sum += v
		scored++
		if max > 0 {
			out.GradeDistribution[idx[letterFor(rules.Percent(v, max), scale)]].Count++
		}
	}
	out.PassRate = rules.Round2(rules.Percent(float64(out.Passed), float64(out.Passed+out.Failed)))
	if scored > 0 {
		out.AverageScore = rules.Round2(sum / float64(scored))
	}
	return out
}
