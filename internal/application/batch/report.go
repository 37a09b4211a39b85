package batch

import "github.com/gcci/certgen/internal/domain/certificate"

// Score range for evaluations
const (
	MinScore = 3
	MaxScore = 5
)

// EvaluationCategories is the fixed list of report test parameters.
var EvaluationCategories = []string{
	"Reliability",
	"Scalability",
	"Robustness/Resilience",
	"Latency",
	"Throughput",
	"Security",
	"Usability/User-Friendliness",
	"Maintainability",
	"Availability",
	"Cost",
	"Flexibility/Adaptability",
	"Portability",
	"Interoperability",
	"Resource Utilization",
	"Documentation Quality",
}

var remarks = map[int]string{
	5: "Excellent performance under all tested conditions.",
	4: "Good performance with minor improvements suggested.",
	3: "Acceptable performance; needs better optimization.",
}

// Remark returns the fixed remark for a score.
func Remark(score int) string {
	return remarks[clampScore(score)]
}

func clampScore(score int) int {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

// Evaluation is one scored report row.
type Evaluation struct {
	Category string
	Score    int
	Remark   string
}

// Report pairs a record's input fields with evaluation rows. It shares
// its key with the artifact it accompanies.
type Report struct {
	Index       int
	Key         string
	Fields      []certificate.FieldValue
	Evaluations []Evaluation
}

// BuildReport derives the report for an artifact.
func BuildReport(a *Artifact, scorer Scorer) *Report {
	evals := make([]Evaluation, 0, len(EvaluationCategories))
	for _, category := range EvaluationCategories {
		score := clampScore(scorer.Score())
		evals = append(evals, Evaluation{
			Category: category,
			Score:    score,
			Remark:   remarks[score],
		})
	}
	return &Report{
		Index:       a.Index,
		Key:         a.Key,
		Fields:      a.Record.Data.Values(),
		Evaluations: evals,
	}
}

// FileName is the report's name in any report store.
func (r *Report) FileName() string {
	return "gcci_report_" + r.Key + ".csv"
}

// SkippedFileName names the run's skipped-rows report.
func SkippedFileName(runID string) string {
	return "gcci_skipped_" + runID + ".csv"
}
