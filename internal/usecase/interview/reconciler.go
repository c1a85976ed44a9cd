package interview

import (
	"github.com/google/uuid"

	"github.com/johnquangdev/mock-interview/internal/domain/entities"
)

// Report is the per-category mean rating across analysis streams. An empty category is 0.
type Report struct {
	Knowledge float64      `json:"knowledge"`
	Audio     float64      `json:"audio"`
	Behavior  float64      `json:"behavior"`
	Counts    ReportCounts `json:"counts"`
}

// ReportCounts is the number of records behind each mean
type ReportCounts struct {
	Knowledge int `json:"knowledge"`
	Audio     int `json:"audio"`
	Behavior  int `json:"behavior"`
}

// Reconcile averages ratings per analysis kind. Records sharing a non-zero ID are counted once.
// records are not modified.
func Reconcile(records []entities.AnalysisRecord) Report {
	type acc struct {
		sum   int
		count int
	}
	groups := make(map[entities.AnalysisKind]*acc, 3)
	seen := make(map[uuid.UUID]struct{}, len(records))

	for i := range records {
		r := &records[i]
		if !r.Kind.Valid() {
			continue
		}
		if r.ID != uuid.Nil {
			if _, dup := seen[r.ID]; dup {
				continue
			}
			seen[r.ID] = struct{}{}
		}

		g, ok := groups[r.Kind]
		if !ok {
			g = &acc{}
			groups[r.Kind] = g
		}
		g.sum += r.Rating
		g.count++
	}

	mean := func(k entities.AnalysisKind) (float64, int) {
		g, ok := groups[k]
		if !ok || g.count == 0 {
			return 0, 0
		}
		return float64(g.sum) / float64(g.count), g.count
	}

	var rep Report
	rep.Knowledge, rep.Counts.Knowledge = mean(entities.AnalysisKindContent)
	rep.Audio, rep.Counts.Audio = mean(entities.AnalysisKindAudio)
	rep.Behavior, rep.Counts.Behavior = mean(entities.AnalysisKindBehavior)
	return rep
}

// ContentStream merges answer evaluations with stored analysis records
func ContentStream(answers []*entities.AnswerRecord, analysis []*entities.AnalysisRecord) []entities.AnalysisRecord {
	out := make([]entities.AnalysisRecord, 0, len(answers)+len(analysis))
	for _, a := range answers {
		out = append(out, a.AsAnalysis())
	}
	for _, r := range analysis {
		out = append(out, *r)
	}
	return out
}
