package interview

import (
	"testing"

	"github.com/google/uuid"

	"github.com/johnquangdev/mock-interview/internal/domain/entities"
)

func TestReconcile_Empty(t *testing.T) {
	got := Reconcile(nil)
	if got != (Report{}) {
		t.Fatalf("Reconcile(nil) = %+v, want zeros", got)
	}
}

func TestReconcile_MeansPerKind(t *testing.T) {
	records := []entities.AnalysisRecord{
		{ID: uuid.New(), Kind: entities.AnalysisKindContent, Rating: 7},
		{ID: uuid.New(), Kind: entities.AnalysisKindContent, Rating: 4},
		{ID: uuid.New(), Kind: entities.AnalysisKindAudio, Rating: 9},
		{ID: uuid.New(), Kind: entities.AnalysisKindAudio, Rating: 6},
		{ID: uuid.New(), Kind: entities.AnalysisKindAudio, Rating: 6},
		{ID: uuid.New(), Kind: "gesture", Rating: 1},
	}
	got := Reconcile(records)
	want := Report{
		Knowledge: 5.5,
		Audio:     7,
		Behavior:  0,
		Counts:    ReportCounts{Knowledge: 2, Audio: 3},
	}
	if got != want {
		t.Fatalf("Reconcile = %+v, want %+v", got, want)
	}
	if records[0].Rating != 7 || len(records) != 6 {
		t.Fatal("input modified")
	}
}

func TestReconcile_DuplicateIDsCountedOnce(t *testing.T) {
	id := uuid.New()
	records := []entities.AnalysisRecord{
		{ID: id, Kind: entities.AnalysisKindBehavior, Rating: 8},
		{ID: id, Kind: entities.AnalysisKindBehavior, Rating: 8},
		{Kind: entities.AnalysisKindBehavior, Rating: 2},
		{Kind: entities.AnalysisKindBehavior, Rating: 2},
	}
	got := Reconcile(records)
	if got.Behavior != 4 || got.Counts.Behavior != 3 {
		t.Fatalf("Reconcile = %+v", got)
	}
}

func TestContentStream(t *testing.T) {
	answers := []*entities.AnswerRecord{
		{ID: uuid.New(), MockID: "m", Question: "Q1", Rating: 8},
		{ID: uuid.New(), MockID: "m", Question: "Q2", Rating: 6},
	}
	analysis := []*entities.AnalysisRecord{
		{ID: uuid.New(), MockID: "m", Kind: entities.AnalysisKindAudio, Rating: 5},
	}
	got := Reconcile(ContentStream(answers, analysis))
	if got.Knowledge != 7 || got.Audio != 5 || got.Behavior != 0 {
		t.Fatalf("Reconcile = %+v", got)
	}
}
