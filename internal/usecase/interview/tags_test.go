package interview

import (
	"reflect"
	"testing"

	"github.com/johnquangdev/mock-interview/internal/domain/entities"
)

func TestMergeTags(t *testing.T) {
	tests := []struct {
		name    string
		profile entities.SkillProfile
		tags    map[string]int
		want    entities.SkillProfile
	}{
		{"empty profile inserts verbatim", entities.SkillProfile{}, map[string]int{"communication": 70}, entities.SkillProfile{"communication": 70}},
		{"existing skill averaged", entities.SkillProfile{"communication": 70}, map[string]int{"communication": 50}, entities.SkillProfile{"communication": 60}},
		{"half rounds up", entities.SkillProfile{"go": 70}, map[string]int{"go": 75}, entities.SkillProfile{"go": 73}},
		{"unreported skill kept", entities.SkillProfile{"sql": 40, "go": 80}, map[string]int{"go": 60}, entities.SkillProfile{"sql": 40, "go": 70}},
		{"nil tags", entities.SkillProfile{"go": 80}, nil, entities.SkillProfile{"go": 80}},
		{"nil profile", nil, map[string]int{"go": 10}, entities.SkillProfile{"go": 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeTags(tt.profile, tt.tags)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("MergeTags = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMergeTags_SequenceFromEmpty(t *testing.T) {
	t1 := map[string]int{"communication": 70, "design": 30}
	t2 := map[string]int{"communication": 55, "testing": 90}

	p := MergeTags(entities.SkillProfile{}, t1)
	p = MergeTags(p, t2)

	if p["communication"] != roundHalfUp(float64(70+55)/2) {
		t.Fatalf("communication = %d", p["communication"])
	}
	if p["design"] != 30 || p["testing"] != 90 {
		t.Fatalf("unexpected profile %v", p)
	}
}

func TestMergeTags_RepeatedInputNotIdempotent(t *testing.T) {
	p := MergeTags(entities.SkillProfile{"go": 90}, map[string]int{"go": 50})
	if p["go"] != 70 {
		t.Fatalf("first merge = %d, want 70", p["go"])
	}
	p = MergeTags(p, map[string]int{"go": 50})
	if p["go"] != 60 {
		t.Fatalf("second identical merge = %d, want 60", p["go"])
	}
}

func TestMergeTags_DoesNotMutateInput(t *testing.T) {
	in := entities.SkillProfile{"go": 90}
	_ = MergeTags(in, map[string]int{"go": 10})
	if in["go"] != 90 {
		t.Fatalf("input mutated: %v", in)
	}
}
