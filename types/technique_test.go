package types

import (
	"math"
	"testing"
)

func TestCandidateFromMap(t *testing.T) {
	tests := []struct {
		name string
		in   map[string]any
		want TechniqueCandidate
	}{
		{
			name: "complete object",
			in: map[string]any{
				"id":          "T1055",
				"name":        "Process Injection",
				"description": "Adversaries may inject code into processes.",
			},
			want: TechniqueCandidate{
				ID:          "T1055",
				Name:        "Process Injection",
				Description: "Adversaries may inject code into processes.",
			},
		},
		{
			name: "missing fields get defaults",
			in:   map[string]any{"id": "T1003.001"},
			want: TechniqueCandidate{
				ID:          "T1003.001",
				Name:        UnknownTechnique,
				Description: NoDescription,
			},
		},
		{
			name: "numeric ID stringifies, nil name defaults",
			in:   map[string]any{"id": float64(1055), "name": nil},
			want: TechniqueCandidate{
				ID:          "1055",
				Name:        UnknownTechnique,
				Description: NoDescription,
			},
		},
		{
			name: "nil map",
			in:   nil,
			want: TechniqueCandidate{
				ID:          UnknownTechnique,
				Name:        UnknownTechnique,
				Description: NoDescription,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CandidateFromMap(tt.in); got != tt.want {
				t.Errorf("CandidateFromMap() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCandidatesFromMaps(t *testing.T) {
	got := CandidatesFromMaps([]map[string]any{
		{"id": "T1055", "name": "Process Injection"},
		{"id": "T1059", "name": "Command and Scripting Interpreter"},
	})
	if len(got) != 2 {
		t.Fatalf("CandidatesFromMaps() returned %d candidates, want 2", len(got))
	}
	if got[0].ID != "T1055" || got[1].ID != "T1059" {
		t.Errorf("candidate order not preserved: %+v", got)
	}

	if got := CandidatesFromMaps(nil); got != nil {
		t.Errorf("CandidatesFromMaps(nil) = %v, want nil", got)
	}
}

func TestTechniqueMapping_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mapping TechniqueMapping
		wantErr bool
	}{
		{
			name:    "valid mapping",
			mapping: TechniqueMapping{TechniqueID: "T1055", Confidence: 0.85},
			wantErr: false,
		},
		{
			name:    "boundary confidences",
			mapping: TechniqueMapping{TechniqueID: "T1055", Confidence: 1.0},
			wantErr: false,
		},
		{
			name:    "missing ID",
			mapping: TechniqueMapping{Confidence: 0.5},
			wantErr: true,
		},
		{
			name:    "confidence above one",
			mapping: TechniqueMapping{TechniqueID: "T1055", Confidence: 1.2},
			wantErr: true,
		},
		{
			name:    "negative confidence",
			mapping: TechniqueMapping{TechniqueID: "T1055", Confidence: -0.1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.mapping.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMappings_SortByConfidence(t *testing.T) {
	ms := Mappings{
		{TechniqueID: "T1003", Confidence: 0.7},
		{TechniqueID: "T1055", Confidence: 0.95},
		{TechniqueID: "T1059", Confidence: 0.8},
		{TechniqueID: "T1547", Confidence: 0.8},
	}

	ms.SortByConfidence()

	wantOrder := []string{"T1055", "T1059", "T1547", "T1003"}
	for i, want := range wantOrder {
		if ms[i].TechniqueID != want {
			t.Errorf("position %d = %s, want %s (stable descending order)", i, ms[i].TechniqueID, want)
		}
	}

	for i := 1; i < len(ms); i++ {
		if ms[i].Confidence > ms[i-1].Confidence {
			t.Errorf("mappings not sorted descending at %d", i)
		}
	}
}

func TestMappings_Top(t *testing.T) {
	ms := Mappings{
		{TechniqueID: "T1055", Confidence: 0.95},
		{TechniqueID: "T1059", Confidence: 0.8},
		{TechniqueID: "T1003", Confidence: 0.7},
	}

	if got := ms.Top(2); len(got) != 2 {
		t.Errorf("Top(2) returned %d mappings, want 2", len(got))
	}
	if got := ms.Top(10); len(got) != 3 {
		t.Errorf("Top(10) returned %d mappings, want 3", len(got))
	}
	if got := ms.Top(0); len(got) != 3 {
		t.Errorf("Top(0) returned %d mappings, want all 3", len(got))
	}
}

func TestMappings_Stats(t *testing.T) {
	ms := Mappings{
		{TechniqueID: "T1055", Confidence: 0.9},
		{TechniqueID: "T1059", Confidence: 0.8},
		{TechniqueID: "T1003", Confidence: 0.7},
	}

	avg := ms.AverageConfidence()
	if math.Abs(avg-0.8) > 1e-9 {
		t.Errorf("AverageConfidence() = %v, want 0.8", avg)
	}

	if got := ms.HighConfidenceCount(); got != 2 {
		t.Errorf("HighConfidenceCount() = %d, want 2", got)
	}

	var empty Mappings
	if got := empty.AverageConfidence(); got != 0 {
		t.Errorf("AverageConfidence() on empty = %v, want 0", got)
	}
}
