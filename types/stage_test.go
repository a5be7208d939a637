package types

import (
	"testing"
)

func TestStages_Order(t *testing.T) {
	want := []Stage{
		StageExtractIoCs,
		StageRetrieveContext,
		StageTranslate,
		StageIdentifySource,
		StageRecommend,
		StageScore,
	}

	got := Stages()
	if len(got) != StageCount {
		t.Fatalf("Stages() returned %d stages, want %d", len(got), StageCount)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Stages()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestStage_Number(t *testing.T) {
	tests := []struct {
		name  string
		stage Stage
		want  int
	}{
		{"extract iocs", StageExtractIoCs, 1},
		{"retrieve context", StageRetrieveContext, 2},
		{"translate", StageTranslate, 3},
		{"identify source", StageIdentifySource, 4},
		{"recommend", StageRecommend, 5},
		{"score", StageScore, 6},
		{"unknown", Stage("bogus"), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.stage.Number(); got != tt.want {
				t.Errorf("Number() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStage_IsValid(t *testing.T) {
	for _, stage := range Stages() {
		if !stage.IsValid() {
			t.Errorf("stage %q reported invalid", stage)
		}
	}

	if Stage("").IsValid() {
		t.Error("empty stage reported valid")
	}
	if Stage("extract").IsValid() {
		t.Error("partial stage name reported valid")
	}
}

func TestStage_StatusMessage(t *testing.T) {
	tests := []struct {
		stage Stage
		want  string
	}{
		{StageExtractIoCs, "Step 1/6: Extracting Indicators of Compromise..."},
		{StageRetrieveContext, "Step 2/6: Retrieving contextual information..."},
		{StageTranslate, "Step 3/6: Translating to natural language..."},
		{StageIdentifySource, "Step 4/6: Identifying data sources..."},
		{StageRecommend, "Step 5/6: Recommending probable techniques..."},
		{StageScore, "Step 6/6: Extracting relevant techniques..."},
		{Stage("bogus"), "Unknown stage"},
	}

	for _, tt := range tests {
		t.Run(string(tt.stage), func(t *testing.T) {
			if got := tt.stage.StatusMessage(); got != tt.want {
				t.Errorf("StatusMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseStage(t *testing.T) {
	stage, err := ParseStage("extract_iocs")
	if err != nil {
		t.Fatalf("ParseStage() error = %v", err)
	}
	if stage != StageExtractIoCs {
		t.Errorf("ParseStage() = %v, want %v", stage, StageExtractIoCs)
	}

	if _, err := ParseStage("nonsense"); err == nil {
		t.Error("ParseStage() accepted unknown stage")
	}
}
