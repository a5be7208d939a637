package types

import "fmt"

// Stage identifies one step of the analysis pipeline.
type Stage string

// Pipeline stages in execution order.
const (
	// StageExtractIoCs extracts indicators of compromise from the rule text.
	StageExtractIoCs Stage = "extract_iocs"

	// StageRetrieveContext fetches a web-search context snippet per indicator.
	StageRetrieveContext Stage = "retrieve_context"

	// StageTranslate converts the rule plus context into a natural-language
	// description.
	StageTranslate Stage = "translate_rule"

	// StageIdentifySource maps the description onto an ATT&CK data source.
	StageIdentifySource Stage = "identify_data_source"

	// StageRecommend proposes candidate ATT&CK techniques.
	StageRecommend Stage = "recommend_techniques"

	// StageScore scores each candidate's relevance and filters by threshold.
	StageScore Stage = "score_techniques"
)

// Stages returns the pipeline stages in their fixed execution order.
func Stages() []Stage {
	return []Stage{
		StageExtractIoCs,
		StageRetrieveContext,
		StageTranslate,
		StageIdentifySource,
		StageRecommend,
		StageScore,
	}
}

// StageCount is the number of pipeline stages.
const StageCount = 6

// String returns the string representation of the stage.
func (s Stage) String() string {
	return string(s)
}

// IsValid returns true if the stage is a recognized value.
func (s Stage) IsValid() bool {
	switch s {
	case StageExtractIoCs, StageRetrieveContext, StageTranslate,
		StageIdentifySource, StageRecommend, StageScore:
		return true
	default:
		return false
	}
}

// Number returns the 1-based position of the stage in the pipeline,
// or 0 for an unrecognized stage.
func (s Stage) Number() int {
	for i, stage := range Stages() {
		if stage == s {
			return i + 1
		}
	}
	return 0
}

// StatusMessage returns the user-facing progress message for the stage.
func (s Stage) StatusMessage() string {
	switch s {
	case StageExtractIoCs:
		return "Step 1/6: Extracting Indicators of Compromise..."
	case StageRetrieveContext:
		return "Step 2/6: Retrieving contextual information..."
	case StageTranslate:
		return "Step 3/6: Translating to natural language..."
	case StageIdentifySource:
		return "Step 4/6: Identifying data sources..."
	case StageRecommend:
		return "Step 5/6: Recommending probable techniques..."
	case StageScore:
		return "Step 6/6: Extracting relevant techniques..."
	default:
		return "Unknown stage"
	}
}

// ParseStage converts a string into a Stage, rejecting unknown values.
func ParseStage(s string) (Stage, error) {
	stage := Stage(s)
	if !stage.IsValid() {
		return "", fmt.Errorf("unknown stage %q", s)
	}
	return stage, nil
}
