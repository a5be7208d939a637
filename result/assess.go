package result

// Quality indicates the completeness of a run's output.
type Quality string

const (
	// QualityFull represents a run whose every stage produced real output.
	QualityFull Quality = "full"

	// QualityPartial represents a run where some stage fell back to
	// degraded output.
	QualityPartial Quality = "partial"

	// QualityEmpty represents a run that completed but mapped no techniques.
	QualityEmpty Quality = "empty"
)

// Assessment wraps a report with a quality grade, the reasons for it, and
// actionable suggestions for the analyst.
type Assessment struct {
	Quality     Quality  `json:"quality"`
	Warnings    []string `json:"warnings,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// AssessRule inspects a finished report and grades one aspect of it.
// Returns the quality level and any warnings to surface.
type AssessRule func(r *Report) (Quality, []string)

// Assessor grades reports using configurable rules.
type Assessor struct {
	rules []AssessRule
}

// NewAssessor creates an assessor with the default rules.
func NewAssessor() *Assessor {
	return &Assessor{
		rules: []AssessRule{
			checkMappings,
			checkIndicators,
			checkCandidates,
		},
	}
}

// WithRules appends custom rules to the assessor.
func (a *Assessor) WithRules(rules ...AssessRule) *Assessor {
	a.rules = append(a.rules, rules...)
	return a
}

// Assess grades the report. Each rule may downgrade the quality; warnings
// accumulate across rules and suggestions follow the final grade.
func (a *Assessor) Assess(r *Report) Assessment {
	assessment := Assessment{Quality: QualityFull}

	for _, rule := range a.rules {
		quality, warnings := rule(r)

		if shouldDowngrade(assessment.Quality, quality) {
			assessment.Quality = quality
		}
		assessment.Warnings = append(assessment.Warnings, warnings...)
	}

	assessment.Suggestions = suggestionsForQuality(assessment.Quality)
	return assessment
}

// shouldDowngrade reports whether candidate is a lower grade than current.
func shouldDowngrade(current, candidate Quality) bool {
	qualityScore := map[Quality]int{
		QualityFull:    3,
		QualityPartial: 2,
		QualityEmpty:   1,
	}
	return qualityScore[candidate] < qualityScore[current]
}

// checkMappings flags runs where nothing passed the confidence threshold.
func checkMappings(r *Report) (Quality, []string) {
	if len(r.Mappings) == 0 {
		return QualityEmpty, []string{
			"No relevant techniques found with the current confidence threshold.",
		}
	}
	return QualityFull, nil
}

// checkIndicators flags runs where extraction produced no indicators.
func checkIndicators(r *Report) (Quality, []string) {
	if r.IoCs.IsEmpty() {
		return QualityPartial, []string{
			"No indicators of compromise were extracted from the rule.",
		}
	}
	return QualityFull, nil
}

// checkCandidates flags runs where recommendation proposed nothing to score.
func checkCandidates(r *Report) (Quality, []string) {
	if len(r.Candidates) == 0 {
		return QualityPartial, []string{
			"The model proposed no candidate techniques for this rule.",
		}
	}
	return QualityFull, nil
}

// suggestionsForQuality returns actionable suggestions for the analyst.
func suggestionsForQuality(quality Quality) []string {
	switch quality {
	case QualityEmpty:
		return []string{
			"Try lowering the confidence threshold and running the analysis again",
			"Try a different model; recommendations vary between model families",
			"Check that the rule text is a complete detection rule rather than a fragment",
		}
	case QualityPartial:
		return []string{
			"Review the rule for concrete indicators such as process names, file paths, or ports",
			"Re-run the analysis; model output varies between runs",
		}
	default:
		return nil
	}
}
