package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ram-framework/ram/types"
)

// DefaultCandidateCount is the number of techniques requested from the
// recommendation stage when the caller does not override it.
const DefaultCandidateCount = 11

// Stage templates. Placeholders are filled by the builder functions below;
// the builders are the only way to render a template, so required slots are
// always validated.
const (
	extractIoCsTemplate = `Context: You are a cybersecurity specialist analyzing SIEM rules.

Instruction: Identify and extract all Indicators of Compromise (IoCs) from the provided SIEM rule.
Extract types like processes, files, IP addresses, registry keys, log sources, event codes, network ports, domains.

Guidelines: Return results ONLY as a valid JSON dictionary where keys are IoC types and values are lists of specific IoC details.
Example format: {"processes": ["process1.exe"], "files": ["file1.txt"], "registry_keys": ["HKEY_LOCAL_MACHINE\Software\..."]}

Input: %s`

	translateRuleTemplate = `Context: You are translating a SIEM detection rule into natural language.

Instruction: Convert the provided SIEM rule into a comprehensive natural language description
that explains what the rule detects and why it's important for cybersecurity.

Guidelines:
- Include both syntactical information from the rule and semantic insights from contextual information
- Make it understandable for security analysts
- Focus on the attack behavior being detected

Input:
Rule: %s

Extracted IoCs: %s

Contextual Information: %s`

	recommendTechniquesTemplate = `Context: You are a cybersecurity expert mapping SIEM rules to MITRE ATT&CK techniques.

Instruction: Based on the rule description, recommend the top %d most probable MITRE ATT&CK
techniques or sub-techniques that match this detection rule. Focus on what attack behaviors
this rule would detect.

Guidelines:
- Return results as a JSON array of objects
- Each object should have: "id", "name", "description"
- Use real MITRE ATT&CK technique IDs (like T1055, T1003.001, etc.)
- Prioritize techniques that match the specific behaviors described

Rule Description: %s`

	scoreTechniqueTemplate = `Context: Compare a SIEM rule description with a MITRE ATT&CK technique for relevance.

Instruction: Analyze how well the SIEM rule matches the attack technique.
Provide a confidence score (0.0 to 1.0) and reasoning.

Guidelines:
- Score 0.9-1.0: Perfect match
- Score 0.7-0.9: Good match
- Score 0.5-0.7: Moderate match
- Score 0.0-0.5: Poor match
- Provide clear reasoning

Rule Description: %s

Technique: %s - %s
Description: %s

Respond in format:
CONFIDENCE: [score]
REASONING: [your reasoning]`
)

// ExtractIoCs builds the stage-1 prompt asking the model to pull indicators
// out of raw rule text.
func ExtractIoCs(rule string) (string, error) {
	if strings.TrimSpace(rule) == "" {
		return "", &types.ValidationError{Field: "rule", Message: "rule text cannot be empty"}
	}
	return fmt.Sprintf(extractIoCsTemplate, rule), nil
}

// TranslateRule builds the stage-3 prompt asking the model to describe the
// rule in natural language. The extracted IoCs and retrieved context are
// embedded as indented JSON.
func TranslateRule(rule string, iocs types.IoCSet, contextByIoC map[string]string) (string, error) {
	if strings.TrimSpace(rule) == "" {
		return "", &types.ValidationError{Field: "rule", Message: "rule text cannot be empty"}
	}

	if iocs == nil {
		iocs = types.IoCSet{}
	}
	if contextByIoC == nil {
		contextByIoC = map[string]string{}
	}

	iocsJSON, err := json.MarshalIndent(iocs, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal iocs: %w", err)
	}
	contextJSON, err := json.MarshalIndent(contextByIoC, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal context: %w", err)
	}

	return fmt.Sprintf(translateRuleTemplate, rule, iocsJSON, contextJSON), nil
}

// RecommendTechniques builds the stage-5 prompt asking the model for the top
// k candidate techniques. k defaults to DefaultCandidateCount when not
// positive.
func RecommendTechniques(description string, k int) (string, error) {
	if strings.TrimSpace(description) == "" {
		return "", &types.ValidationError{Field: "description", Message: "rule description cannot be empty"}
	}
	if k <= 0 {
		k = DefaultCandidateCount
	}
	return fmt.Sprintf(recommendTechniquesTemplate, k, description), nil
}

// ScoreTechnique builds the stage-6 prompt comparing the rule description
// against one candidate technique. Empty candidate fields get the same
// placeholder values the parsing layer uses.
func ScoreTechnique(description string, candidate types.TechniqueCandidate) (string, error) {
	if strings.TrimSpace(description) == "" {
		return "", &types.ValidationError{Field: "description", Message: "rule description cannot be empty"}
	}

	id := candidate.ID
	if id == "" {
		id = types.UnknownTechnique
	}
	name := candidate.Name
	if name == "" {
		name = types.UnknownTechnique
	}
	desc := candidate.Description
	if desc == "" {
		desc = types.NoDescription
	}

	return fmt.Sprintf(scoreTechniqueTemplate, description, id, name, desc), nil
}
