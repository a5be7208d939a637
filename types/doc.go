// Package types provides the core type definitions for the RAM analysis
// pipeline.
//
// This package defines the entities that flow between pipeline stages:
// rules, extracted indicators, retrieved context snippets, candidate
// techniques, and scored technique mappings.
//
// # Rules and indicators
//
// A Rule wraps opaque SIEM rule text; RAM never interprets the syntax:
//
//	rule := types.NewRule(`index=main EventCode=4688 ...`)
//	if rule.IsEmpty() {
//	    // reject before any model call
//	}
//
// An IoCSet holds model-extracted indicators grouped by free-form category:
//
//	iocs := types.IoCSet{
//	    "processes":   {"powershell.exe"},
//	    "event_codes": {"4688"},
//	}
//	for _, category := range iocs.Categories() { // deterministic order
//	    values := iocs.Values(category, 3)
//	    ...
//	}
//
// # Technique mappings
//
// TechniqueCandidate carries a recommendation-stage proposal; missing fields
// receive fixed defaults so downstream stages never see empty identifiers.
// TechniqueMapping is the scored final output unit:
//
//	mappings.SortByConfidence()
//	top := mappings.Top(5)
//
// # Stages
//
// Stage enumerates the six pipeline steps in their fixed execution order and
// supplies the user-facing progress messages.
package types
