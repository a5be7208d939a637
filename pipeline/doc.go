// Package pipeline chains the six analysis stages that map a SIEM rule onto
// ATT&CK techniques: indicator extraction, context retrieval, natural
// language translation, data source identification, technique
// recommendation, and relevance scoring.
//
// The stages run in fixed order, each exactly once per run. Model-dependent
// stages degrade rather than fail: an unparseable extraction continues with
// no indicators, a failed translation falls back to a generic description,
// and a candidate whose scoring call fails is skipped. Only context
// cancellation aborts a run. The run's report records every stage's output,
// timing, token usage, and any degradations.
//
//	p, err := pipeline.New(pipeline.Config{Provider: provider})
//	if err != nil {
//		return err
//	}
//	report, err := p.Run(ctx, types.NewRule(ruleText))
//
// Consecutive live search calls are spaced by a model-dependent delay; cache
// hits skip both the call and the delay.
package pipeline
