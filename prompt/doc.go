// Package prompt holds the four LLM prompt templates used by the analysis
// pipeline and the builders that render them.
//
// Templates are constants; the builders validate their required slots (rule
// text, rule description) and fill in defaults for optional ones, so an
// empty prompt can never reach a provider. Structured inputs such as the
// extracted IoC set are embedded as indented JSON.
package prompt
