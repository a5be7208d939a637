// Package parser extracts structured data from raw model responses.
//
// Model output is text first and data second: the JSON a prompt asks for
// usually arrives wrapped in prose, markdown fences, or both. The helpers
// here cut the widest plausible JSON span out of the text before decoding,
// and parse the line-oriented CONFIDENCE/REASONING protocol used by the
// relevance-scoring stage.
package parser
