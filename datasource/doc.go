// Package datasource identifies the MITRE ATT&CK data source a detection
// rule most likely consumes, using a fixed-order keyword scan over the
// rule's natural-language description.
package datasource
