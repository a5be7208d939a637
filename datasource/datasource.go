package datasource

import "strings"

// DefaultSource is returned when no keyword matches the description.
const DefaultSource = "Process: Process Creation"

// mapping pairs a keyword with the data source it selects.
type mapping struct {
	keyword string
	source  string
}

// mappings is scanned in order; the first keyword found in the description
// wins, so the order is part of the contract.
var mappings = []mapping{
	{"process", "Command: Command Execution"},
	{"registry", "Windows Registry: Windows Registry Key Modification"},
	{"file", "File: File Creation"},
	{"network", "Network Traffic: Network Traffic Flow"},
	{"endpoint", "Process: Process Creation"},
	{"authentication", "Logon Session: Logon Session Creation"},
	{"service", "Service: Service Creation"},
}

// Identify maps a rule description onto the ATT&CK data source most likely
// to feed the detection. The match is a fixed-order keyword scan over the
// lowercased description.
func Identify(description string) string {
	lower := strings.ToLower(description)

	for _, m := range mappings {
		if strings.Contains(lower, m.keyword) {
			return m.source
		}
	}

	return DefaultSource
}
