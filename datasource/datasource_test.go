package datasource

import "testing"

func TestIdentify(t *testing.T) {
	tests := []struct {
		name        string
		description string
		want        string
	}{
		{
			name:        "process keyword",
			description: "This rule detects suspicious process launches",
			want:        "Command: Command Execution",
		},
		{
			name:        "registry keyword",
			description: "Monitors registry modifications under the Run key",
			want:        "Windows Registry: Windows Registry Key Modification",
		},
		{
			name:        "file keyword",
			description: "Watches for file drops in temp directories",
			want:        "File: File Creation",
		},
		{
			name:        "network keyword",
			description: "Detects network connections to unusual ports",
			want:        "Network Traffic: Network Traffic Flow",
		},
		{
			name:        "endpoint keyword",
			description: "Alerts on endpoint activity",
			want:        "Process: Process Creation",
		},
		{
			name:        "authentication keyword",
			description: "Flags repeated authentication failures",
			want:        "Logon Session: Logon Session Creation",
		},
		{
			name:        "service keyword",
			description: "Detects new service installs",
			want:        "Service: Service Creation",
		},
		{
			name:        "no keyword falls back to default",
			description: "Something entirely unrelated",
			want:        DefaultSource,
		},
		{
			name:        "empty description falls back to default",
			description: "",
			want:        DefaultSource,
		},
		{
			name:        "case insensitive",
			description: "SUSPICIOUS REGISTRY WRITE",
			want:        "Windows Registry: Windows Registry Key Modification",
		},
		{
			name:        "matches inside larger words",
			description: "watches running processes for anomalies",
			want:        "Command: Command Execution",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Identify(tt.description); got != tt.want {
				t.Errorf("Identify(%q) = %q, want %q", tt.description, got, tt.want)
			}
		})
	}
}

// The scan order is fixed: earlier keywords shadow later ones when a
// description mentions several.
func TestIdentify_FirstKeywordWins(t *testing.T) {
	description := "rule inspects network traffic, file writes, and process creation events"

	if got := Identify(description); got != "Command: Command Execution" {
		t.Errorf("Identify() = %q, want the process mapping to win", got)
	}
}
