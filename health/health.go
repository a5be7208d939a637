package health

import "fmt"

// State classifies a component's condition.
type State string

// Component states, from best to worst.
const (
	StateHealthy   State = "healthy"
	StateDegraded  State = "degraded"
	StateUnhealthy State = "unhealthy"
)

// Status reports the condition of one component, or of the process as a
// whole when produced by Combine.
type Status struct {
	// State is the component condition.
	State State `json:"state"`

	// Message explains the state in one line.
	Message string `json:"message,omitempty"`

	// Details carries structured context (error strings, counts).
	Details map[string]any `json:"details,omitempty"`
}

// Healthy returns a healthy status with the given message.
func Healthy(message string) Status {
	return Status{State: StateHealthy, Message: message}
}

// Degraded returns a degraded status: the component works with reduced
// capability.
func Degraded(message string, details map[string]any) Status {
	return Status{State: StateDegraded, Message: message, Details: details}
}

// Unhealthy returns an unhealthy status.
func Unhealthy(message string, details map[string]any) Status {
	return Status{State: StateUnhealthy, Message: message, Details: details}
}

// IsHealthy returns true if the status is healthy.
func (s Status) IsHealthy() bool {
	return s.State == StateHealthy
}

// IsDegraded returns true if the status is degraded.
func (s Status) IsDegraded() bool {
	return s.State == StateDegraded
}

// IsUnhealthy returns true if the status is unhealthy.
func (s Status) IsUnhealthy() bool {
	return s.State == StateUnhealthy
}

// Combine aggregates multiple checks into a single status.
// The result follows this priority:
//   - If any check is unhealthy, the result is unhealthy
//   - If any check is degraded (and none unhealthy), the result is degraded
//   - If all checks are healthy, the result is healthy
func Combine(checks ...Status) Status {
	if len(checks) == 0 {
		return Healthy("no checks provided")
	}

	var unhealthyChecks []string
	var degradedChecks []string
	var healthyCount int

	for _, check := range checks {
		switch check.State {
		case StateUnhealthy:
			unhealthyChecks = append(unhealthyChecks, messageOr(check, "unnamed check"))
		case StateDegraded:
			degradedChecks = append(degradedChecks, messageOr(check, "unnamed check"))
		case StateHealthy:
			healthyCount++
		}
	}

	if len(unhealthyChecks) > 0 {
		return Unhealthy(
			fmt.Sprintf("%d check(s) failed", len(unhealthyChecks)),
			map[string]any{
				"total":         len(checks),
				"unhealthy":     len(unhealthyChecks),
				"degraded":      len(degradedChecks),
				"healthy":       healthyCount,
				"failed_checks": unhealthyChecks,
			},
		)
	}

	if len(degradedChecks) > 0 {
		return Degraded(
			fmt.Sprintf("%d check(s) degraded", len(degradedChecks)),
			map[string]any{
				"total":           len(checks),
				"degraded":        len(degradedChecks),
				"healthy":         healthyCount,
				"degraded_checks": degradedChecks,
			},
		)
	}

	return Healthy(fmt.Sprintf("all %d check(s) passed", len(checks)))
}

func messageOr(s Status, fallback string) string {
	if s.Message == "" {
		return fallback
	}
	return s.Message
}
