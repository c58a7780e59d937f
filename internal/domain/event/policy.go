package event

import "fmt"

// Policy governs how an event timestamp may change once it is set.
type Policy string

const (
	PolicyImmutable  Policy = "IMMUTABLE"
	PolicyMutable    Policy = "MUTABLE"
	PolicyFutureOnly Policy = "FUTURE_ONLY"
)

// ParsePolicy validates a policy name. An empty name is IMMUTABLE.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "":
		return PolicyImmutable, nil
	case PolicyImmutable, PolicyMutable, PolicyFutureOnly:
		return Policy(s), nil
	}
	return "", fmt.Errorf("unknown update policy %q", s)
}

// PolicyResolver maps event IDs to the policy they are created with. Custom
// events and study bursts are looked up in the configured maps and default
// to the most restrictive policy when absent.
type PolicyResolver struct {
	Custom map[string]Policy
	Bursts map[string]Policy
}

// Resolve returns the policy a new event with the given ID is created with.
func (r PolicyResolver) Resolve(id ID) Policy {
	switch id.Kind() {
	case KindCustom:
		if p, ok := r.Custom[id.Key()]; ok && p != "" {
			return p
		}
		return PolicyImmutable
	case KindStudyBurst:
		if p, ok := r.Bursts[id.Key()]; ok && p != "" {
			return p
		}
		return PolicyImmutable
	case KindSystem:
		if id.Key() == InstallLinkSent {
			return PolicyFutureOnly
		}
		return PolicyImmutable
	case KindSessionFinished, KindSurveyFinished:
		return PolicyFutureOnly
	case KindQuestionAnswered:
		return PolicyMutable
	default:
		return PolicyImmutable
	}
}

// WithBursts returns a copy of the resolver that also knows the given burst policies.
func (r PolicyResolver) WithBursts(bursts []BurstConfig) PolicyResolver {
	merged := make(map[string]Policy, len(r.Bursts)+len(bursts))
	for k, v := range r.Bursts {
		merged[k] = v
	}
	for _, b := range bursts {
		merged[b.ID] = b.Policy
	}
	return PolicyResolver{Custom: r.Custom, Bursts: merged}
}

// CanUpdate reports whether candidate may replace existing. A nil existing
// event can always be written.
func CanUpdate(existing *ActivityEvent, candidate ActivityEvent) bool {
	if existing == nil {
		return true
	}
	switch existing.Policy {
	case PolicyMutable:
		return true
	case PolicyFutureOnly:
		return candidate.Timestamp.After(existing.Timestamp)
	default:
		return false
	}
}

// CanDelete reports whether existing may be removed.
func CanDelete(existing *ActivityEvent) bool {
	return existing != nil && existing.Policy == PolicyMutable
}

// Decision is the outcome of ResolveUpdate.
type Decision struct {
	Accepted       bool   `json:"accepted"`
	RejectedReason string `json:"rejected_reason,omitempty"`
}

// ResolveUpdate explains the CanUpdate decision for candidate.
func ResolveUpdate(existing *ActivityEvent, candidate ActivityEvent) Decision {
	if CanUpdate(existing, candidate) {
		return Decision{Accepted: true}
	}
	if existing.Policy == PolicyFutureOnly {
		return Decision{RejectedReason: "timestamp must be later than the current value"}
	}
	return Decision{RejectedReason: "event is immutable once set"}
}
