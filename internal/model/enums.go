package model

import "fmt"

// Decision is the scorer's verdict on a posting.
type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

// legacyDecisions are the values written by older deployments.
var legacyDecisions = map[string]Decision{
	"high": DecisionAccept,
	"low":  DecisionReject,
}

// ParseDecision maps a stored value back to a Decision. The legacy values
// "high" and "low" are accepted for rows written by older deployments.
func ParseDecision(s string) (Decision, error) {
	switch d := Decision(s); d {
	case DecisionAccept, DecisionReject:
		return d, nil
	}
	if d, ok := legacyDecisions[s]; ok {
		return d, nil
	}
	return "", fmt.Errorf("unknown decision %q", s)
}

// StoredValues lists every stored spelling of d, legacy ones included.
func (d Decision) StoredValues() []string {
	out := []string{string(d)}
	for legacy, cur := range legacyDecisions {
		if cur == d {
			out = append(out, legacy)
		}
	}
	return out
}

// RunStatus is the CrawlRun state. Success and failed are terminal.
type RunStatus string

const (
	RunRunning RunStatus = "running"
	RunSuccess RunStatus = "success"
	RunFailed  RunStatus = "failed"
)

// Terminal reports whether no further transition is allowed.
func (s RunStatus) Terminal() bool {
	return s == RunSuccess || s == RunFailed
}

// ParseRunStatus maps a stored value back to a RunStatus.
func ParseRunStatus(s string) (RunStatus, error) {
	switch RunStatus(s) {
	case RunRunning, RunSuccess, RunFailed:
		return RunStatus(s), nil
	}
	return "", fmt.Errorf("unknown run status %q", s)
}

// NotificationMode says what a notification row records.
type NotificationMode string

const (
	ModeSingle     NotificationMode = "single"      // instant alert for one accepted job
	ModeDigest     NotificationMode = "digest"      // one digest payload
	ModeDigestItem NotificationMode = "digest_item" // one job pushed inside a digest payload
	ModeSentinel   NotificationMode = "sentinel"    // end-of-digest marker
)

// NotificationStatus is the delivery outcome of a notification row.
type NotificationStatus string

const (
	StatusSent   NotificationStatus = "sent"
	StatusFailed NotificationStatus = "failed"
)
