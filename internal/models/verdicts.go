package models

// ConfidenceTier is the gate's read on how much signal the snapshot holds.
type ConfidenceTier string

const (
	ConfidenceLow    ConfidenceTier = "LOW"
	ConfidenceMedium ConfidenceTier = "MEDIUM"
	ConfidenceHigh   ConfidenceTier = "HIGH"
)

// GateDecision is the confidence gate's output. AllowReasoning is derived
// from fixed thresholds only; Reason is free text and may be phrased by
// the completion service.
type GateDecision struct {
	Confidence     ConfidenceTier `json:"confidence"`
	Reason         string         `json:"reason"`
	AllowReasoning bool           `json:"allow_reasoning"`
}

// AuditDecision is the auditor's verdict on a generated draft.
type AuditDecision string

const (
	AuditPass   AuditDecision = "PASS"
	AuditSoften AuditDecision = "SOFTEN"
	AuditReject AuditDecision = "REJECT"
)

// AuditVerdict reviews a draft against safety and tone policy.
// SuggestedRevision is present iff Decision is SOFTEN.
type AuditVerdict struct {
	Decision          AuditDecision `json:"decision"`
	Critique          string        `json:"critique"`
	SuggestedRevision string        `json:"suggested_revision,omitempty"`
}
