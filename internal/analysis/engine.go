package analysis

import "strings"

// Verdict statuses.
const (
	StatusPass        = "Pass"
	StatusNeedsReview = "Needs review"
	StatusPolicyIssue = "Policy issue"
)

// Detection thresholds and risk weights. Empirically chosen demo values;
// tunable, not physically grounded.
const (
	cloneThreshold       = 0.97
	periodicityThreshold = 0.25
	passRiskCutoff       = 25

	weightUndeclaredMark = 50
	weightDuplication    = 40
	weightSynthetic      = 35
	weightNoDevice       = 40
)

// Evidence is the signal vector extracted from one image, plus the
// caller-supplied declaration. It is fully determined by the file bytes,
// the stamp template, and the fixed sampler seed.
type Evidence struct {
	HasRaw           bool
	ExifOK           bool
	MetadataMark     bool
	VisibleMark      bool
	CloneScore       float64
	PeriodicityScore float64
	AIDeclared       bool
}

// MarkPresent reports whether any watermark evidence was found, embedded or
// visible.
func (e Evidence) MarkPresent() bool {
	return e.MetadataMark || e.VisibleMark
}

func (e Evidence) hasDeviceData() bool {
	return e.HasRaw || e.ExifOK
}

func (e Evidence) hasSyntheticSignal() bool {
	return e.PeriodicityScore > periodicityThreshold ||
		e.CloneScore > cloneThreshold ||
		e.MarkPresent()
}

// Decision is the outcome of the policy evaluation.
type Decision struct {
	Status string
	Risk   int
	Reason string
}

// riskRule is one entry of the additive policy table: when trigger fires the
// weight is added to the risk and the reason is appended.
type riskRule struct {
	trigger func(Evidence) bool
	weight  int
	reason  string
}

// riskRules is evaluated in order; the order also fixes the reason text
// ordering in the final verdict.
var riskRules = []riskRule{
	{
		trigger: func(e Evidence) bool { return e.MarkPresent() && !e.AIDeclared },
		weight:  weightUndeclaredMark,
		reason:  "watermark present without declaration",
	},
	{
		trigger: func(e Evidence) bool { return e.CloneScore > cloneThreshold },
		weight:  weightDuplication,
		reason:  "duplicated regions detected",
	},
	{
		trigger: func(e Evidence) bool { return e.PeriodicityScore > periodicityThreshold },
		weight:  weightSynthetic,
		reason:  "synthetic patterns detected",
	},
	{
		trigger: func(e Evidence) bool { return !e.hasDeviceData() },
		weight:  weightNoDevice,
		reason:  "no device metadata",
	},
}

// Decide maps an evidence vector to a verdict. It is a pure function: no
// state, no side effects, each case terminal.
func Decide(e Evidence) Decision {
	// Declared digital generation short-circuits the risk accumulation
	// entirely: the only question is whether the work is watermarked.
	if e.AIDeclared && e.MarkPresent() {
		return Decision{Status: StatusPass, Risk: 10, Reason: "declared digital generation with valid watermark"}
	}
	if e.AIDeclared {
		return Decision{Status: StatusPolicyIssue, Risk: 100, Reason: "declared digital generation but watermark missing"}
	}

	risk := 0
	var reasons []string
	for _, rule := range riskRules {
		if rule.trigger(e) {
			risk += rule.weight
			reasons = append(reasons, rule.reason)
		}
	}

	var status string
	switch {
	case risk <= passRiskCutoff && e.hasDeviceData():
		status = StatusPass
		// The all-clear verdict replaces itemized findings with one
		// canonical sentence.
		reasons = []string{"verified authentic — device metadata present, no suspicious patterns"}
	case e.hasSyntheticSignal() && !e.hasDeviceData():
		status = StatusPolicyIssue
		reasons = append(reasons, "likely digitally generated — declaration and watermark required")
	case !e.hasDeviceData():
		status = StatusPolicyIssue
		reasons = append(reasons, "unable to verify authentic origin")
	default:
		status = StatusNeedsReview
		reasons = append(reasons, "device metadata present but suspicious patterns detected")
	}

	return Decision{Status: status, Risk: clampRisk(risk), Reason: strings.Join(reasons, "; ")}
}

func clampRisk(risk int) int {
	if risk < 0 {
		return 0
	}
	if risk > 100 {
		return 100
	}
	return risk
}
