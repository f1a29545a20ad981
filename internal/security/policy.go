package security

import "regexp"

// Violation codes produced by the password policy checker. Codes are
// stable machine-readable identifiers; messages are attached only when
// the checker is configured to explain failures.
const (
	ViolationNoLowercase          = "no_lowercase"
	ViolationNoUppercase          = "no_uppercase"
	ViolationNoDigit              = "no_digit"
	ViolationNoSpecial            = "no_special"
	ViolationTooShort             = "too_short"
	ViolationConfirmationMismatch = "confirmation_mismatch"
)

var (
	policyLowercaseRe = regexp.MustCompile(`[a-z]`)
	policyUppercaseRe = regexp.MustCompile(`[A-Z]`)
	policyDigitRe     = regexp.MustCompile(`[0-9]`)
	policySpecialRe   = regexp.MustCompile(`[!"#$%&'()*+,\-./:;<=>?@\[\\\]^_` + "`" + `{|}~]`)
)

type PolicyConfig struct {
	MinimumLength   int
	ExplainFailures bool
}

type PolicyViolation struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

type PolicyResult struct {
	Input      string            `json:"input"`
	IsValid    bool              `json:"isValid"`
	Violations []PolicyViolation `json:"violations"`
}

// PolicyChecker validates candidate passwords against composable rules.
// Every base rule is evaluated against the whole candidate; there is no
// early exit, so a result carries every violated rule at once.
type PolicyChecker struct {
	cfg PolicyConfig
}

func NewPolicyChecker(cfg PolicyConfig) *PolicyChecker {
	if cfg.MinimumLength <= 0 {
		cfg.MinimumLength = 8
	}
	return &PolicyChecker{cfg: cfg}
}

// Check evaluates the five base rules.
func (c *PolicyChecker) Check(candidate string) PolicyResult {
	res := PolicyResult{Input: candidate, Violations: []PolicyViolation{}}
	if !policyLowercaseRe.MatchString(candidate) {
		res.Violations = append(res.Violations, c.violation(ViolationNoLowercase, "must contain a lowercase letter"))
	}
	if !policyUppercaseRe.MatchString(candidate) {
		res.Violations = append(res.Violations, c.violation(ViolationNoUppercase, "must contain an uppercase letter"))
	}
	if !policyDigitRe.MatchString(candidate) {
		res.Violations = append(res.Violations, c.violation(ViolationNoDigit, "must contain a digit"))
	}
	if !policySpecialRe.MatchString(candidate) {
		res.Violations = append(res.Violations, c.violation(ViolationNoSpecial, "must contain a special character"))
	}
	if len(candidate) < c.cfg.MinimumLength {
		res.Violations = append(res.Violations, c.violation(ViolationTooShort, "is too short"))
	}
	res.IsValid = len(res.Violations) == 0
	return res
}

// CheckWithConfirmation runs the base rules and, only when they all pass,
// additionally requires the confirmation string to equal the candidate.
// Skipping the confirmation rule on base failures avoids noisy compound
// results for callers that render violations.
func (c *PolicyChecker) CheckWithConfirmation(candidate, confirmation string) PolicyResult {
	res := c.Check(candidate)
	if !res.IsValid {
		return res
	}
	if confirmation != candidate {
		res.Violations = append(res.Violations, c.violation(ViolationConfirmationMismatch, "does not match the confirmation"))
		res.IsValid = false
	}
	return res
}

func (c *PolicyChecker) violation(code, message string) PolicyViolation {
	v := PolicyViolation{Code: code}
	if c.cfg.ExplainFailures {
		v.Message = message
	}
	return v
}
