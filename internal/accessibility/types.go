package accessibility

import (
	"fmt"
	"strings"
)

// WCAGLevel represents different WCAG compliance levels.
type WCAGLevel string

const (
	WCAGLevelA   WCAGLevel = "A"
	WCAGLevelAA  WCAGLevel = "AA"
	WCAGLevelAAA WCAGLevel = "AAA"
)

// ParseLevel accepts "a", "aa" or "aaa" in any case.
func ParseLevel(s string) (WCAGLevel, error) {
	switch WCAGLevel(strings.ToUpper(strings.TrimSpace(s))) {
	case WCAGLevelA:
		return WCAGLevelA, nil
	case WCAGLevelAA:
		return WCAGLevelAA, nil
	case WCAGLevelAAA:
		return WCAGLevelAAA, nil
	default:
		return "", fmt.Errorf("unknown WCAG level %q", s)
	}
}

func (l WCAGLevel) rank() int {
	switch l {
	case WCAGLevelA:
		return 1
	case WCAGLevelAA:
		return 2
	case WCAGLevelAAA:
		return 3
	default:
		return 0
	}
}

// Includes reports whether a rule at level other applies when auditing at l.
func (l WCAGLevel) Includes(other WCAGLevel) bool {
	return other.rank() <= l.rank()
}

// ViolationImpact represents the potential impact of an accessibility violation.
type ViolationImpact string

const (
	ImpactCritical ViolationImpact = "critical"
	ImpactSerious  ViolationImpact = "serious"
	ImpactModerate ViolationImpact = "moderate"
	ImpactMinor    ViolationImpact = "minor"
)

// Rule is one accessibility check.
type Rule struct {
	ID          string
	Description string
	Level       WCAGLevel
	Criteria    string
	Impact      ViolationImpact
	// DocumentOnly rules are skipped for fragments without an <html> tag.
	DocumentOnly bool

	check func(doc *document) []finding
}

// Violation is a single accessibility issue found in a page.
type Violation struct {
	Rule     string          `json:"rule"`
	Level    WCAGLevel       `json:"level"`
	Criteria string          `json:"criteria"`
	Impact   ViolationImpact `json:"impact"`
	Element  string          `json:"element"`
	Message  string          `json:"message"`
}

// Report contains the results of auditing one page.
type Report struct {
	Path       string      `json:"path"`
	Level      WCAGLevel   `json:"level"`
	Violations []Violation `json:"violations"`
}

// Passed reports whether the page had no violations.
func (r *Report) Passed() bool {
	return len(r.Violations) == 0
}

type finding struct {
	element string
	message string
}
