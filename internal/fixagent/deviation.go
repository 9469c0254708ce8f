package fixagent

import "strings"

// DeviationCategory classifies the kind of change or error a fix-agent is
// facing, which in turn determines whether it may proceed automatically.
type DeviationCategory int

const (
	// AgentCode is a compiler error or type mismatch the agent itself
	// introduced — safe to auto-fix.
	AgentCode DeviationCategory = iota
	// Dependency is a missing crate/package the code needs — safe to
	// auto-fix by adding it.
	Dependency
	// TestLint is a test or lint failure surfaced by the agent's own
	// changes — safe to auto-fix.
	TestLint
	// Architecture is a structural change (new module, schema change) —
	// requires approval.
	Architecture
	// NewDependency is a dependency addition outside the original task
	// scope — requires approval.
	NewDependency
	// FileDeletion is the removal of a file — requires approval.
	FileDeletion
)

func (c DeviationCategory) String() string {
	switch c {
	case AgentCode:
		return "AgentCode"
	case Dependency:
		return "Dependency"
	case TestLint:
		return "TestLint"
	case Architecture:
		return "Architecture"
	case NewDependency:
		return "NewDependency"
	case FileDeletion:
		return "FileDeletion"
	default:
		return "Unknown"
	}
}

// DeviationRule is the autonomy decision attached to a DeviationCategory.
type DeviationRule int

const (
	// AutoFixRule means the agent may proceed without asking.
	AutoFixRule DeviationRule = iota
	// MustAskRule means execution blocks until the user confirms.
	MustAskRule
)

func (r DeviationRule) String() string {
	if r == AutoFixRule {
		return "AutoFix"
	}
	return "MustAsk"
}

// Rule returns the autonomy rule for a category.
func (c DeviationCategory) Rule() DeviationRule {
	switch c {
	case AgentCode, Dependency, TestLint:
		return AutoFixRule
	default:
		return MustAskRule
	}
}

// AllowsAutoFix reports whether this category's rule is AutoFix.
func (c DeviationCategory) AllowsAutoFix() bool {
	return c.Rule() == AutoFixRule
}

// CategorizeDeviation classifies an error or change-description message
// into a DeviationCategory using substring heuristics, in a fixed
// precedence order: dependency errors first, then test/lint failures, then
// file deletion, then architectural change, then new-dependency requests,
// defaulting to AgentCode.
func CategorizeDeviation(message string) DeviationCategory {
	lower := strings.ToLower(message)

	if (strings.Contains(lower, "cannot find") || strings.Contains(lower, "not found") || strings.Contains(lower, "unresolved")) &&
		(strings.Contains(lower, "crate") || strings.Contains(lower, "package") || strings.Contains(lower, "module")) {
		return Dependency
	}

	if strings.Contains(lower, "test failed") ||
		strings.Contains(lower, "test failure") ||
		strings.Contains(lower, "assertion failed") ||
		strings.Contains(lower, "clippy") ||
		strings.Contains(lower, "lint") ||
		(strings.Contains(lower, "warning:") && (strings.Contains(lower, "unused") || strings.Contains(lower, "dead_code"))) {
		return TestLint
	}

	// Note: "rm " is a plain substring match, so benign text such as
	// "confirm the change" or "rm the tmp file" also classifies as a
	// deletion; a stronger classifier than substring matching would be
	// needed to eliminate false positives here.
	if (strings.Contains(lower, "delete") && strings.Contains(lower, "file")) ||
		(strings.Contains(lower, "remove") && strings.Contains(lower, "file")) ||
		(strings.Contains(lower, "rm ") && !strings.Contains(lower, "rm -rf /")) {
		return FileDeletion
	}

	if strings.Contains(lower, "new module") ||
		strings.Contains(lower, "create module") ||
		strings.Contains(lower, "schema change") ||
		strings.Contains(lower, "refactor") ||
		strings.Contains(lower, "restructure") ||
		strings.Contains(lower, "reorganize") {
		return Architecture
	}

	if strings.Contains(lower, "add dependency") ||
		strings.Contains(lower, "add crate") ||
		strings.Contains(lower, "install package") ||
		strings.Contains(lower, "npm install") ||
		strings.Contains(lower, "cargo add") {
		return NewDependency
	}

	return AgentCode
}

// ShouldAutoFix reports whether message's deviation category allows the
// agent to proceed without asking the user.
func ShouldAutoFix(message string) bool {
	return CategorizeDeviation(message).AllowsAutoFix()
}
