package fixagent

import "testing"

func TestDeviationCategoryRule(t *testing.T) {
	cases := []struct {
		category DeviationCategory
		rule     DeviationRule
	}{
		{AgentCode, AutoFixRule},
		{Dependency, AutoFixRule},
		{TestLint, AutoFixRule},
		{Architecture, MustAskRule},
		{NewDependency, MustAskRule},
		{FileDeletion, MustAskRule},
	}
	for _, c := range cases {
		if got := c.category.Rule(); got != c.rule {
			t.Errorf("%v.Rule() = %v, want %v", c.category, got, c.rule)
		}
		if got := c.category.AllowsAutoFix(); got != (c.rule == AutoFixRule) {
			t.Errorf("%v.AllowsAutoFix() = %v", c.category, got)
		}
	}
}

func TestCategorizeDeviationDependency(t *testing.T) {
	cases := []string{
		"cannot find crate `serde`",
		"package not found",
		"unresolved module reference",
	}
	for _, msg := range cases {
		if got := CategorizeDeviation(msg); got != Dependency {
			t.Errorf("CategorizeDeviation(%q) = %v, want Dependency", msg, got)
		}
	}
}

func TestCategorizeDeviationTestLint(t *testing.T) {
	cases := []string{
		"test failed: expected 1 got 2",
		"assertion failed on line 5",
		"clippy::needless_clone warning",
		"warning: unused variable `x`",
	}
	for _, msg := range cases {
		if got := CategorizeDeviation(msg); got != TestLint {
			t.Errorf("CategorizeDeviation(%q) = %v, want TestLint", msg, got)
		}
	}
}

func TestCategorizeDeviationFileDeletion(t *testing.T) {
	cases := []string{
		"delete the obsolete file",
		"remove this file entirely",
		"rm src/old_module.rs",
	}
	for _, msg := range cases {
		if got := CategorizeDeviation(msg); got != FileDeletion {
			t.Errorf("CategorizeDeviation(%q) = %v, want FileDeletion", msg, got)
		}
	}
}

func TestCategorizeDeviationArchitecture(t *testing.T) {
	cases := []string{
		"this requires a new module",
		"schema change needed for the users table",
		"refactor the auth layer",
	}
	for _, msg := range cases {
		if got := CategorizeDeviation(msg); got != Architecture {
			t.Errorf("CategorizeDeviation(%q) = %v, want Architecture", msg, got)
		}
	}
}

func TestCategorizeDeviationNewDependency(t *testing.T) {
	cases := []string{
		"add dependency on reqwest",
		"cargo add tokio",
		"npm install lodash",
	}
	for _, msg := range cases {
		if got := CategorizeDeviation(msg); got != NewDependency {
			t.Errorf("CategorizeDeviation(%q) = %v, want NewDependency", msg, got)
		}
	}
}

func TestCategorizeDeviationDefaultsToAgentCode(t *testing.T) {
	if got := CategorizeDeviation("mismatched types in function return"); got != AgentCode {
		t.Errorf("got %v, want AgentCode", got)
	}
}

func TestCategorizeDeviationPrecedenceDependencyBeforeTestLint(t *testing.T) {
	// "cannot find crate" and "test" both appear; dependency wins.
	msg := "cannot find crate `serde` while running test suite"
	if got := CategorizeDeviation(msg); got != Dependency {
		t.Errorf("got %v, want Dependency (precedence)", got)
	}
}

func TestShouldAutoFix(t *testing.T) {
	if !ShouldAutoFix("test failed: assertion failed") {
		t.Error("expected TestLint message to be auto-fixable")
	}
	if ShouldAutoFix("refactor the auth layer") {
		t.Error("expected Architecture message to require approval")
	}
}

func TestDeviationCategoryString(t *testing.T) {
	if AgentCode.String() != "AgentCode" {
		t.Errorf("got %q", AgentCode.String())
	}
	if FileDeletion.String() != "FileDeletion" {
		t.Errorf("got %q", FileDeletion.String())
	}
}

func TestDeviationRuleString(t *testing.T) {
	if AutoFixRule.String() != "AutoFix" {
		t.Errorf("got %q", AutoFixRule.String())
	}
	if MustAskRule.String() != "MustAsk" {
		t.Errorf("got %q", MustAskRule.String())
	}
}
