package fixapply

import (
	"errors"

	"github.com/bazelment/selfheal/internal/diagnostics"
)

// applyTypeFix has no safe automatic strategy for reconciling a type
// mismatch: the correct fix depends on which side of the mismatch is wrong,
// something only a human (or a model with the surrounding context) can
// judge.
func applyTypeFix(info diagnostics.FixInfo, config Config) *Result {
	return failure(errors.New("type mismatch fix requires manual intervention: " +
		"please review the diagnostic and adjust the type or conversion"))
}

// applySyntaxFix has the same limitation as applyTypeFix: a syntax error's
// correct repair is rarely mechanical.
func applySyntaxFix(info diagnostics.FixInfo, config Config) *Result {
	return failure(errors.New("syntax error fix requires manual intervention: " +
		"please review the diagnostic and correct the syntax"))
}
