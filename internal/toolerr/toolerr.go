// Package toolerr classifies tool-execution failures into categories that
// drive retry and auto-fix decisions.
package toolerr

import "strings"

// Category classifies the nature of a tool execution failure.
type Category struct {
	Kind         Kind
	ErrorType    string // set when Kind == KindCode
	Resource     string // set when Kind == KindPermission or KindResource
	IsTransient  bool   // set when Kind == KindNetwork
}

// Kind is the discriminant of a Category.
type Kind int

const (
	KindUnknown Kind = iota
	KindCode
	KindPermission
	KindNetwork
	KindResource
)

// CodeCategory builds a Category of kind Code.
func CodeCategory(errorType string) Category {
	return Category{Kind: KindCode, ErrorType: errorType}
}

// PermissionCategory builds a Category of kind Permission.
func PermissionCategory(resource string) Category {
	return Category{Kind: KindPermission, Resource: resource}
}

// NetworkCategory builds a Category of kind Network.
func NetworkCategory(transient bool) Category {
	return Category{Kind: KindNetwork, IsTransient: transient}
}

// ResourceCategory builds a Category of kind Resource.
func ResourceCategory(resourceType string) Category {
	return Category{Kind: KindResource, Resource: resourceType}
}

// Error wraps a categorized tool-execution failure.
type Error struct {
	Message      string
	Category     Category
	RawOutput    string
	Retriable    bool
	SuggestedFix string
}

func (e *Error) Error() string { return e.Message }

// New categorizes message and builds an Error from it.
func New(message string) *Error {
	category, retriable, suggestedFix := categorize(message)
	return &Error{
		Message:      message,
		Category:     category,
		Retriable:    retriable,
		SuggestedFix: suggestedFix,
	}
}

// WithCategory builds an Error using an explicit category rather than
// re-deriving one from the message.
func WithCategory(message string, category Category) *Error {
	retriable := category.Kind == KindNetwork && category.IsTransient
	return &Error{Message: message, Category: category, Retriable: retriable}
}

// WithRawOutput attaches the raw command output to the error.
func (e *Error) WithRawOutput(raw string) *Error {
	e.RawOutput = raw
	return e
}

// WithSuggestedFix overrides the suggested remediation text.
func (e *Error) WithSuggestedFix(fix string) *Error {
	e.SuggestedFix = fix
	return e
}

// IsAutoFixable reports whether the error category is one the fix applier
// knows how to address automatically.
func (e *Error) IsAutoFixable() bool {
	return e.Category.Kind == KindCode
}

// CategorizeError classifies a raw failure message using substring
// heuristics applied in strict precedence order.
func CategorizeError(message string) (Category, bool, string) {
	return categorize(message)
}

func categorize(message string) (Category, bool, string) {
	lower := strings.ToLower(message)

	switch {
	case strings.Contains(lower, "cannot find crate") ||
		strings.Contains(lower, "can't find crate") ||
		strings.Contains(lower, "unresolved import") ||
		strings.Contains(lower, "no such crate") ||
		(strings.Contains(lower, "could not find") &&
			(strings.Contains(lower, "crate") || strings.Contains(lower, "module") || strings.Contains(lower, "package"))):
		return CodeCategory("missing_dependency"), false, "Add the missing dependency to Cargo.toml or package.json"

	case strings.Contains(lower, "type mismatch") ||
		strings.Contains(lower, "mismatched types") ||
		(strings.Contains(lower, "expected") &&
			(strings.Contains(lower, "found") || strings.Contains(lower, "type")) &&
			!strings.Contains(lower, "file")):
		return CodeCategory("type_error"), false, "Fix the type annotation or conversion"

	case strings.Contains(lower, "syntax error") ||
		strings.Contains(lower, "unexpected token") ||
		(strings.Contains(lower, "expected") &&
			(strings.Contains(lower, "`;`") || strings.Contains(lower, "`}`") ||
				strings.Contains(lower, "`)`") || strings.Contains(lower, "expression"))):
		return CodeCategory("syntax_error"), false, "Fix the syntax error"

	case (strings.Contains(lower, "cannot find") && strings.Contains(lower, "in this scope")) ||
		strings.Contains(lower, "not found in scope") ||
		strings.Contains(lower, "use of undeclared"):
		return CodeCategory("missing_import"), false, "Add the missing import statement"

	case strings.Contains(lower, "permission denied") ||
		strings.Contains(lower, "access denied") ||
		strings.Contains(lower, "operation not permitted") ||
		strings.Contains(lower, "eacces"):
		resource := ExtractPathFromError(message)
		if resource == "" {
			resource = "unknown"
		}
		return PermissionCategory(resource), false, "Check file permissions or request access"

	case strings.Contains(lower, "connection refused") ||
		strings.Contains(lower, "connection reset") ||
		strings.Contains(lower, "network unreachable") ||
		strings.Contains(lower, "host unreachable"):
		return NetworkCategory(true), true, "Check network connectivity and retry"

	case strings.Contains(lower, "timeout") ||
		strings.Contains(lower, "timed out") ||
		strings.Contains(lower, "deadline exceeded"):
		return NetworkCategory(true), true, "Operation timed out, will retry"

	case strings.Contains(lower, "dns") ||
		strings.Contains(lower, "name resolution") ||
		strings.Contains(lower, "getaddrinfo"):
		return NetworkCategory(false), false, "DNS resolution failed, check the hostname"

	case strings.Contains(lower, "no space left") ||
		strings.Contains(lower, "disk full") ||
		strings.Contains(lower, "enospc") ||
		strings.Contains(lower, "out of disk"):
		return ResourceCategory("disk_full"), false, "Free up disk space"

	case strings.Contains(lower, "out of memory") ||
		strings.Contains(lower, "cannot allocate") ||
		strings.Contains(lower, "enomem"):
		return ResourceCategory("out_of_memory"), false, "Reduce memory usage or increase available memory"

	case strings.Contains(lower, "no such file") ||
		strings.Contains(lower, "file not found") ||
		strings.Contains(lower, "enoent") ||
		strings.Contains(lower, "does not exist"):
		resource := ExtractPathFromError(message)
		if resource == "" {
			resource = "file"
		}
		return ResourceCategory("not_found"), false, "File or directory '" + resource + "' does not exist"

	default:
		return Category{Kind: KindUnknown}, false, ""
	}
}

// ExtractPathFromError pulls a filesystem path out of a raw error message,
// preferring quoted segments and falling back to bare path-looking tokens.
func ExtractPathFromError(message string) string {
	if path, ok := extractBetween(message, '\''); ok && looksLikePath(path) {
		return path
	}
	if path, ok := extractBetween(message, '"'); ok && looksLikePath(path) {
		return path
	}
	for _, word := range strings.Fields(message) {
		trimmed := strings.TrimRight(word, ":,.)")
		if strings.HasPrefix(trimmed, "/") ||
			strings.Contains(trimmed, "/src/") ||
			strings.Contains(trimmed, "/home/") ||
			strings.Contains(trimmed, "/Users/") {
			return trimmed
		}
	}
	return ""
}

func looksLikePath(s string) bool {
	return strings.Contains(s, "/") || strings.Contains(s, `\`)
}

func extractBetween(message string, quote byte) (string, bool) {
	start := strings.IndexByte(message, quote)
	if start < 0 {
		return "", false
	}
	rest := message[start+1:]
	end := strings.IndexByte(rest, quote)
	if end < 0 {
		return "", false
	}
	return rest[:end], true
}
