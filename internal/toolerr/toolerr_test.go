package toolerr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategorizeErrorPrecedence(t *testing.T) {
	cases := []struct {
		name        string
		message     string
		wantKind    Kind
		wantSub     string
		wantRetry   bool
	}{
		{"missing dependency", "error: cannot find crate for `tokio`", KindCode, "missing_dependency", false},
		{"unresolved import", "unresolved import `foo::bar`", KindCode, "missing_dependency", false},
		{"type mismatch", "mismatched types: expected `u32`, found `&str`", KindCode, "type_error", false},
		{"syntax error", "syntax error: unexpected token", KindCode, "syntax_error", false},
		{"missing import", "cannot find `helper` in this scope", KindCode, "missing_import", false},
		{"permission denied", "permission denied: '/etc/shadow'", KindPermission, "/etc/shadow", false},
		{"connection refused", "connection refused while dialing", KindNetwork, "", true},
		{"timeout", "operation timed out after 30s", KindNetwork, "", true},
		{"dns failure", "dns resolution failed: getaddrinfo", KindNetwork, "", false},
		{"disk full", "write failed: no space left on device", KindResource, "disk_full", false},
		{"out of memory", "cannot allocate memory", KindResource, "out_of_memory", false},
		{"not found", "open '/tmp/missing.txt': no such file or directory", KindResource, "not_found", false},
		{"unknown", "something completely unrecognized happened", KindUnknown, "", false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			category, retriable, _ := CategorizeError(c.message)
			require.Equal(t, c.wantKind, category.Kind)
			assert.Equal(t, c.wantRetry, retriable)
			switch c.wantKind {
			case KindCode:
				assert.Equal(t, c.wantSub, category.ErrorType)
			case KindResource:
				assert.Equal(t, c.wantSub, category.Resource)
			case KindPermission:
				assert.Equal(t, c.wantSub, category.Resource)
			}
		})
	}
}

func TestNewSetsRetriableFromCategory(t *testing.T) {
	err := New("connection refused")
	assert.True(t, err.Retriable)
	assert.False(t, err.IsAutoFixable())

	err = New("cannot find crate for `serde`")
	assert.False(t, err.Retriable)
	assert.True(t, err.IsAutoFixable())
}

func TestWithCategoryDerivesRetriableOnly(t *testing.T) {
	err := WithCategory("custom message", NetworkCategory(true))
	assert.True(t, err.Retriable)

	err = WithCategory("custom message", NetworkCategory(false))
	assert.False(t, err.Retriable)
}

func TestExtractPathFromError(t *testing.T) {
	assert.Equal(t, "/etc/shadow", ExtractPathFromError("permission denied: '/etc/shadow'"))
	assert.Equal(t, "/tmp/foo.txt", ExtractPathFromError(`open "/tmp/foo.txt" failed`))
	assert.Equal(t, "/home/user/proj/src/main.go", ExtractPathFromError("cannot read /home/user/proj/src/main.go: denied"))
	assert.Equal(t, "", ExtractPathFromError("no path here at all"))
}

func TestErrorBuilders(t *testing.T) {
	err := New("boom").WithRawOutput("raw").WithSuggestedFix("fix it")
	assert.Equal(t, "raw", err.RawOutput)
	assert.Equal(t, "fix it", err.SuggestedFix)
	assert.Equal(t, "boom", err.Error())
}
