package fixapply

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bazelment/selfheal/internal/diagnostics"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestApplyCargoDependencySuccess(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Cargo.toml", "[package]\nname = \"demo\"\nversion = \"0.1.0\"\n")

	result := ApplyFix(diagnostics.FixInfo{
		FixType:    diagnostics.FixAddDependency,
		TargetItem: "serde",
	}, NewConfig(dir))

	require.True(t, result.Success)
	content, err := os.ReadFile(filepath.Join(dir, "Cargo.toml"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "serde")
}

func TestApplyCargoDependencyAlreadyExists(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Cargo.toml", "[package]\nname = \"demo\"\n\n[dependencies]\nserde = \"1\"\n")

	result := ApplyFix(diagnostics.FixInfo{
		FixType:    diagnostics.FixAddDependency,
		TargetItem: "serde",
	}, NewConfig(dir))

	assert.False(t, result.Success)
	require.Error(t, result.Err)
}

func TestApplyCargoDependencyDryRun(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Cargo.toml", "[package]\nname = \"demo\"\n")
	before, _ := os.ReadFile(path)

	result := ApplyFix(diagnostics.FixInfo{
		FixType:    diagnostics.FixAddDependency,
		TargetItem: "tokio",
	}, NewConfig(dir).WithDryRun(true))

	require.True(t, result.Success)
	after, _ := os.ReadFile(path)
	assert.Equal(t, before, after)
}

func TestApplyNpmDependencySuccess(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "package.json", `{"name":"demo","version":"1.0.0"}`)

	result := ApplyFix(diagnostics.FixInfo{
		FixType:    diagnostics.FixAddDependency,
		TargetItem: "lodash",
	}, NewConfig(dir))

	require.True(t, result.Success)
	content, err := os.ReadFile(filepath.Join(dir, "package.json"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "lodash")
}

func TestApplyDependencyNoManifest(t *testing.T) {
	dir := t.TempDir()
	result := ApplyFix(diagnostics.FixInfo{
		FixType:    diagnostics.FixAddDependency,
		TargetItem: "whatever",
	}, NewConfig(dir))
	assert.False(t, result.Success)
}

func TestApplyDependencyMissingName(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Cargo.toml", "[package]\nname = \"demo\"\n")
	result := ApplyFix(diagnostics.FixInfo{FixType: diagnostics.FixAddDependency}, NewConfig(dir))
	assert.False(t, result.Success)
}

func TestApplyRustImportSuccess(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.rs", "fn main() {\n    let m: HashMap<String, String>;\n}\n")

	result := ApplyFix(diagnostics.FixInfo{
		FixType:    diagnostics.FixAddImport,
		TargetFile: "main.rs",
		TargetItem: "HashMap",
	}, NewConfig(dir))

	require.True(t, result.Success)
	content, _ := os.ReadFile(filepath.Join(dir, "main.rs"))
	assert.Contains(t, string(content), "use std::collections::HashMap;")
}

func TestApplyRustImportAlreadyExists(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.rs", "use std::collections::HashMap;\nfn main() {}\n")

	result := ApplyFix(diagnostics.FixInfo{
		FixType:    diagnostics.FixAddImport,
		TargetFile: "main.rs",
		TargetItem: "HashMap",
	}, NewConfig(dir))

	assert.False(t, result.Success)
}

func TestInsertRustImportAfterExistingUse(t *testing.T) {
	content := "use std::fmt;\nuse std::io;\n\nfn main() {}\n"
	updated := insertRustImport(content, "std::collections::HashMap")
	lines := splitLines(updated)
	assert.Equal(t, "use std::collections::HashMap;", lines[2])
}

func TestInsertRustImportNoExistingUse(t *testing.T) {
	content := "//! doc comment\n\nfn main() {}\n"
	updated := insertRustImport(content, "std::collections::HashMap")
	assert.Contains(t, updated, "use std::collections::HashMap;")
}

func TestApplyGoImportNewBlock(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.go", "package main\n\nfunc main() {}\n")

	result := ApplyFix(diagnostics.FixInfo{
		FixType:    diagnostics.FixAddImport,
		TargetFile: "main.go",
		TargetItem: "Printf",
	}, NewConfig(dir))

	require.True(t, result.Success)
	content, _ := os.ReadFile(filepath.Join(dir, "main.go"))
	assert.Contains(t, string(content), `"fmt"`)
}

func TestApplyGoImportExistingBlock(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.go", "package main\n\nimport (\n\t\"os\"\n)\n\nfunc main() {}\n")

	result := ApplyFix(diagnostics.FixInfo{
		FixType:    diagnostics.FixAddImport,
		TargetFile: "main.go",
		TargetItem: "Printf",
	}, NewConfig(dir))

	require.True(t, result.Success)
	content, _ := os.ReadFile(filepath.Join(dir, "main.go"))
	assert.Contains(t, string(content), `"os"`)
	assert.Contains(t, string(content), `"fmt"`)
}

func TestGetGoImportPath(t *testing.T) {
	assert.Equal(t, "context", goImportPath("Context"))
	assert.Equal(t, "fmt", goImportPath("Printf"))
	assert.Equal(t, "somethingcustom", goImportPath("SomethingCustom"))
}

func TestGetRustImportPath(t *testing.T) {
	assert.Equal(t, "std::collections::HashMap", rustImportPath("HashMap"))
	assert.Equal(t, "std::sync::Arc", rustImportPath("Arc"))
	assert.Equal(t, "CustomType", rustImportPath("CustomType"))
}

func TestNormalizeCrateName(t *testing.T) {
	assert.Equal(t, "serde-json", normalizeCrateName("serde_json"))
	assert.Equal(t, "tokio", normalizeCrateName("tokio"))
}

func TestSuggestedVersion(t *testing.T) {
	assert.Equal(t, "1", suggestedVersion("serde"))
	assert.Equal(t, "*", suggestedVersion("totally-unknown-crate"))
}

func TestTypeAndSyntaxFixAlwaysFail(t *testing.T) {
	dir := t.TempDir()
	r1 := ApplyFix(diagnostics.FixInfo{FixType: diagnostics.FixFixType}, NewConfig(dir))
	assert.False(t, r1.Success)

	r2 := ApplyFix(diagnostics.FixInfo{FixType: diagnostics.FixSyntax}, NewConfig(dir))
	assert.False(t, r2.Success)
}

func TestApplyImportMissingTargetFile(t *testing.T) {
	dir := t.TempDir()
	result := ApplyFix(diagnostics.FixInfo{
		FixType:    diagnostics.FixAddImport,
		TargetItem: "HashMap",
	}, NewConfig(dir))
	assert.False(t, result.Success)
}

func TestApplyImportNonexistentFile(t *testing.T) {
	dir := t.TempDir()
	result := ApplyFix(diagnostics.FixInfo{
		FixType:    diagnostics.FixAddImport,
		TargetFile: "missing.rs",
		TargetItem: "HashMap",
	}, NewConfig(dir))
	assert.False(t, result.Success)
}

func TestRollbackRestoresOriginalContent(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Cargo.toml", "[package]\nname = \"demo\"\n")
	before, _ := os.ReadFile(path)

	result := ApplyFix(diagnostics.FixInfo{
		FixType:    diagnostics.FixAddDependency,
		TargetItem: "serde",
	}, NewConfig(dir))
	require.True(t, result.Success)

	require.NoError(t, result.Rollback())
	after, _ := os.ReadFile(path)
	assert.Equal(t, before, after)
}

func TestRollbackContinuesPastFailures(t *testing.T) {
	dir := t.TempDir()
	unwritablePath := filepath.Join(dir, "missing-subdir", "gone.txt")
	keepPath := writeFile(t, dir, "keep.txt", "current\n")

	result := &Result{
		Success: true,
		originalContent: map[string]string{
			unwritablePath: "never written",
			keepPath:       "restored\n",
		},
	}

	err := result.Rollback()
	require.Error(t, err)

	content, readErr := os.ReadFile(keepPath)
	require.NoError(t, readErr)
	assert.Equal(t, "restored\n", string(content))
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}
