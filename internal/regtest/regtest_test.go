package regtest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bazelment/selfheal/internal/diagnostics"
	"github.com/bazelment/selfheal/internal/fixapply"
)

func successResult(files []string, desc string) *fixapply.Result {
	return &fixapply.Result{Success: true, ModifiedFiles: files, Description: desc}
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "serde_json", sanitizeName("serde_json"))
	assert.Equal(t, "serde_json", sanitizeName("serde-json"))
	assert.Equal(t, "hashmap", sanitizeName("HashMap"))
	assert.Equal(t, "std__collections__hashmap", sanitizeName("std::collections::HashMap"))
}

func TestGenerateTestNameDependency(t *testing.T) {
	info := diagnostics.FixInfo{
		FixType: diagnostics.FixAddDependency, TargetFile: "Cargo.toml", TargetItem: "serde_json",
	}
	name := generateTestName("regression_", info)
	assert.Contains(t, name, "regression_dep_")
	assert.Contains(t, name, "serde_json")
}

func TestGenerateTestNameImport(t *testing.T) {
	info := diagnostics.FixInfo{
		FixType: diagnostics.FixAddImport, TargetFile: "src/main.rs", TargetItem: "HashMap",
	}
	name := generateTestName("regression_", info)
	assert.Contains(t, name, "regression_import_")
	assert.Contains(t, name, "hashmap")
}

func TestGenerateDependencyTestSerdeJSON(t *testing.T) {
	info := diagnostics.FixInfo{FixType: diagnostics.FixAddDependency, TargetFile: "Cargo.toml", TargetItem: "serde_json"}
	result := successResult([]string{"Cargo.toml"}, "Added serde_json dependency")

	test, ok := Generate(info, result, DefaultConfig())
	require.True(t, ok)
	assert.Contains(t, test.Source, "serde_json::json!")
	assert.Contains(t, test.Source, "#[test]")
	assert.Equal(t, diagnostics.FixAddDependency, test.FixType)
}

func TestGenerateDependencyTestTokio(t *testing.T) {
	info := diagnostics.FixInfo{FixType: diagnostics.FixAddDependency, TargetFile: "Cargo.toml", TargetItem: "tokio"}
	result := successResult([]string{"Cargo.toml"}, "Added tokio dependency")

	test, ok := Generate(info, result, DefaultConfig())
	require.True(t, ok)
	assert.Contains(t, test.Source, "tokio::runtime")
	assert.Contains(t, test.Source, "block_on")
}

func TestGenerateDependencyTestGenericCrate(t *testing.T) {
	info := diagnostics.FixInfo{FixType: diagnostics.FixAddDependency, TargetFile: "Cargo.toml", TargetItem: "some_unknown_crate"}
	result := successResult([]string{"Cargo.toml"}, "Added some_unknown_crate dependency")

	test, ok := Generate(info, result, DefaultConfig())
	require.True(t, ok)
	assert.Contains(t, test.Source, "extern crate some_unknown_crate")
}

func TestGenerateImportTestHashMap(t *testing.T) {
	info := diagnostics.FixInfo{FixType: diagnostics.FixAddImport, TargetFile: "src/main.rs", TargetItem: "HashMap"}
	result := successResult([]string{"src/main.rs"}, "Added HashMap import")

	test, ok := Generate(info, result, DefaultConfig())
	require.True(t, ok)
	assert.Contains(t, test.Source, "use std::collections::HashMap")
	assert.Contains(t, test.Source, "HashMap::new()")
	assert.Equal(t, diagnostics.FixAddImport, test.FixType)
}

func TestGenerateImportTestGenericItem(t *testing.T) {
	info := diagnostics.FixInfo{FixType: diagnostics.FixAddImport, TargetFile: "src/lib.rs", TargetItem: "CustomType"}
	result := successResult([]string{"src/lib.rs"}, "Added CustomType import")

	test, ok := Generate(info, result, DefaultConfig())
	require.True(t, ok)
	assert.Contains(t, test.Source, "TODO")
	assert.Contains(t, test.Source, "CustomType")
}

func TestGenerateTypeTest(t *testing.T) {
	info := diagnostics.FixInfo{FixType: diagnostics.FixFixType, TargetFile: "src/main.rs"}
	result := successResult([]string{"src/main.rs"}, "Fixed type mismatch")

	test, ok := Generate(info, result, DefaultConfig())
	require.True(t, ok)
	assert.Contains(t, test.Source, "#[test]")
	assert.Contains(t, test.Source, "type fix")
}

func TestGenerateSyntaxTest(t *testing.T) {
	info := diagnostics.FixInfo{FixType: diagnostics.FixSyntax, TargetFile: "src/parser.rs"}
	result := successResult([]string{"src/parser.rs"}, "Fixed syntax error")

	test, ok := Generate(info, result, DefaultConfig())
	require.True(t, ok)
	assert.Contains(t, test.Source, "#[test]")
	assert.Contains(t, test.Source, "syntax fix")
}

func TestNoTestForFailedFix(t *testing.T) {
	info := diagnostics.FixInfo{FixType: diagnostics.FixAddDependency, TargetItem: "serde"}
	failed := &fixapply.Result{Success: false}

	_, ok := Generate(info, failed, DefaultConfig())
	assert.False(t, ok)
}

func TestConfigDefaults(t *testing.T) {
	config := DefaultConfig()
	assert.Equal(t, "tests", config.TestDirectory)
	assert.True(t, config.IncludeErrorContext)
	assert.Equal(t, "regression_", config.TestNamePrefix)
}

func TestConfigBuilder(t *testing.T) {
	config := NewConfig("custom_tests").WithErrorContext(false).WithPrefix("auto_")
	assert.Equal(t, "custom_tests", config.TestDirectory)
	assert.False(t, config.IncludeErrorContext)
	assert.Equal(t, "auto_", config.TestNamePrefix)
}

func TestGenerateFromDiagnostic(t *testing.T) {
	d := &diagnostics.Diagnostic{
		Severity: diagnostics.SeverityError,
		Code:     "E0463",
		Message:  "can't find crate for `serde`",
		Location: &diagnostics.Location{File: "src/main.rs", Line: 1},
	}
	info := diagnostics.FixInfo{FixType: diagnostics.FixAddDependency, TargetFile: "Cargo.toml", TargetItem: "serde"}

	test, ok := GenerateFromDiagnostic(d, info, DefaultConfig())
	require.True(t, ok)
	assert.Contains(t, test.Source, "serde")
	assert.Contains(t, test.Source, "Original error")
}

func TestWriteRegressionTest(t *testing.T) {
	dir := t.TempDir()
	test := Test{
		Name:          "test_example",
		Source:        "#[test]\nfn test_example() { assert!(true); }",
		SuggestedPath: filepath.Join("tests", "example.rs"),
		Description:   "Example test",
		FixType:       diagnostics.FixAddDependency,
	}

	path, err := Write(test, dir)
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "#[test]")
	assert.Contains(t, string(content), "test_example")
}

func TestWriteRegressionTestAppends(t *testing.T) {
	dir := t.TempDir()
	testDir := filepath.Join(dir, "tests")
	require.NoError(t, os.MkdirAll(testDir, 0o755))
	existingPath := filepath.Join(testDir, "example.rs")
	require.NoError(t, os.WriteFile(existingPath, []byte("#[test]\nfn existing_test() {}"), 0o644))

	test := Test{
		Name:          "test_new",
		Source:        "#[test]\nfn test_new() { assert!(true); }",
		SuggestedPath: filepath.Join("tests", "example.rs"),
		FixType:       diagnostics.FixAddDependency,
	}

	_, err := Write(test, dir)
	require.NoError(t, err)

	content, err := os.ReadFile(existingPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "existing_test")
	assert.Contains(t, string(content), "test_new")
}

func TestWriteRegressionTestDuplicateFails(t *testing.T) {
	dir := t.TempDir()
	testDir := filepath.Join(dir, "tests")
	require.NoError(t, os.MkdirAll(testDir, 0o755))
	existingPath := filepath.Join(testDir, "example.rs")
	require.NoError(t, os.WriteFile(existingPath, []byte("#[test]\nfn test_duplicate() {}"), 0o644))

	test := Test{
		Name:          "test_duplicate",
		Source:        "#[test]\nfn test_duplicate() { assert!(true); }",
		SuggestedPath: filepath.Join("tests", "example.rs"),
		FixType:       diagnostics.FixAddDependency,
	}

	_, err := Write(test, dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}
