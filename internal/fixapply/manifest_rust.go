package fixapply

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/bazelment/selfheal/internal/diagnostics"
)

func applyAddDependencyFix(info diagnostics.FixInfo, config Config) *Result {
	if info.TargetItem == "" {
		return failure(errors.New("no dependency name specified"))
	}

	cargoPath := filepath.Join(config.RootDir, "Cargo.toml")
	if _, err := os.Stat(cargoPath); err == nil {
		return applyCargoDependency(cargoPath, info.TargetItem, config)
	}

	pkgPath := filepath.Join(config.RootDir, "package.json")
	if _, err := os.Stat(pkgPath); err == nil {
		return applyNpmDependency(pkgPath, info.TargetItem, config)
	}

	return failure(errors.New("no Cargo.toml or package.json found in project root"))
}

func applyCargoDependency(manifestPath, depName string, config Config) *Result {
	raw, err := os.ReadFile(manifestPath)
	if err != nil {
		return failure(fmt.Errorf("read %s: %w", manifestPath, err))
	}

	var doc map[string]any
	if _, err := toml.Decode(string(raw), &doc); err != nil {
		return failure(fmt.Errorf("parse %s: %w", manifestPath, err))
	}

	deps, ok := doc["dependencies"].(map[string]any)
	if !ok {
		deps = make(map[string]any)
	}

	crateName := normalizeCrateName(depName)
	if _, exists := deps[crateName]; exists {
		return failure(fmt.Errorf("dependency %q already exists in Cargo.toml", crateName))
	}

	version := suggestedVersion(crateName)
	deps[crateName] = version
	doc["dependencies"] = deps

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
		return failure(fmt.Errorf("encode %s: %w", manifestPath, err))
	}
	newContent := buf.String()
	description := fmt.Sprintf("Added dependency: %s = %q", crateName, version)

	if config.DryRun {
		result := success([]string{manifestPath}, "Would add dependency: "+description)
		return result
	}

	if config.CreateBackups {
		if err := os.WriteFile(manifestPath+".bak", raw, 0o644); err != nil {
			return failure(fmt.Errorf("write backup: %w", err))
		}
	}

	if err := os.WriteFile(manifestPath, []byte(newContent), 0o644); err != nil {
		return failure(fmt.Errorf("write %s: %w", manifestPath, err))
	}

	return successWithRollback([]string{manifestPath}, description, map[string]string{manifestPath: string(raw)})
}

// normalizeCrateName hyphenates the small set of crate names that are
// conventionally written with underscores in code but hyphens in Cargo.toml.
func normalizeCrateName(name string) string {
	switch name {
	case "serde_json", "serde_derive", "serde_yaml", "tokio_util", "tower_http", "tracing_subscriber":
		return dashify(name)
	default:
		return name
	}
}

func dashify(name string) string {
	out := make([]byte, len(name))
	for i := 0; i < len(name); i++ {
		if name[i] == '_' {
			out[i] = '-'
		} else {
			out[i] = name[i]
		}
	}
	return string(out)
}

var suggestedVersions = map[string]string{
	"serde":              "1",
	"serde-json":         "1",
	"serde-derive":       "1",
	"serde-yaml":         "0.9",
	"tokio":              "1",
	"tokio-util":         "0.7",
	"reqwest":            "0.12",
	"anyhow":             "1",
	"thiserror":          "2",
	"tracing":            "0.1",
	"tracing-subscriber": "0.3",
	"clap":               "4",
	"regex":              "1",
	"chrono":             "0.4",
	"uuid":               "1",
	"rand":               "0.8",
	"log":                "0.4",
	"env_logger":         "0.11",
	"toml":               "0.8",
	"toml_edit":          "0.22",
	"walkdir":            "2",
	"glob":               "0.3",
	"once_cell":          "1",
	"lazy_static":        "1",
	"parking_lot":        "0.12",
	"crossbeam":          "0.8",
	"rayon":              "1",
	"itertools":          "0.13",
	"bytes":              "1",
	"futures":            "0.3",
	"async-trait":        "0.1",
	"pin-project":        "1",
}

func suggestedVersion(crateName string) string {
	if v, ok := suggestedVersions[crateName]; ok {
		return v
	}
	return "*"
}
