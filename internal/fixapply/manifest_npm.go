package fixapply

import (
	"fmt"
	"os"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

func applyNpmDependency(manifestPath, depName string, config Config) *Result {
	raw, err := os.ReadFile(manifestPath)
	if err != nil {
		return failure(fmt.Errorf("read %s: %w", manifestPath, err))
	}
	original := string(raw)

	existing := gjson.Get(original, "dependencies."+sjsonEscape(depName))
	if existing.Exists() {
		return failure(fmt.Errorf("dependency %q already exists in package.json", depName))
	}

	updated, err := sjson.SetRaw(original, "dependencies."+sjsonEscape(depName), `"*"`)
	if err != nil {
		return failure(fmt.Errorf("update package.json: %w", err))
	}

	description := fmt.Sprintf("Added dependency: %s to package.json", depName)

	if config.DryRun {
		return success([]string{manifestPath}, "Would add dependency: "+description)
	}

	if config.CreateBackups {
		if err := os.WriteFile(manifestPath+".bak", raw, 0o644); err != nil {
			return failure(fmt.Errorf("write backup: %w", err))
		}
	}

	if err := os.WriteFile(manifestPath, []byte(updated), 0o644); err != nil {
		return failure(fmt.Errorf("write %s: %w", manifestPath, err))
	}

	return successWithRollback([]string{manifestPath}, description, map[string]string{manifestPath: original})
}

// sjsonEscape escapes path separators sjson would otherwise interpret as
// nesting, so a dependency name like "@scope/pkg" addresses one key.
func sjsonEscape(key string) string {
	out := make([]byte, 0, len(key))
	for i := 0; i < len(key); i++ {
		switch key[i] {
		case '.', '*', '?':
			out = append(out, '\\')
		}
		out = append(out, key[i])
	}
	return string(out)
}
