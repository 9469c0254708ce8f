package fixapply

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bazelment/selfheal/internal/diagnostics"
)

func applyAddImportFix(info diagnostics.FixInfo, config Config) *Result {
	if info.TargetItem == "" {
		return failure(errors.New("no item name specified for import"))
	}
	if info.TargetFile == "" {
		return failure(errors.New("no target file specified for import fix"))
	}

	path := filepath.Join(config.RootDir, info.TargetFile)
	if _, err := os.Stat(path); err != nil {
		return failure(fmt.Errorf("target file does not exist: %s", path))
	}

	switch strings.TrimPrefix(filepath.Ext(path), ".") {
	case "rs":
		return applyRustImport(path, info.TargetItem, config)
	case "ts", "tsx", "js", "jsx":
		return applyJsImport(path, info.TargetItem, config)
	case "go":
		return applyGoImport(path, info.TargetItem, config)
	default:
		return failure(fmt.Errorf("unsupported file type for import fix: %s", filepath.Ext(path)))
	}
}

var rustImportPaths = map[string]string{
	"HashMap": "std::collections::HashMap", "HashSet": "std::collections::HashSet",
	"BTreeMap": "std::collections::BTreeMap", "BTreeSet": "std::collections::BTreeSet",
	"VecDeque": "std::collections::VecDeque", "BinaryHeap": "std::collections::BinaryHeap",
	"LinkedList": "std::collections::LinkedList", "Rc": "std::rc::Rc", "Arc": "std::sync::Arc",
	"Mutex": "std::sync::Mutex", "RwLock": "std::sync::RwLock", "Cell": "std::cell::Cell",
	"RefCell": "std::cell::RefCell", "Pin": "std::pin::Pin", "PathBuf": "std::path::PathBuf",
	"Path": "std::path::Path", "File": "std::fs::File", "Read": "std::io::Read",
	"Write": "std::io::Write", "BufRead": "std::io::BufRead", "BufReader": "std::io::BufReader",
	"BufWriter": "std::io::BufWriter", "Cursor": "std::io::Cursor", "Duration": "std::time::Duration",
	"Instant": "std::time::Instant", "SystemTime": "std::time::SystemTime", "Error": "std::error::Error",
	"Display": "std::fmt::Display", "Debug": "std::fmt::Debug", "Formatter": "std::fmt::Formatter",
	"Result": "std::result::Result", "Option": "std::option::Option", "PhantomData": "std::marker::PhantomData",
	"NonNull": "std::ptr::NonNull", "Ordering": "std::cmp::Ordering", "Reverse": "std::cmp::Reverse",
}

func rustImportPath(item string) string {
	if path, ok := rustImportPaths[item]; ok {
		return path
	}
	return item
}

func applyRustImport(path, itemName string, config Config) *Result {
	raw, err := os.ReadFile(path)
	if err != nil {
		return failure(fmt.Errorf("read %s: %w", path, err))
	}
	content := string(raw)
	importPath := rustImportPath(itemName)

	if strings.Contains(content, "use "+importPath) {
		return failure(fmt.Errorf("import %q already exists", importPath))
	}

	updated := insertRustImport(content, importPath)
	description := fmt.Sprintf("Added import: use %s;", importPath)

	if config.DryRun {
		return success([]string{path}, "Would add import: "+description)
	}
	if config.CreateBackups {
		if err := os.WriteFile(path+".bak", raw, 0o644); err != nil {
			return failure(fmt.Errorf("write backup: %w", err))
		}
	}
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		return failure(fmt.Errorf("write %s: %w", path, err))
	}
	return successWithRollback([]string{path}, description, map[string]string{path: content})
}

// insertRustImport places a new `use` statement after the last existing
// `use` line, or after the last `mod` line if there is none, or at the top
// of the file (after any leading doc comments/attributes) otherwise.
func insertRustImport(content, importPath string) string {
	lines := strings.Split(content, "\n")
	statement := "use " + importPath + ";"

	lastUse := -1
	lastMod := -1
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "use ") {
			lastUse = i
		}
		if strings.HasPrefix(trimmed, "mod ") {
			lastMod = i
		}
	}

	insertAt := 0
	switch {
	case lastUse >= 0:
		insertAt = lastUse + 1
	case lastMod >= 0:
		insertAt = lastMod + 1
	default:
		insertAt = 0
		for insertAt < len(lines) {
			trimmed := strings.TrimSpace(lines[insertAt])
			if strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "#[") || trimmed == "" {
				insertAt++
				continue
			}
			break
		}
	}

	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[:insertAt]...)
	out = append(out, statement)
	out = append(out, lines[insertAt:]...)
	return strings.Join(out, "\n")
}

var goImportPaths = map[string]string{
	"Context": "context", "Mutex": "sync", "RWMutex": "sync", "WaitGroup": "sync",
	"Time": "time", "Duration": "time", "Reader": "io", "Writer": "io", "File": "os",
	"Printf": "fmt", "Sprintf": "fmt", "Println": "fmt", "Error": "errors", "New": "errors",
	"Marshal": "encoding/json", "Unmarshal": "encoding/json",
}

func goImportPath(item string) string {
	if path, ok := goImportPaths[item]; ok {
		return path
	}
	return strings.ToLower(item)
}

func applyGoImport(path, itemName string, config Config) *Result {
	raw, err := os.ReadFile(path)
	if err != nil {
		return failure(fmt.Errorf("read %s: %w", path, err))
	}
	content := string(raw)
	importPath := goImportPath(itemName)

	if strings.Contains(content, `"`+importPath+`"`) {
		return failure(fmt.Errorf("import %q already exists", importPath))
	}

	updated := insertGoImport(content, importPath)
	description := fmt.Sprintf("Added import: %q", importPath)

	if config.DryRun {
		return success([]string{path}, "Would add import: "+description)
	}
	if config.CreateBackups {
		if err := os.WriteFile(path+".bak", raw, 0o644); err != nil {
			return failure(fmt.Errorf("write backup: %w", err))
		}
	}
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		return failure(fmt.Errorf("write %s: %w", path, err))
	}
	return successWithRollback([]string{path}, description, map[string]string{path: content})
}

func insertGoImport(content, importPath string) string {
	if idx := strings.Index(content, "import ("); idx >= 0 {
		closeIdx := strings.Index(content[idx:], ")")
		if closeIdx >= 0 {
			insertPos := idx + closeIdx
			return content[:insertPos] + "\t\"" + importPath + "\"\n" + content[insertPos:]
		}
	}

	if idx := strings.Index(content, "import \""); idx >= 0 {
		lineEnd := strings.Index(content[idx:], "\n")
		var existingLine, rest string
		if lineEnd < 0 {
			existingLine = content[idx:]
			rest = ""
		} else {
			existingLine = content[idx : idx+lineEnd]
			rest = content[idx+lineEnd:]
		}
		existing := strings.TrimSuffix(strings.TrimPrefix(existingLine, "import "), "")
		block := "import (\n\t" + existing + "\n\t\"" + importPath + "\"\n)"
		return content[:idx] + block + rest
	}

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "package ") {
			block := []string{"", "import (", "\t\"" + importPath + "\"", ")"}
			out := make([]string, 0, len(lines)+len(block))
			out = append(out, lines[:i+1]...)
			out = append(out, block...)
			out = append(out, lines[i+1:]...)
			return strings.Join(out, "\n")
		}
	}
	return content
}

// applyJsImport handles TypeScript/JavaScript import insertion: without a
// static import map for arbitrary npm packages, it
// leaves a marker comment for a human to resolve rather than guessing.
func applyJsImport(path, itemName string, config Config) *Result {
	raw, err := os.ReadFile(path)
	if err != nil {
		return failure(fmt.Errorf("read %s: %w", path, err))
	}
	content := string(raw)
	marker := fmt.Sprintf("// TODO: Add import for '%s'\n", itemName)

	if strings.Contains(content, marker) {
		return failure(fmt.Errorf("import marker for %q already exists", itemName))
	}

	updated := marker + content
	description := fmt.Sprintf("Added import marker for: %s", itemName)

	if config.DryRun {
		return success([]string{path}, "Would add import marker: "+description)
	}
	if config.CreateBackups {
		if err := os.WriteFile(path+".bak", raw, 0o644); err != nil {
			return failure(fmt.Errorf("write backup: %w", err))
		}
	}
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		return failure(fmt.Errorf("write %s: %w", path, err))
	}
	return successWithRollback([]string{path}, description, map[string]string{path: content})
}
