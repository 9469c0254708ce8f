// Package diagnostics parses raw compiler output into structured
// diagnostics and derives fix descriptors from them.
package diagnostics

import (
	"strconv"
	"strings"
)

// Severity is the severity level of a parsed diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityNote
	SeverityHelp
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityNote:
		return "note"
	case SeverityHelp:
		return "help"
	default:
		return "unknown"
	}
}

// Location points at a position in source code.
type Location struct {
	File     string
	Line     int
	Column   int // 0 means unset
	EndLine  int
	EndCol   int
	Snippet  string
}

// FormatShort renders "file:line" or "file:line:column".
func (l Location) FormatShort() string {
	if l.Column > 0 {
		return l.File + ":" + strconv.Itoa(l.Line) + ":" + strconv.Itoa(l.Column)
	}
	return l.File + ":" + strconv.Itoa(l.Line)
}

// Suggestion is a compiler-offered remedy attached to a Diagnostic.
type Suggestion struct {
	Message     string
	Location    *Location
	Replacement string
	Applicable  bool
}

// Diagnostic is one parsed record from compiler output.
type Diagnostic struct {
	Severity         Severity
	Code             string // empty when absent
	Message          string
	Location         *Location
	RelatedLocations []Location
	Suggestions      []Suggestion
	Notes            []string
	RawOutput        string
}

// HasCode reports whether the diagnostic carries a compiler error code.
func (d *Diagnostic) HasCode() bool { return d.Code != "" }

// HasLocation reports whether the diagnostic carries a primary location.
func (d *Diagnostic) HasLocation() bool { return d.Location != nil }

// HasSuggestions reports whether the compiler attached any suggestions.
func (d *Diagnostic) HasSuggestions() bool { return len(d.Suggestions) > 0 }

// FilePath returns the primary file path, if any.
func (d *Diagnostic) FilePath() string {
	if d.Location == nil {
		return ""
	}
	return d.Location.File
}

// Line returns the primary line number, or 0 if unset.
func (d *Diagnostic) Line() int {
	if d.Location == nil {
		return 0
	}
	return d.Location.Line
}

// Column returns the primary column number, or 0 if unset.
func (d *Diagnostic) Column() int {
	if d.Location == nil {
		return 0
	}
	return d.Location.Column
}

// Compiler identifies which toolchain produced a parsed report.
type Compiler int

const (
	CompilerUnknown Compiler = iota
	CompilerRust
	CompilerTypeScript
	CompilerGo
)

func (c Compiler) String() string {
	switch c {
	case CompilerRust:
		return "rust"
	case CompilerTypeScript:
		return "typescript"
	case CompilerGo:
		return "go"
	default:
		return "unknown"
	}
}

// Report aggregates every diagnostic parsed from one compiler invocation.
type Report struct {
	Diagnostics   []Diagnostic
	Compiler      Compiler
	ErrorCount    int
	WarningCount  int
}

// HasErrors reports whether the report contains at least one error.
func (r *Report) HasErrors() bool { return r.ErrorCount > 0 }

// HasWarnings reports whether the report contains at least one warning.
func (r *Report) HasWarnings() bool { return r.WarningCount > 0 }

// Errors returns every error-severity diagnostic.
func (r *Report) Errors() []Diagnostic {
	out := make([]Diagnostic, 0, r.ErrorCount)
	for _, d := range r.Diagnostics {
		if d.Severity == SeverityError {
			out = append(out, d)
		}
	}
	return out
}

// Warnings returns every warning-severity diagnostic.
func (r *Report) Warnings() []Diagnostic {
	out := make([]Diagnostic, 0, r.WarningCount)
	for _, d := range r.Diagnostics {
		if d.Severity == SeverityWarning {
			out = append(out, d)
		}
	}
	return out
}

// ByFile groups diagnostics by their primary file path.
func (r *Report) ByFile() map[string][]Diagnostic {
	grouped := make(map[string][]Diagnostic)
	for _, d := range r.Diagnostics {
		if path := d.FilePath(); path != "" {
			grouped[path] = append(grouped[path], d)
		}
	}
	return grouped
}

// Parse parses raw compiler output into a structured Report, detecting the
// producing compiler from content probes.
func Parse(output string) *Report {
	compiler := detectCompiler(output)
	report := &Report{Compiler: compiler}

	switch compiler {
	case CompilerRust:
		parseRustOutput(output, report)
	case CompilerTypeScript:
		parseTypeScriptOutput(output, report)
	case CompilerGo:
		parseGoOutput(output, report)
	default:
		parseGenericOutput(output, report)
	}

	return report
}

func detectCompiler(output string) Compiler {
	if strings.Contains(output, "error[E") || strings.Contains(output, "warning[E") {
		return CompilerRust
	}
	if strings.Contains(output, "Compiling ") && strings.Contains(output, "Finished ") {
		return CompilerRust
	}
	if strings.Contains(output, "--> ") && strings.Contains(output, " |") {
		return CompilerRust
	}
	if strings.Contains(output, "error TS") || strings.Contains(output, "): error TS") {
		return CompilerTypeScript
	}
	for _, line := range strings.Split(output, "\n") {
		parts := strings.Split(line, ":")
		if len(parts) >= 3 && strings.HasSuffix(parts[0], ".go") {
			return CompilerGo
		}
	}
	return CompilerUnknown
}

func parseRustOutput(output string, report *Report) {
	lines := strings.Split(output, "\n")
	i := 0
	for i < len(lines) {
		diag, ok := parseRustDiagnosticLine(lines[i])
		if !ok {
			i++
			continue
		}
		diag.RawOutput = lines[i]
		i++

		for i < len(lines) {
			next := lines[i]
			trimmed := strings.TrimSpace(next)
			switch {
			case strings.HasPrefix(trimmed, "--> "):
				if loc, ok := parseRustLocation(next); ok {
					diag.Location = loc
				}
				diag.RawOutput += "\n" + next
				i++
			case strings.HasPrefix(trimmed, "|"):
				diag.RawOutput += "\n" + next
				i++
			case strings.HasPrefix(trimmed, "= note:"):
				note := strings.TrimSpace(strings.TrimPrefix(trimmed, "= note:"))
				diag.Notes = append(diag.Notes, note)
				diag.RawOutput += "\n" + next
				i++
			case strings.HasPrefix(trimmed, "= help:"):
				help := strings.TrimSpace(strings.TrimPrefix(trimmed, "= help:"))
				diag.Suggestions = append(diag.Suggestions, Suggestion{Message: help})
				diag.RawOutput += "\n" + next
				i++
			case strings.HasPrefix(trimmed, "help:"):
				help := strings.TrimSpace(strings.TrimPrefix(trimmed, "help:"))
				diag.Suggestions = append(diag.Suggestions, Suggestion{Message: help})
				diag.RawOutput += "\n" + next
				i++
			case trimmed == "" || strings.HasPrefix(next, "error") || strings.HasPrefix(next, "warning"):
				goto doneWithDiagnostic
			default:
				diag.RawOutput += "\n" + next
				i++
			}
		}
	doneWithDiagnostic:
		switch diag.Severity {
		case SeverityError:
			report.ErrorCount++
		case SeverityWarning:
			report.WarningCount++
		}
		report.Diagnostics = append(report.Diagnostics, diag)
	}
}

func parseRustDiagnosticLine(line string) (Diagnostic, bool) {
	trimmed := strings.TrimSpace(line)

	if strings.HasPrefix(trimmed, "error[E") {
		end := strings.Index(trimmed, "]")
		if end < 0 {
			return Diagnostic{}, false
		}
		code := trimmed[6:end]
		message := strings.TrimSpace(strings.TrimPrefix(trimmed[end+1:], ":"))
		return Diagnostic{Severity: SeverityError, Code: code, Message: message}, true
	}

	if strings.HasPrefix(trimmed, "warning[") {
		end := strings.Index(trimmed, "]")
		if end < 0 {
			return Diagnostic{}, false
		}
		code := trimmed[8:end]
		message := strings.TrimSpace(strings.TrimPrefix(trimmed[end+1:], ":"))
		return Diagnostic{Severity: SeverityWarning, Code: code, Message: message}, true
	}

	if strings.HasPrefix(trimmed, "error:") {
		message := strings.TrimSpace(trimmed[6:])
		if message != "" {
			return Diagnostic{Severity: SeverityError, Message: message}, true
		}
	}

	if strings.HasPrefix(trimmed, "warning:") {
		message := strings.TrimSpace(trimmed[8:])
		if message != "" {
			return Diagnostic{Severity: SeverityWarning, Message: message}, true
		}
	}

	return Diagnostic{}, false
}

func parseRustLocation(line string) (*Location, bool) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(line), "--> ")
	parts := strings.Split(trimmed, ":")
	if len(parts) < 2 {
		return nil, false
	}
	lineNum, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil, false
	}
	loc := &Location{File: parts[0], Line: lineNum}
	if len(parts) >= 3 {
		if col, err := strconv.Atoi(parts[2]); err == nil {
			loc.Column = col
		}
	}
	return loc, true
}

func parseTypeScriptOutput(output string, report *Report) {
	for _, line := range strings.Split(output, "\n") {
		if diag, ok := parseTypeScriptDiagnosticLine(line); ok {
			switch diag.Severity {
			case SeverityError:
				report.ErrorCount++
			case SeverityWarning:
				report.WarningCount++
			}
			report.Diagnostics = append(report.Diagnostics, diag)
		}
	}
}

func parseTypeScriptDiagnosticLine(line string) (Diagnostic, bool) {
	trimmed := strings.TrimSpace(line)

	parenStart := strings.Index(trimmed, "(")
	parenEnd := strings.Index(trimmed, ")")
	if parenStart < 0 || parenEnd < 0 || parenEnd < parenStart {
		return Diagnostic{}, false
	}
	colonAfterParen := strings.Index(trimmed[parenEnd:], ":")
	if colonAfterParen < 0 {
		return Diagnostic{}, false
	}
	colonAfterParen += parenEnd

	file := trimmed[:parenStart]
	locStr := trimmed[parenStart+1 : parenEnd]
	rest := strings.TrimSpace(trimmed[colonAfterParen+1:])

	locParts := strings.Split(locStr, ",")
	if len(locParts) == 0 {
		return Diagnostic{}, false
	}
	lineNum, err := strconv.Atoi(locParts[0])
	if err != nil {
		return Diagnostic{}, false
	}
	loc := &Location{File: file, Line: lineNum}
	if len(locParts) >= 2 {
		if col, err := strconv.Atoi(locParts[1]); err == nil {
			loc.Column = col
		}
	}

	var severity Severity
	var code, message string
	switch {
	case strings.HasPrefix(rest, "error TS"):
		end := strings.Index(rest, ":")
		if end < 0 {
			return Diagnostic{}, false
		}
		severity = SeverityError
		code = rest[6:end]
		message = strings.TrimSpace(rest[end+1:])
	case strings.HasPrefix(rest, "warning TS"):
		end := strings.Index(rest, ":")
		if end < 0 {
			return Diagnostic{}, false
		}
		severity = SeverityWarning
		code = rest[8:end]
		message = strings.TrimSpace(rest[end+1:])
	default:
		return Diagnostic{}, false
	}

	return Diagnostic{
		Severity:  severity,
		Code:      code,
		Message:   message,
		Location:  loc,
		RawOutput: trimmed,
	}, true
}

func parseGoOutput(output string, report *Report) {
	for _, line := range strings.Split(output, "\n") {
		if diag, ok := parseGoDiagnosticLine(line); ok {
			report.ErrorCount++
			report.Diagnostics = append(report.Diagnostics, diag)
		}
	}
}

func parseGoDiagnosticLine(line string) (Diagnostic, bool) {
	trimmed := strings.TrimSpace(line)
	parts := strings.SplitN(trimmed, ":", 4)
	if len(parts) < 4 || !strings.HasSuffix(parts[0], ".go") {
		return Diagnostic{}, false
	}
	lineNum, err := strconv.Atoi(parts[1])
	if err != nil {
		return Diagnostic{}, false
	}
	loc := &Location{File: parts[0], Line: lineNum}
	if col, err := strconv.Atoi(parts[2]); err == nil {
		loc.Column = col
	}
	return Diagnostic{
		Severity:  SeverityError,
		Message:   strings.TrimSpace(parts[3]),
		Location:  loc,
		RawOutput: trimmed,
	}, true
}

func parseGenericOutput(output string, report *Report) {
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		lower := strings.ToLower(trimmed)
		switch {
		case strings.Contains(lower, "error"):
			report.ErrorCount++
			report.Diagnostics = append(report.Diagnostics, Diagnostic{
				Severity: SeverityError, Message: trimmed, RawOutput: trimmed,
			})
		case strings.Contains(lower, "warning"):
			report.WarningCount++
			report.Diagnostics = append(report.Diagnostics, Diagnostic{
				Severity: SeverityWarning, Message: trimmed, RawOutput: trimmed,
			})
		}
	}
}

// FixType enumerates the kinds of patches the fix applier knows how to make.
type FixType int

const (
	FixAddImport FixType = iota
	FixAddDependency
	FixFixType
	FixSyntax
)

func (t FixType) String() string {
	switch t {
	case FixAddImport:
		return "add_import"
	case FixAddDependency:
		return "add_dependency"
	case FixFixType:
		return "fix_type"
	case FixSyntax:
		return "fix_syntax"
	default:
		return "unknown"
	}
}

// FixInfo describes a proposed patch: type, target, and human summary.
type FixInfo struct {
	FixType         FixType
	TargetFile      string
	TargetItem      string
	SuggestedChange string
}

// ExtractFixInfo derives a FixInfo from a parsed Diagnostic, dispatching by
// error code first and falling back to message-keyword heuristics.
func ExtractFixInfo(d *Diagnostic) (FixInfo, bool) {
	message := d.Message
	lower := strings.ToLower(message)

	switch d.Code {
	case "E0433", "E0425":
		if name, ok := extractQuotedName(message); ok {
			return FixInfo{
				FixType:         FixAddImport,
				TargetFile:      d.FilePath(),
				TargetItem:      name,
				SuggestedChange: "Add import or declaration for `" + name + "`",
			}, true
		}
	case "E0463":
		if name, ok := extractQuotedName(message); ok {
			return FixInfo{
				FixType:         FixAddDependency,
				TargetFile:      "Cargo.toml",
				TargetItem:      name,
				SuggestedChange: "Add dependency to Cargo.toml",
			}, true
		}
	case "E0412":
		if name, ok := extractQuotedName(message); ok {
			return FixInfo{
				FixType:         FixAddImport,
				TargetFile:      d.FilePath(),
				TargetItem:      name,
				SuggestedChange: "Add import for type",
			}, true
		}
	case "E0308":
		return FixInfo{
			FixType:         FixFixType,
			TargetFile:      d.FilePath(),
			SuggestedChange: "Fix type mismatch",
		}, true
	}

	if strings.Contains(lower, "cannot find crate") ||
		strings.Contains(lower, "can't find crate") ||
		strings.Contains(lower, "unresolved import") {
		name, _ := extractQuotedName(message)
		return FixInfo{
			FixType:         FixAddDependency,
			TargetFile:      "Cargo.toml",
			TargetItem:      name,
			SuggestedChange: "Add missing dependency",
		}, true
	}

	if strings.Contains(lower, "cannot find") && strings.Contains(lower, "in this scope") {
		name, _ := extractQuotedName(message)
		return FixInfo{
			FixType:         FixAddImport,
			TargetFile:      d.FilePath(),
			TargetItem:      name,
			SuggestedChange: "Add missing import",
		}, true
	}

	if strings.Contains(lower, "mismatched types") || strings.Contains(lower, "type mismatch") {
		return FixInfo{
			FixType:         FixFixType,
			TargetFile:      d.FilePath(),
			SuggestedChange: "Fix type mismatch",
		}, true
	}

	return FixInfo{}, false
}

// extractQuotedName prefers a backtick-quoted name, then a single-quoted
// one; multi-word captures are rejected.
func extractQuotedName(message string) (string, bool) {
	if start := strings.Index(message, "`"); start >= 0 {
		rest := message[start+1:]
		if end := strings.Index(rest, "`"); end >= 0 {
			name := rest[:end]
			if name != "" && !strings.Contains(name, " ") {
				return name, true
			}
		}
	}

	if start := strings.Index(message, "'"); start >= 0 {
		rest := message[start+1:]
		if end := strings.Index(rest, "'"); end >= 0 {
			name := rest[:end]
			if name != "" && !strings.Contains(name, " ") {
				return name, true
			}
		}
	}

	return "", false
}
