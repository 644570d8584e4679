// Package toon implements TOON (Token-Oriented Object Notation) encoding
// of a class hierarchy map.
package toon

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/enftools/classmap/internal/model"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// Encode converts a HierarchyMap into TOON format.
func Encode(hm *model.HierarchyMap) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("profile: %s", encodeValue(hm.Profile)))
	parts = append(parts, fmt.Sprintf("root: %s", encodeValue(hm.Root)))

	var classRows [][]string
	for i := range hm.Classes {
		e := &hm.Classes[i]
		classRows = append(classRows, []string{
			e.Name,
			e.Superclass,
			fmt.Sprintf("%d", e.Depth),
			fmt.Sprintf("%t", e.Incomplete),
			e.File,
			fmt.Sprintf("%d", e.Line),
		})
	}
	parts = append(parts, formatTabular("classes",
		[]string{"name", "extends", "depth", "incomplete", "file", "line"}, classRows))

	var memberRows [][]string
	for i := range hm.Classes {
		e := &hm.Classes[i]
		for j := range e.Members {
			m := &e.Members[j]
			memberRows = append(memberRows, []string{
				e.Name,
				m.Name,
				string(m.Kind),
				m.Type,
				strings.Join(m.Params, " "),
				fmt.Sprintf("%t", m.Native),
				fmt.Sprintf("%t", m.Static),
				fmt.Sprintf("%d", m.Line),
			})
		}
	}
	parts = append(parts, formatTabular("members",
		[]string{"class", "name", "kind", "type", "params", "native", "static", "line"}, memberRows))

	if len(hm.Diagnostics.Incomplete) > 0 {
		var rows [][]string
		for _, inc := range hm.Diagnostics.Incomplete {
			rows = append(rows, []string{inc.Class, inc.Missing})
		}
		parts = append(parts, formatTabular("incomplete", []string{"class", "missing"}, rows))
	}

	if len(hm.Diagnostics.DuplicatesSkipped) > 0 {
		var rows [][]string
		for _, name := range hm.Diagnostics.DuplicatesSkipped {
			rows = append(rows, []string{name})
		}
		parts = append(parts, formatTabular("duplicates", []string{"class"}, rows))
	}

	return strings.Join(parts, "\n")
}

func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
