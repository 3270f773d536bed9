// Package output renders command results for humans or machines.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"docdb-go/docp"
)

// Formatter defines the interface for output formatting.
type Formatter interface {
	Format(data any) string
}

// NewFormatter returns a Formatter for the given format string.
// Supported formats: "table" (default), "json", "yaml".
func NewFormatter(format string) Formatter {
	switch strings.ToLower(format) {
	case "json":
		return &JSONFormatter{}
	case "yaml":
		return &YAMLFormatter{}
	default:
		return &TableFormatter{}
	}
}

// TableFormatter lays documents out as aligned columns. The header is the
// union of keys across all rows: id first, the rest alphabetical, since
// schemaless documents have no field order of their own.
type TableFormatter struct{}

func (f *TableFormatter) Format(data any) string {
	switch v := data.(type) {
	case docp.Document:
		return f.formatDocs([]docp.Document{v})
	case []docp.Document:
		if len(v) == 0 {
			return "No documents found.\n"
		}
		return f.formatDocs(v)
	default:
		return fmt.Sprintf("%v\n", data)
	}
}

func (f *TableFormatter) formatDocs(docs []docp.Document) string {
	cols := columns(docs)

	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)

	headers := make([]string, len(cols))
	for i, col := range cols {
		headers[i] = strings.ToUpper(col)
	}
	fmt.Fprintln(w, strings.Join(headers, "\t"))

	for _, doc := range docs {
		row := make([]string, len(cols))
		for i, col := range cols {
			if val, ok := doc[col]; ok {
				row[i] = cell(val)
			}
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}

	w.Flush()
	return buf.String()
}

func columns(docs []docp.Document) []string {
	seen := make(map[string]bool)
	var cols []string
	hasID := false
	for _, doc := range docs {
		for k := range doc {
			if k == docp.IDKey {
				hasID = true
				continue
			}
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	sort.Strings(cols)
	if hasID {
		cols = append([]string{docp.IDKey}, cols...)
	}
	return cols
}

// cell renders one value; nested structures fall back to compact JSON.
func cell(val any) string {
	switch val.(type) {
	case map[string]any, []any:
		if b, err := json.Marshal(val); err == nil {
			return string(b)
		}
	}
	return fmt.Sprintf("%v", val)
}

// JSONFormatter formats data as indented JSON.
type JSONFormatter struct{}

func (f *JSONFormatter) Format(data any) string {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("error formatting JSON: %v\n", err)
	}
	return string(b) + "\n"
}

// YAMLFormatter formats data as YAML.
type YAMLFormatter struct{}

func (f *YAMLFormatter) Format(data any) string {
	b, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Sprintf("error formatting YAML: %v\n", err)
	}
	return string(b)
}
