// Package output renders lookup payloads and batch results for the CLI.
package output

import "fmt"

// Format selects how results are rendered.
type Format string

const (
	// FormatTable renders an ASCII table.
	FormatTable Format = "table"

	// FormatJSON renders indented JSON.
	FormatJSON Format = "json"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatTable, FormatJSON:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown output format %q (expected table or json)", s)
	}
}
