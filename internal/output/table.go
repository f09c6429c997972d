package output

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/osintworks/domaintools-client/pkg/batch"
)

// FormatPayload renders a single lookup payload.
func FormatPayload(format Format, title string, payload map[string]any) (string, error) {
	if format == FormatJSON {
		return marshalJSON(payload)
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetTitle(title)
	t.AppendHeader(table.Row{"Field", "Value"})

	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		t.AppendRow(table.Row{key, renderValue(payload[key])})
	}

	return t.Render(), nil
}

// FormatBatch renders a batch result set, one row per item in input order.
func FormatBatch(format Format, items []batch.Item) (string, error) {
	if format == FormatJSON {
		return marshalJSON(batchJSON(items))
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"ID", "Status", "Attempts", "Detail"})

	succeeded := 0
	for _, item := range items {
		detail := ""
		switch {
		case item.Err != nil:
			detail = fmt.Sprintf("%s: %s", item.Err.Kind, item.Err.Message)
		case item.Status == batch.StatusSuccess:
			succeeded++
			detail = summarizePayload(item.Payload)
		}
		t.AppendRow(table.Row{item.ID, string(item.Status), item.Attempts, detail})
	}

	t.AppendFooter(table.Row{"", fmt.Sprintf("%d/%d succeeded", succeeded, len(items)), "", ""})

	return t.Render(), nil
}

// batchJSON shapes batch items for JSON output without exposing internal
// error wrapping.
func batchJSON(items []batch.Item) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		entry := map[string]any{
			"id":       item.ID,
			"status":   string(item.Status),
			"attempts": item.Attempts,
		}
		if item.Payload != nil {
			entry["payload"] = item.Payload
		}
		if item.Err != nil {
			entry["error"] = map[string]any{
				"kind":    string(item.Err.Kind),
				"message": item.Err.Message,
			}
		}
		out = append(out, entry)
	}
	return out
}

func marshalJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode output: %w", err)
	}
	return string(data), nil
}

// renderValue flattens nested structures into compact JSON for table cells.
func renderValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64, bool, int, int64:
		return fmt.Sprintf("%v", val)
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(data)
	}
}

// summarizePayload gives a one-cell hint of what came back.
func summarizePayload(payload map[string]any) string {
	if len(payload) == 0 {
		return "empty response"
	}
	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	if len(keys) > 4 {
		keys = keys[:4]
	}
	out := keys[0]
	for _, k := range keys[1:] {
		out += ", " + k
	}
	return fmt.Sprintf("%d field(s): %s", len(payload), out)
}
