package cli

import (
	"encoding/json"
	"fmt"
	"io"
)

// writeOutput prints v as indented JSON, or through text for --format text
func writeOutput(w io.Writer, format string, v any, text func(w io.Writer)) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode output: %w", err)
		}
		return nil
	}
	text(w)
	return nil
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
