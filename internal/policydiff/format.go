package policydiff

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FormatText renders the diff result as human-readable text.
func FormatText(r *DiffResult) string {
	if !r.HasChanges {
		return fmt.Sprintf("Policy diff: %s → %s\n\nNo changes detected.\n", r.OldName, r.NewName)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Policy diff: %s → %s\n", r.OldName, r.NewName)

	if len(r.Changes) > 0 {
		b.WriteString("\n")
		for _, c := range r.Changes {
			fmt.Fprintf(&b, "  %-18s %s → %s\n", c.Field+":", c.Old, c.New)
		}
	}

	if len(r.BlockChanges) > 0 {
		b.WriteString("\n  Blocks:\n")
		for _, bc := range r.BlockChanges {
			switch bc.Type {
			case "added":
				fmt.Fprintf(&b, "    + %s %s\n", bc.Kind, bc.BlockID)
			case "removed":
				fmt.Fprintf(&b, "    - %s %s\n", bc.Kind, bc.BlockID)
			case "changed":
				fmt.Fprintf(&b, "    ~ %s %s\n", bc.Kind, bc.BlockID)
				for _, c := range bc.Fields {
					fmt.Fprintf(&b, "        %-16s %s → %s\n", c.Field+":", orNone(c.Old), orNone(c.New))
				}
			}
		}
	}

	return b.String()
}

// FormatJSON renders the diff result as JSON.
func FormatJSON(r *DiffResult) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal diff result: %w", err)
	}
	return string(data), nil
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
