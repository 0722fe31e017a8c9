package policydiff

import (
	"bytes"
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
	sgdiff "github.com/sourcegraph/go-diff/diff"

	"github.com/awmpietro/policy-blocks/internal/policy"
	"github.com/awmpietro/policy-blocks/internal/policy/condition"
)

// Change is a single field that differs between two versions of a block
// (or of the policy itself when Field is "name").
type Change struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

// BlockChange reports a block added, removed or changed between versions.
// Blocks are matched by identifier.
type BlockChange struct {
	Type    string   `json:"type"` // "added", "removed", "changed"
	BlockID string   `json:"block_id"`
	Kind    string   `json:"kind"`
	Fields  []Change `json:"fields,omitempty"`
}

type DiffResult struct {
	OldName      string        `json:"old_name"`
	NewName      string        `json:"new_name"`
	Changes      []Change      `json:"changes"`
	BlockChanges []BlockChange `json:"block_changes"`
	HasChanges   bool          `json:"has_changes"`
}

// Diff compares two policy documents. Added and changed blocks are reported
// in new-document order, removed blocks in old-document order.
func Diff(old, new policy.Document) *DiffResult {
	r := &DiffResult{OldName: old.Name, NewName: new.Name}

	if old.Name != new.Name {
		r.Changes = append(r.Changes, Change{Field: "name", Old: old.Name, New: new.Name})
	}

	oldByID := make(map[string]policy.Record, len(old.Blocks))
	for _, rec := range old.Blocks {
		oldByID[rec.ID] = rec
	}
	newByID := make(map[string]policy.Record, len(new.Blocks))
	for _, rec := range new.Blocks {
		newByID[rec.ID] = rec
	}

	for _, rec := range new.Blocks {
		prev, exists := oldByID[rec.ID]
		if !exists {
			r.BlockChanges = append(r.BlockChanges, BlockChange{Type: "added", BlockID: rec.ID, Kind: string(rec.Type)})
			continue
		}
		if fields := diffRecord(prev, rec); len(fields) > 0 {
			r.BlockChanges = append(r.BlockChanges, BlockChange{Type: "changed", BlockID: rec.ID, Kind: string(rec.Type), Fields: fields})
		}
	}
	for _, rec := range old.Blocks {
		if _, exists := newByID[rec.ID]; !exists {
			r.BlockChanges = append(r.BlockChanges, BlockChange{Type: "removed", BlockID: rec.ID, Kind: string(rec.Type)})
		}
	}

	r.HasChanges = len(r.Changes) > 0 || len(r.BlockChanges) > 0
	return r
}

func diffRecord(old, new policy.Record) []Change {
	var out []Change
	add := func(field, a, b string) {
		if a != b {
			out = append(out, Change{Field: field, Old: a, New: b})
		}
	}

	add("type", string(old.Type), string(new.Type))
	add("operator", operator(old.Operator), operator(new.Operator))
	add("target_variable", str(old.TargetVariable), str(new.TargetVariable))
	add("value", scalar(old.Value), scalar(new.Value))
	add("output_value", scalar(old.OutputValue), scalar(new.OutputValue))
	add("next_block", str(old.NextBlock), str(new.NextBlock))
	add("next_true", str(old.NextTrue), str(new.NextTrue))
	add("next_false", str(old.NextFalse), str(new.NextFalse))
	return out
}

func operator(op *policy.Operator) string {
	if op == nil {
		return ""
	}
	return string(*op)
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func scalar(v any) string {
	if v == nil {
		return ""
	}
	return condition.Literal(v)
}

// DiffStats counts the changed lines of a unified diff.
type DiffStats struct {
	Added   int
	Removed int
}

// Unified renders a line diff of two serialized documents. Identical
// inputs produce an empty string.
func Unified(old, new []byte, oldLabel, newLabel string, context int) (string, DiffStats, error) {
	if context <= 0 {
		context = 3
	}

	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(old)),
		B:        difflib.SplitLines(string(new)),
		FromFile: oldLabel,
		ToFile:   newLabel,
		Context:  context,
	}
	patch, err := difflib.GetUnifiedDiffString(ud)
	if err != nil {
		return "", DiffStats{}, err
	}

	if patch == "" {
		return "", DiffStats{}, nil
	}

	// Counted from the parsed hunks so the stats describe the emitted patch.
	fd, err := sgdiff.ParseFileDiff([]byte(patch))
	if err != nil {
		return "", DiffStats{}, fmt.Errorf("parse patch: %w", err)
	}
	var stats DiffStats
	for _, h := range fd.Hunks {
		for _, line := range bytes.SplitAfter(h.Body, []byte("\n")) {
			switch {
			case len(line) == 0:
			case line[0] == '+':
				stats.Added++
			case line[0] == '-':
				stats.Removed++
			}
		}
	}
	return patch, stats, nil
}
