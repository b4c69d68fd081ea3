package story

import (
	"fmt"
	"sort"

	"go.uber.org/multierr"
)

// Validate checks the structural invariants: the display order is a
// permutation of the segment ids, every segment is keyed by its own id, kinds
// are known and branch targets are non-empty. Dangling branch targets are
// allowed; navigation skips them.
func (s Story) Validate() error {
	var errs error
	seen := make(map[string]struct{}, len(s.Order))
	for i, id := range s.Order {
		if _, dup := seen[id]; dup {
			errs = multierr.Append(errs, fmt.Errorf("ui_segment_order[%d]: duplicate id %q", i, id))
			continue
		}
		seen[id] = struct{}{}
		if _, ok := s.Segments[id]; !ok {
			errs = multierr.Append(errs, fmt.Errorf("ui_segment_order[%d]: unknown segment %q", i, id))
		}
	}
	for _, key := range sortedKeys(s.Segments) {
		seg := s.Segments[key]
		if _, ok := seen[key]; !ok {
			errs = multierr.Append(errs, fmt.Errorf("segment %q is missing from ui_segment_order", key))
		}
		if seg.ID != key {
			errs = multierr.Append(errs, fmt.Errorf("segment %q carries id %q", key, seg.ID))
		}
		if !seg.Kind.Valid() {
			errs = multierr.Append(errs, fmt.Errorf("segment %q: unknown type %q", key, seg.Kind))
		}
		for i, b := range seg.Branches {
			if b.Target == "" {
				errs = multierr.Append(errs, fmt.Errorf("segment %q: next[%d] has no target", key, i))
			}
		}
	}
	for name, v := range s.Variables {
		if v.Type() == 0 {
			errs = multierr.Append(errs, fmt.Errorf("variable %q has no value", name))
		}
	}
	return errs
}

// BranchRef identifies one branch edge.
type BranchRef struct {
	From   string
	Index  int
	Target string
}

// DanglingBranches lists edges whose target segment does not exist.
func (s Story) DanglingBranches() []BranchRef {
	var out []BranchRef
	for _, key := range sortedKeys(s.Segments) {
		for i, b := range s.Segments[key].Branches {
			if _, ok := s.Segments[b.Target]; !ok {
				out = append(out, BranchRef{From: key, Index: i, Target: b.Target})
			}
		}
	}
	return out
}

func sortedKeys(m map[string]Segment) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
