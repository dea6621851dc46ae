// Package table provides the GroupedTable relation consumed by the
// serialization and factorization stages.
//
// A GroupedTable is a multimap from a group key to an ordered sequence of
// member identifiers, analogous to a user's sequence of interacted items
// in a collaborative-filtering setting.
package table

import (
	"fmt"

	"github.com/embedlab/hidim-go/pkg/pipeline"
)

// Pair is a single (group key, member id) row.
//
// Values of any type are accepted; non-string values are stringified
// with fmt.Sprint when the row is appended.
type Pair struct {
	// Group is the group key.
	Group interface{}

	// Member is the member identifier.
	Member interface{}
}

// GroupedTable is a relation of (group_key, member_id) rows.
//
// Group iteration order is the first-appearance order of group keys, and
// member order within a group is row order. Both are deterministic for a
// given table, which the serializer relies on.
//
// GroupedTable is not safe for concurrent mutation; once built it is
// read-only to every consumer and safe to share.
type GroupedTable struct {
	// keys holds group keys in first-appearance order.
	keys []string

	// members maps a group key to its member ids in row order.
	members map[string][]string

	// rows is the total number of appended rows.
	rows int
}

// New creates an empty GroupedTable.
func New() *GroupedTable {
	return &GroupedTable{
		members: make(map[string][]string),
	}
}

// Append adds one (group, member) row.
//
// Non-string values are stringified. Returns ErrInvalidArgument if either
// field stringifies to the empty string: every row must have both fields
// populated.
func (t *GroupedTable) Append(group, member interface{}) error {
	g := stringify(group)
	m := stringify(member)
	if g == "" || m == "" {
		return pipeline.NewPipelineError("Append",
			fmt.Errorf("%w: group and member must be non-empty", pipeline.ErrInvalidArgument))
	}

	if _, ok := t.members[g]; !ok {
		t.keys = append(t.keys, g)
	}
	t.members[g] = append(t.members[g], m)
	t.rows++
	return nil
}

// FromPairs builds a GroupedTable from rows.
//
// Returns an error if any row has an empty group or member.
func FromPairs(pairs []Pair) (*GroupedTable, error) {
	t := New()
	for _, p := range pairs {
		if err := t.Append(p.Group, p.Member); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// FromColumns builds a GroupedTable from named columns.
//
// Parameters:
//   - columns: column name -> column values
//   - groupCol: name of the group key column
//   - memberCol: name of the member id column
//
// Returns ErrMissingColumn if either named column is absent, and
// ErrInvalidArgument if the two columns have different lengths or any
// cell is empty.
func FromColumns(columns map[string][]interface{}, groupCol, memberCol string) (*GroupedTable, error) {
	groups, ok := columns[groupCol]
	if !ok {
		return nil, pipeline.NewPipelineError("FromColumns",
			fmt.Errorf("%w: %q", pipeline.ErrMissingColumn, groupCol))
	}
	members, ok := columns[memberCol]
	if !ok {
		return nil, pipeline.NewPipelineError("FromColumns",
			fmt.Errorf("%w: %q", pipeline.ErrMissingColumn, memberCol))
	}
	if len(groups) != len(members) {
		return nil, pipeline.NewPipelineError("FromColumns",
			fmt.Errorf("%w: column lengths differ (%d vs %d)", pipeline.ErrInvalidArgument, len(groups), len(members)))
	}

	t := New()
	for i := range groups {
		if err := t.Append(groups[i], members[i]); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Groups returns the group keys in first-appearance order.
//
// The returned slice is a copy and may be retained by the caller.
func (t *GroupedTable) Groups() []string {
	out := make([]string, len(t.keys))
	copy(out, t.keys)
	return out
}

// Members returns the member ids of a group in row order, or nil if the
// group is absent.
//
// The returned slice is a copy and may be retained by the caller.
func (t *GroupedTable) Members(group string) []string {
	src, ok := t.members[group]
	if !ok {
		return nil
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// Len returns the total number of rows.
func (t *GroupedTable) Len() int { return t.rows }

// GroupCount returns the number of distinct groups.
func (t *GroupedTable) GroupCount() int { return len(t.keys) }

// stringify converts a cell value to its string form.
func stringify(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
