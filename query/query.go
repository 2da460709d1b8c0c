// Package query implements the fluent Query builder and its rendering to
// the wire dictionary.
package query

import (
	"github.com/zteradb/zteradb-go/filter"
	"github.com/zteradb/zteradb-go/zterr"
)

// Direction is a sort direction: +1 ascending, -1 descending.
type Direction int

const (
	Asc  Direction = 1
	Desc Direction = -1
)

type sortEntry struct {
	field     string
	direction Direction
}

// Query accumulates query intent until Generate renders it to a wire
// dictionary. A Query remains reusable after Generate: rendering copies
// state out rather than consuming it.
type Query struct {
	schema string
	dbID   string
	kind   Kind

	fields           map[string]filter.Value
	filters          map[string]filter.Value
	filterConditions []*filter.Condition
	related          map[string]map[string]any
	sort             []sortEntry
	limitStart       int
	limitEnd         int
	hasLimit         bool
	count            bool
}

// New starts a builder for the given schema name. schema must be
// non-empty; databaseID may be empty if the pool/session supplies it at
// execution time.
func New(schema, databaseID string) *Query {
	return &Query{
		schema:  schema,
		dbID:    databaseID,
		fields:  map[string]filter.Value{},
		filters: map[string]filter.Value{},
		related: map[string]map[string]any{},
	}
}

// Select sets the query kind to SELECT. Returns q for chaining; the last
// kind-setting call before Generate wins.
func (q *Query) Select() *Query { q.kind = KindSelect; return q }

// Insert sets the query kind to INSERT.
func (q *Query) Insert() *Query { q.kind = KindInsert; return q }

// Update sets the query kind to UPDATE.
func (q *Query) Update() *Query { q.kind = KindUpdate; return q }

// Delete sets the query kind to DELETE.
func (q *Query) Delete() *Query { q.kind = KindDelete; return q }

// Kind returns the currently set query kind.
func (q *Query) Kind() Kind { return q.kind }

// IsSelectQuery reports whether this query's kind is SELECT; used by the
// façade to decide between a single result and a streaming iterator.
func (q *Query) IsSelectQuery() bool { return q.kind.IsSelect() }

// Fields merges the given key/value pairs into the query's field set,
// rejecting non-scalar values (mappings, sequences, callables).
func (q *Query) Fields(kv map[string]filter.Value) (*Query, error) {
	for k, v := range kv {
		if k == "" {
			return nil, zterr.New(zterr.KindQueryBuild, "field name must be a non-empty string")
		}
		if err := rejectForbidden("field", k, v); err != nil {
			return nil, err
		}
		q.fields[k] = v
	}
	return q, nil
}

// Filter merges the given key/value pairs into the query's equality
// filters (the fi map), with the same validation as Fields.
func (q *Query) Filter(kv map[string]filter.Value) (*Query, error) {
	for k, v := range kv {
		if k == "" {
			return nil, zterr.New(zterr.KindQueryBuild, "filter name must be a non-empty string")
		}
		if err := rejectForbidden("filter", k, v); err != nil {
			return nil, err
		}
		q.filters[k] = v
	}
	return q, nil
}

// FilterCondition appends c to the query's filter_conditions list; it is
// rendered when Generate runs.
func (q *Query) FilterCondition(c *filter.Condition) *Query {
	q.filterConditions = append(q.filterConditions, c)
	return q
}

// Related attaches a child Query under the given key. The child is
// rendered immediately (Generate is called on it now), snapshotting it
// into a wire dictionary and breaking any cycle before it ever reaches the
// protocol layer.
func (q *Query) Related(kv map[string]*Query) (*Query, error) {
	for k, child := range kv {
		if k == "" {
			return nil, zterr.New(zterr.KindQueryBuild, "related key must be a non-empty string")
		}
		if child == nil {
			return nil, zterr.New(zterr.KindQueryBuild, "related query %q must not be nil", k)
		}
		rendered, err := child.Generate()
		if err != nil {
			return nil, err
		}
		q.related[k] = rendered
	}
	return q, nil
}

// Sort appends field/direction pairs in call order (pairs within one map
// have no defined order). Generate renders them as a single map, so the
// rendered st entry carries no ordering and a field sorted more than once
// keeps the direction of its last entry.
func (q *Query) Sort(kv map[string]Direction) (*Query, error) {
	for k, dir := range kv {
		if k == "" {
			return nil, zterr.New(zterr.KindQueryBuild, "sort field must be a non-empty string")
		}
		if dir != Asc && dir != Desc {
			return nil, zterr.New(zterr.KindQueryBuild, "sort direction must be +1 or -1, got %d", dir)
		}
		q.sort = append(q.sort, sortEntry{field: k, direction: dir})
	}
	return q, nil
}

// Limit sets the [start, end) window. start must be >= 0 and end > start.
func (q *Query) Limit(start, end int) (*Query, error) {
	if start < 0 {
		return nil, zterr.New(zterr.KindQueryBuild, "limit start must be >= 0, got %d", start)
	}
	if end <= start {
		return nil, zterr.New(zterr.KindQueryBuild, "limit end must be greater than start (start=%d, end=%d)", start, end)
	}
	q.limitStart, q.limitEnd, q.hasLimit = start, end, true
	return q, nil
}

// Count sets the count flag, asking the server to return a row count
// instead of (or alongside) rows.
func (q *Query) Count() *Query { q.count = true; return q }

func rejectForbidden(kind, name string, v filter.Value) error {
	if filter.IsForbiddenValue(v) {
		return zterr.New(zterr.KindQueryBuild, "invalid value for %s %q", kind, name)
	}
	return nil
}

// Generate renders the query to its wire dictionary, using the "sh, db,
// qt, fl, fi, fc, rf, st, lt, cnt" keys; any key whose value is empty
// (empty map/list or the default count=false) is omitted entirely.
func (q *Query) Generate() (map[string]any, error) {
	if q.kind == KindNone {
		return nil, zterr.New(zterr.KindQueryBuild, "you forgot to call one of Select, Insert, Update, or Delete")
	}
	if q.schema == "" {
		return nil, zterr.New(zterr.KindQueryBuild, "schema name must be a non-empty string")
	}

	out := map[string]any{}
	out["sh"] = q.schema
	if q.dbID != "" {
		out["db"] = q.dbID
	}
	out["qt"] = q.kind.Int()

	if len(q.fields) > 0 {
		out["fl"] = copyValueMap(q.fields)
	}
	if len(q.filters) > 0 {
		out["fi"] = copyValueMap(q.filters)
	}
	if len(q.filterConditions) > 0 {
		rendered := make([]map[string]any, len(q.filterConditions))
		for i, c := range q.filterConditions {
			rendered[i] = c.Render()
		}
		out["fc"] = rendered
	}
	if len(q.related) > 0 {
		rf := make(map[string]map[string]any, len(q.related))
		for k, v := range q.related {
			rf[k] = v
		}
		out["rf"] = rf
	}
	if len(q.sort) > 0 {
		out["st"] = q.sortMap()
	}
	if q.hasLimit {
		out["lt"] = []int{q.limitStart, q.limitEnd}
	}
	if q.count {
		out["cnt"] = true
	}
	return out, nil
}

func (q *Query) sortMap() map[string]int {
	m := make(map[string]int, len(q.sort))
	for _, e := range q.sort {
		m[e.field] = int(e.direction)
	}
	return m
}

func copyValueMap(m map[string]filter.Value) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
