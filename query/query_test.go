package query_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zteradb/zteradb-go/filter"
	"github.com/zteradb/zteradb-go/query"
)

func TestKindGate(t *testing.T) {
	q := query.New("schemaHash", "dbId")
	_, err := q.Generate()
	assert.Error(t, err)
}

func TestS4QueryGenerate(t *testing.T) {
	q := query.New("schemaHash", "dbId")
	q.Select()

	_, err := q.Fields(map[string]filter.Value{"field1": 1})
	require.NoError(t, err)
	_, err = q.Filter(map[string]filter.Value{"field1": "value"})
	require.NoError(t, err)
	_, err = q.Sort(map[string]query.Direction{"field1": query.Asc})
	require.NoError(t, err)
	_, err = q.Limit(0, 10)
	require.NoError(t, err)

	rendered, err := q.Generate()
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"sh": "schemaHash",
		"db": "dbId",
		"qt": 2,
		"fl": map[string]any{"field1": 1},
		"fi": map[string]any{"field1": "value"},
		"st": map[string]int{"field1": 1},
		"lt": []int{0, 10},
	}, rendered)
}

func TestEmptyOmission(t *testing.T) {
	q := query.New("sh", "")
	q.Insert()
	rendered, err := q.Generate()
	require.NoError(t, err)

	for _, key := range []string{"fl", "fi", "fc", "rf", "st", "lt", "cnt", "db"} {
		_, present := rendered[key]
		assert.Falsef(t, present, "key %q should be omitted when empty", key)
	}
	assert.Equal(t, 1, rendered["qt"])
}

func TestCountFlagOnlyEmittedWhenTrue(t *testing.T) {
	q := query.New("sh", "db")
	q.Select().Count()
	rendered, err := q.Generate()
	require.NoError(t, err)
	assert.Equal(t, true, rendered["cnt"])
}

func TestLimitValidation(t *testing.T) {
	q := query.New("sh", "db")
	q.Select()
	_, err := q.Limit(-1, 10)
	assert.Error(t, err)

	_, err = q.Limit(10, 5)
	assert.Error(t, err)
}

func TestRelatedSnapshotsChildImmediately(t *testing.T) {
	child := query.New("childSchema", "db")
	child.Select()

	parent := query.New("sh", "db")
	parent.Select()
	_, err := parent.Related(map[string]*query.Query{"child": child})
	require.NoError(t, err)

	rendered, err := parent.Generate()
	require.NoError(t, err)

	rf, ok := rendered["rf"].(map[string]map[string]any)
	require.True(t, ok)
	assert.Equal(t, "childSchema", rf["child"]["sh"])
}

func TestKindFromString(t *testing.T) {
	k, ok := query.KindFromString("select")
	assert.True(t, ok)
	assert.Equal(t, query.KindSelect, k)

	_, ok = query.KindFromString("bogus")
	assert.False(t, ok)
}
