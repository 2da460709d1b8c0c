package filter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zteradb/zteradb-go/filter"
)

func TestRenderDeterminism(t *testing.T) {
	c, err := filter.Equal(filter.FieldRef("price"), 100)
	require.NoError(t, err)
	assert.Equal(t, c.Render(), c.Render())
}

func TestS1FilterRendering(t *testing.T) {
	eq, err := filter.Equal(filter.FieldRef("price"), 100)
	require.NoError(t, err)
	gt, err := filter.Gt(filter.Val("quantity"), filter.Val(200))
	require.NoError(t, err)

	and, err := filter.And(eq, gt)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"operator": "&&",
		"operand": []any{
			map[string]any{"operator": "=", "operand": "price", "result": 100},
			map[string]any{"operator": ">", "operand": []any{"quantity", 200}},
		},
	}, and.Render())
}

func TestS2ArithmeticUnderEqual(t *testing.T) {
	mul, err := filter.Mul(filter.FieldRef("price"), filter.FieldRef("quantity"))
	require.NoError(t, err)

	eq, err := filter.Equal(mul, 100)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"operator": "=",
		"operand": map[string]any{
			"operator": "*",
			"operand":  []any{"price", "quantity"},
		},
		"result": 100,
	}, eq.Render())
}

func TestS3Validation(t *testing.T) {
	_, err := filter.Add()
	assert.Error(t, err)

	div, err := filter.Div(filter.Val(200), filter.Val(10))
	require.NoError(t, err)
	assert.NotNil(t, div)

	_, err = filter.Div(filter.FieldRef("price"), filter.Val(0))
	assert.Error(t, err)
}

func TestAndOrAssociativityNotFlattened(t *testing.T) {
	a, _ := filter.Equal(filter.FieldRef("a"), 1)
	b, _ := filter.Equal(filter.FieldRef("b"), 2)
	c, _ := filter.Equal(filter.FieldRef("c"), 3)

	inner, err := filter.And(a, b)
	require.NoError(t, err)
	outer, err := filter.And(inner, c)
	require.NoError(t, err)

	rendered := outer.Render()
	operand := rendered["operand"].([]any)
	require.Len(t, operand, 2)
	innerRendered, ok := operand[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "&&", innerRendered["operator"])
}

func TestModRejectsNonPositiveDenominator(t *testing.T) {
	_, err := filter.Mod(filter.Val(10), filter.Val(0))
	assert.Error(t, err)

	_, err = filter.Mod(filter.Val(10), filter.Val(-1))
	assert.Error(t, err)

	m, err := filter.Mod(filter.Val(10), filter.Val(3))
	require.NoError(t, err)
	assert.Equal(t, "%", m.Render()["operator"])
}

func TestStringMatchRequiresNonEmpty(t *testing.T) {
	_, err := filter.Contains(filter.FieldRef(""), "x")
	assert.Error(t, err)

	_, err = filter.Contains(filter.FieldRef("name"), "")
	assert.Error(t, err)

	c, err := filter.Contains(filter.FieldRef("name"), "abc")
	require.NoError(t, err)
	assert.Equal(t, "%%", c.Render()["operator"])
}

func TestInRequiresNonEmptyValues(t *testing.T) {
	_, err := filter.In(filter.FieldRef("id"), nil)
	assert.Error(t, err)

	c, err := filter.In(filter.FieldRef("id"), []filter.Value{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, []filter.Value{1, 2, 3}, c.Render()["result"])
}

func TestEqualRejectsForbiddenResult(t *testing.T) {
	_, err := filter.Equal(filter.FieldRef("x"), map[string]any{"a": 1})
	assert.Error(t, err)
}

func TestComparisonRequiresAtLeastTwoOperands(t *testing.T) {
	_, err := filter.Gt(filter.Val(1))
	assert.Error(t, err)
}
