package filter

import "github.com/zteradb/zteradb-go/zterr"

// shape tags how a Condition's operand(s) were stored, so Render knows
// whether to emit a bare operand or a list.
type shape int

const (
	shapeList   shape = iota + 1 // operand = [Operand, ...]
	shapeSingle                  // operand = Operand (FieldRef or Condition)
)

// Condition is a node of the filter AST. Every constructor validates its
// arguments immediately (fail-fast) and Render is a pure, idempotent
// projection of already-validated state — it never re-validates or
// mutates.
type Condition struct {
	operator  OpCode
	shape     shape
	list      []Operand
	single    Operand
	result    Value
	hasResult bool
}

// renderOperand lets a Condition be nested inside another Condition's
// operand list; the outer Render inlines this Condition's own rendered map
// rather than wrapping it further.
func (c *Condition) renderOperand() any { return c.Render() }

// Render produces the wire dictionary for this Condition. Calling Render
// repeatedly on the same Condition always yields an equal result.
func (c *Condition) Render() map[string]any {
	out := map[string]any{"operator": string(c.operator)}

	switch c.shape {
	case shapeList:
		rendered := make([]any, len(c.list))
		for i, o := range c.list {
			rendered[i] = o.renderOperand()
		}
		out["operand"] = rendered
	case shapeSingle:
		out["operand"] = c.single.renderOperand()
	}

	if c.hasResult {
		out["result"] = c.result
	}
	return out
}

func newListCondition(op OpCode, operands []Operand) *Condition {
	return &Condition{operator: op, shape: shapeList, list: operands}
}

func newSingleCondition(op OpCode, operand Operand, result Value, hasResult bool) *Condition {
	return &Condition{operator: op, shape: shapeSingle, single: operand, result: result, hasResult: hasResult}
}

// validateNonEmptyList rejects an empty or nil operand list for the given
// operator name.
func validateNonEmptyList(op string, operands []Operand) error {
	if len(operands) == 0 {
		return zterr.New(zterr.KindCondition, "operand must be a non-empty list for %s operation", op)
	}
	return nil
}

func validateMinLen(op string, operands []Operand, min int) error {
	if len(operands) < min {
		return zterr.New(zterr.KindCondition, "operand must have at least %d elements for %s operation", min, op)
	}
	return nil
}

func validateNonEmptyFieldRef(op string, f FieldRef) error {
	if f == "" {
		return zterr.New(zterr.KindCondition, "field must be a non-empty string for %s operation", op)
	}
	return nil
}

func validateNonEmptyStringResult(op string, v Value) error {
	s, ok := v.(string)
	if !ok || s == "" {
		return zterr.New(zterr.KindCondition, "value must be a non-empty string for %s operation", op)
	}
	return nil
}
