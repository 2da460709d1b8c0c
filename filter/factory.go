package filter

import "github.com/zteradb/zteradb-go/zterr"

// Condition constructors, one per operator code. Go's static typing
// already rejects what a dynamically typed caller could otherwise get
// wrong (a caller cannot pass a bare string where []Operand is expected),
// so these only need to enforce the remaining semantic invariants:
// non-empty lists, non-zero divisors, positive moduli, non-empty field
// names and string values.

func validateOperandElements(op string, operands []Operand) error {
	for _, o := range operands {
		if vo, ok := o.(valueOperand); ok {
			if isForbiddenValue(vo.v) {
				return zterr.New(zterr.KindCondition, "invalid operand %v for %s operation", vo.v, op)
			}
		}
	}
	return nil
}

// And combines conditions with logical AND. Its operand list is the
// supplied conditions verbatim — nested conditions are inlined by Render,
// never re-wrapped.
func And(conditions ...*Condition) (*Condition, error) {
	if len(conditions) == 0 {
		return nil, zterr.New(zterr.KindCondition, "operand must be a non-empty list for && operation")
	}
	operands := make([]Operand, len(conditions))
	for i, c := range conditions {
		if c == nil {
			return nil, zterr.New(zterr.KindCondition, "nil condition in && operation")
		}
		operands[i] = c
	}
	return newListCondition(OpAnd, operands), nil
}

// Or combines conditions with logical OR.
func Or(conditions ...*Condition) (*Condition, error) {
	if len(conditions) == 0 {
		return nil, zterr.New(zterr.KindCondition, "operand must be a non-empty list for || operation")
	}
	operands := make([]Operand, len(conditions))
	for i, c := range conditions {
		if c == nil {
			return nil, zterr.New(zterr.KindCondition, "nil condition in || operation")
		}
		operands[i] = c
	}
	return newListCondition(OpOr, operands), nil
}

func equalLike(op OpCode, name string, operand Operand, result Value) (*Condition, error) {
	switch operand.(type) {
	case FieldRef, *Condition:
	default:
		return nil, zterr.New(zterr.KindCondition, "operand must be a field reference or condition for %s operation", name)
	}
	if isForbiddenValue(result) {
		return nil, zterr.New(zterr.KindCondition, "result must be a scalar value for %s operation", name)
	}
	return newSingleCondition(op, operand, result, true), nil
}

// Equal asserts operand == result. operand must be a FieldRef or a nested
// Condition (e.g. the result of Mul/Add); result must be a plain Value.
func Equal(operand Operand, result Value) (*Condition, error) {
	return equalLike(OpEqual, "equal", operand, result)
}

// NotEqual asserts operand != result.
func NotEqual(operand Operand, result Value) (*Condition, error) {
	return equalLike(OpNotEqual, "not-equal", operand, result)
}

func arithmetic(op OpCode, name string, operands ...Operand) (*Condition, error) {
	if err := validateNonEmptyList(name, operands); err != nil {
		return nil, err
	}
	if err := validateOperandElements(name, operands); err != nil {
		return nil, err
	}
	return newListCondition(op, operands), nil
}

// Add renders ADD over one or more operands.
func Add(operands ...Operand) (*Condition, error) { return arithmetic(OpAdd, "add", operands...) }

// Sub renders SUB over one or more operands.
func Sub(operands ...Operand) (*Condition, error) { return arithmetic(OpSub, "sub", operands...) }

// Mul renders MUL over one or more operands.
func Mul(operands ...Operand) (*Condition, error) { return arithmetic(OpMul, "mul", operands...) }

// Div renders DIV(dividend, divisor). divisor must not be a literal zero.
func Div(dividend, divisor Operand) (*Condition, error) {
	if err := validateOperandElements("div", []Operand{dividend, divisor}); err != nil {
		return nil, err
	}
	if vo, ok := divisor.(valueOperand); ok && isZero(vo.v) {
		return nil, zterr.New(zterr.KindCondition, "divisor must be non-zero for div operation")
	}
	return newListCondition(OpDiv, []Operand{dividend, divisor}), nil
}

// Mod renders MOD(numerator, denominator). denominator must be a positive
// literal when known at construction time (a FieldRef/Condition denominator
// can't be checked until query time and is accepted here).
func Mod(numerator, denominator Operand) (*Condition, error) {
	if err := validateOperandElements("mod", []Operand{numerator, denominator}); err != nil {
		return nil, err
	}
	if vo, ok := denominator.(valueOperand); ok {
		if !isPositive(vo.v) {
			return nil, zterr.New(zterr.KindCondition, "denominator must be greater than zero for mod operation")
		}
	}
	return newListCondition(OpMod, []Operand{numerator, denominator}), nil
}

func comparison(op OpCode, name string, operands ...Operand) (*Condition, error) {
	if err := validateMinLen(name, operands, 2); err != nil {
		return nil, err
	}
	if err := validateOperandElements(name, operands); err != nil {
		return nil, err
	}
	return newListCondition(op, operands), nil
}

// Gt renders GT(operands...); len(operands) must be >= 2.
func Gt(operands ...Operand) (*Condition, error) { return comparison(OpGT, "gt", operands...) }

// Gte renders GTE(operands...).
func Gte(operands ...Operand) (*Condition, error) { return comparison(OpGTE, "gte", operands...) }

// Lt renders LT(operands...).
func Lt(operands ...Operand) (*Condition, error) { return comparison(OpLT, "lt", operands...) }

// Lte renders LTE(operands...).
func Lte(operands ...Operand) (*Condition, error) { return comparison(OpLTE, "lte", operands...) }

func stringMatch(op OpCode, name string, field FieldRef, value string) (*Condition, error) {
	if err := validateNonEmptyFieldRef(name, field); err != nil {
		return nil, err
	}
	if err := validateNonEmptyStringResult(name, value); err != nil {
		return nil, err
	}
	return newSingleCondition(op, field, value, true), nil
}

// Contains renders CONTAINS(field, value); value must be a non-empty string.
func Contains(field FieldRef, value string) (*Condition, error) {
	return stringMatch(OpContains, "contains", field, value)
}

// IContains renders case-insensitive CONTAINS.
func IContains(field FieldRef, value string) (*Condition, error) {
	return stringMatch(OpIContains, "icontains", field, value)
}

// StartsWith renders STARTSWITH(field, value).
func StartsWith(field FieldRef, value string) (*Condition, error) {
	return stringMatch(OpStartsWith, "startswith", field, value)
}

// IStartsWith renders case-insensitive STARTSWITH.
func IStartsWith(field FieldRef, value string) (*Condition, error) {
	return stringMatch(OpIStartsWith, "istartswith", field, value)
}

// EndsWith renders ENDSWITH(field, value).
func EndsWith(field FieldRef, value string) (*Condition, error) {
	return stringMatch(OpEndsWith, "endswith", field, value)
}

// IEndsWith renders case-insensitive ENDSWITH.
func IEndsWith(field FieldRef, value string) (*Condition, error) {
	return stringMatch(OpIEndsWith, "iendswith", field, value)
}

// In renders IN(field, values). field must be non-empty; values must be a
// non-empty slice.
func In(field FieldRef, values []Value) (*Condition, error) {
	if err := validateNonEmptyFieldRef("in", field); err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, zterr.New(zterr.KindCondition, "values must be a non-empty list for in operation")
	}
	return newSingleCondition(OpIn, field, append([]Value(nil), values...), true), nil
}

func isZero(v any) bool {
	switch n := v.(type) {
	case int:
		return n == 0
	case int64:
		return n == 0
	case float64:
		return n == 0
	default:
		return false
	}
}

func isPositive(v any) bool {
	switch n := v.(type) {
	case int:
		return n > 0
	case int64:
		return n > 0
	case float64:
		return n > 0
	default:
		return true
	}
}
