// Package verify provides field-level assertions over parsed responses.
// Every helper reports violations as *workflow.AssertionError so scenario
// failures carry the step, the field and both values regardless of which
// check tripped.
package verify

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/example/shop/tools/e2e/internal/client"
	"github.com/example/shop/tools/e2e/internal/workflow"
)

// StringEqual asserts that the field at the dotted path equals want.
// Numeric and string encodings of the same identifier compare equal.
func StringEqual(step, field, want string, node *client.Node) error {
	got := node.Path(field).Str()
	if got != want {
		return &workflow.AssertionError{Step: step, Field: field, Want: want, Got: got}
	}
	return nil
}

// IntEqual asserts that the field at the dotted path equals want.
func IntEqual(step, field string, want int, node *client.Node) error {
	got, err := node.Path(field).Int()
	if err != nil {
		return &workflow.AssertionError{Step: step, Field: field, Want: want, Got: err.Error()}
	}
	if got != want {
		return &workflow.AssertionError{Step: step, Field: field, Want: want, Got: got}
	}
	return nil
}

// IntNotEqual asserts that the field at the dotted path differs from stale.
func IntNotEqual(step, field string, stale int, node *client.Node) error {
	got, err := node.Path(field).Int()
	if err != nil {
		return &workflow.AssertionError{Step: step, Field: field, Want: "readable integer", Got: err.Error()}
	}
	if got == stale {
		return &workflow.AssertionError{Step: step, Field: field, Want: "anything but " + strconv.Itoa(stale), Got: got}
	}
	return nil
}

// DecimalEqual asserts that the monetary field at the dotted path equals
// want. Comparison is exact decimal equality, so 34.99 matches "34.990" but
// never 34.98999.
func DecimalEqual(step, field string, want float64, node *client.Node) error {
	got, err := node.Path(field).Decimal()
	if err != nil {
		return &workflow.AssertionError{Step: step, Field: field, Want: want, Got: err.Error()}
	}
	if !decimal.NewFromFloat(want).Equal(got) {
		return &workflow.AssertionError{Step: step, Field: field, Want: want, Got: got.String()}
	}
	return nil
}

// ContainsExactlyOne asserts that exactly one element of list carries the
// wanted value at the dotted path. Zero matches means the record never landed;
// more than one means a duplicate write.
func ContainsExactlyOne(step string, list *client.Node, field, want string) error {
	items, err := list.Array()
	if err != nil {
		return &workflow.AssertionError{Step: step, Field: field, Want: "an array of records", Got: err.Error()}
	}

	count := 0
	for _, item := range items {
		if item.Path(field).Str() == want {
			count++
		}
	}
	if count != 1 {
		return &workflow.AssertionError{
			Step:  step,
			Field: field,
			Want:  "exactly one record with value " + want,
			Got:   count,
		}
	}
	return nil
}
