package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/shop/tools/e2e/internal/client"
	"github.com/example/shop/tools/e2e/internal/workflow"
)

func parse(t *testing.T, raw string) *client.Node {
	t.Helper()
	node, err := client.ParseJSON([]byte(raw))
	require.NoError(t, err)
	return node
}

func TestStringEqual(t *testing.T) {
	node := parse(t, `{"orderDesc": "expedited", "cart": {"cartId": 42}}`)

	assert.NoError(t, StringEqual("verify-order", "orderDesc", "expedited", node))
	assert.NoError(t, StringEqual("verify-order", "cart.cartId", "42", node),
		"numeric identifiers compare against their string form")

	err := StringEqual("verify-order", "orderDesc", "standard", node)
	var assertErr *workflow.AssertionError
	require.ErrorAs(t, err, &assertErr)
	assert.Equal(t, "verify-order", assertErr.Step)
	assert.Equal(t, "orderDesc", assertErr.Field)
	assert.Equal(t, "standard", assertErr.Want)
	assert.Equal(t, "expedited", assertErr.Got)
}

func TestIntEqual(t *testing.T) {
	node := parse(t, `{"quantity": 5}`)

	assert.NoError(t, IntEqual("confirm-quantity", "quantity", 5, node))
	assert.Error(t, IntEqual("confirm-quantity", "quantity", 3, node))
	assert.Error(t, IntEqual("confirm-quantity", "missing", 5, node))
}

func TestIntNotEqual(t *testing.T) {
	node := parse(t, `{"quantity": 3}`)

	assert.NoError(t, IntNotEqual("confirm-decrement", "quantity", 5, node))

	err := IntNotEqual("confirm-decrement", "quantity", 3, node)
	var assertErr *workflow.AssertionError
	require.ErrorAs(t, err, &assertErr)
	assert.Equal(t, 3, assertErr.Got)
}

func TestDecimalEqual(t *testing.T) {
	node := parse(t, `{"orderFee": 34.990, "altFee": "34.99"}`)

	assert.NoError(t, DecimalEqual("verify-order", "orderFee", 34.99, node),
		"trailing zeros must not break monetary equality")
	assert.NoError(t, DecimalEqual("verify-order", "altFee", 34.99, node),
		"string-encoded amounts compare by value")
	assert.Error(t, DecimalEqual("verify-order", "orderFee", 34.98, node))
	assert.Error(t, DecimalEqual("verify-order", "missing", 34.99, node))
}

func TestContainsExactlyOne(t *testing.T) {
	history := parse(t, `[
		{"orderId": 11, "orderDesc": "first"},
		{"orderId": 12, "orderDesc": "second"},
		{"orderId": 13, "orderDesc": "third"}
	]`)

	assert.NoError(t, ContainsExactlyOne("order-history", history, "orderId", "12"))

	err := ContainsExactlyOne("order-history", history, "orderId", "99")
	var assertErr *workflow.AssertionError
	require.ErrorAs(t, err, &assertErr)
	assert.Equal(t, 0, assertErr.Got)

	dupes := parse(t, `[{"orderId": 12}, {"orderId": 12}]`)
	err = ContainsExactlyOne("order-history", dupes, "orderId", "12")
	require.ErrorAs(t, err, &assertErr)
	assert.Equal(t, 2, assertErr.Got)

	notList := parse(t, `{"orderId": 12}`)
	assert.Error(t, ContainsExactlyOne("order-history", notList, "orderId", "12"))
}
