package client

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Node is a schema-free view over a decoded JSON value. Response shapes vary
// per endpoint and some fields are polymorphic numeric/string, so navigation
// is by path with typed extraction at the leaf rather than a fixed schema.
//
// Navigation is nil-safe: Get on a missing key returns an absent node, and
// typed extraction on an absent node reports an error instead of panicking.
type Node struct {
	value any
	ok    bool
}

// ParseJSON decodes raw JSON into a traversable Node.
func ParseJSON(data []byte) (*Node, error) {
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, err
	}
	return &Node{value: value, ok: true}, nil
}

var absent = &Node{}

// Exists reports whether the node is present in the document.
func (n *Node) Exists() bool {
	return n != nil && n.ok
}

// Get navigates to a field of a JSON object. Missing keys and non-object
// values yield an absent node, so calls chain safely.
func (n *Node) Get(key string) *Node {
	if !n.Exists() {
		return absent
	}
	obj, ok := n.value.(map[string]any)
	if !ok {
		return absent
	}
	value, ok := obj[key]
	if !ok {
		return absent
	}
	return &Node{value: value, ok: true}
}

// Path navigates a dotted field path, e.g. "cart.cartId".
func (n *Node) Path(path string) *Node {
	current := n
	for _, key := range strings.Split(path, ".") {
		current = current.Get(key)
	}
	return current
}

// Index navigates to an element of a JSON array.
func (n *Node) Index(i int) *Node {
	if !n.Exists() {
		return absent
	}
	arr, ok := n.value.([]any)
	if !ok || i < 0 || i >= len(arr) {
		return absent
	}
	return &Node{value: arr[i], ok: true}
}

// IsArray reports whether the node holds a JSON array.
func (n *Node) IsArray() bool {
	if !n.Exists() {
		return false
	}
	_, ok := n.value.([]any)
	return ok
}

// Array returns the node's elements.
func (n *Node) Array() ([]*Node, error) {
	if !n.Exists() {
		return nil, fmt.Errorf("node is absent")
	}
	arr, ok := n.value.([]any)
	if !ok {
		return nil, fmt.Errorf("value is not an array: %T", n.value)
	}
	nodes := make([]*Node, len(arr))
	for i, v := range arr {
		nodes[i] = &Node{value: v, ok: true}
	}
	return nodes, nil
}

// Str renders the leaf as a string. Numeric and boolean leaves are formatted,
// so identifiers serialized as JSON numbers still extract cleanly. Absent
// nodes render as the empty string.
func (n *Node) Str() string {
	if !n.Exists() {
		return ""
	}
	switch v := n.value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Int extracts the leaf as an integer.
func (n *Node) Int() (int, error) {
	if !n.Exists() {
		return 0, fmt.Errorf("node is absent")
	}
	switch v := n.value.(type) {
	case float64:
		return int(v), nil
	case string:
		return strconv.Atoi(v)
	default:
		return 0, fmt.Errorf("cannot convert %T to int", n.value)
	}
}

// Decimal extracts the leaf as an exact decimal, tolerating both numeric and
// string representations. Monetary comparisons go through decimals so a fee
// submitted as 34.99 compares equal to "34.990" read back.
func (n *Node) Decimal() (decimal.Decimal, error) {
	if !n.Exists() {
		return decimal.Zero, fmt.Errorf("node is absent")
	}
	switch v := n.value.(type) {
	case float64:
		return decimal.NewFromFloat(v), nil
	case string:
		return decimal.NewFromString(v)
	default:
		return decimal.Zero, fmt.Errorf("cannot convert %T to decimal", n.value)
	}
}

// Bool extracts the leaf as a boolean.
func (n *Node) Bool() (bool, error) {
	if !n.Exists() {
		return false, fmt.Errorf("node is absent")
	}
	switch v := n.value.(type) {
	case bool:
		return v, nil
	case string:
		return strconv.ParseBool(v)
	default:
		return false, fmt.Errorf("cannot convert %T to bool", n.value)
	}
}
