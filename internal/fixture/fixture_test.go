package fixture

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := RunID()
		assert.Len(t, id, 8)
		assert.Regexp(t, `^[0-9a-f]{8}$`, id)
		assert.False(t, seen[id], "run IDs must not repeat")
		seen[id] = true
	}
}

func TestUser_NestedCredential(t *testing.T) {
	user := User(UserParams{
		FirstName: "Shopperabcd1234",
		LastName:  "Customer",
		Email:     "shopperabcd1234@example.com",
		Phone:     "+1555abcd123",
		Username:  "shopperabcd1234",
		Password:  "ShopSecure123!",
	})

	assert.Equal(t, "shopperabcd1234@example.com", user["email"])
	assert.Equal(t, DefaultUserImageURL, user["imageUrl"], "omitted image URL falls back to default")

	credential, ok := user["credential"].(map[string]any)
	require.True(t, ok, "credential must be a nested object")
	assert.Equal(t, "shopperabcd1234", credential["username"])
	assert.Equal(t, DefaultRole, credential["roleBasedAuthority"])
	for _, flag := range []string{"isEnabled", "isAccountNonExpired", "isAccountNonLocked", "isCredentialsNonExpired"} {
		assert.Equal(t, true, credential[flag], "credential flag %s", flag)
	}
}

func TestProduct_CategoryReference(t *testing.T) {
	product := Product(ProductParams{
		Title:     "E2ETestProductabcd1234",
		SKU:       "E2Eabcd1234",
		PriceUnit: 29.99,
		Quantity:  100,
	})

	assert.Equal(t, "E2ETestProductabcd1234", product["productTitle"])
	assert.Equal(t, 29.99, product["priceUnit"])
	assert.Equal(t, 100, product["quantity"])
	assert.Equal(t, DefaultProductImageURL, product["imageUrl"])

	category, ok := product["category"].(map[string]any)
	require.True(t, ok, "category must be a nested reference")
	assert.Equal(t, DefaultCategoryID, category["categoryId"])
}

func TestProductRecord_CarriesIdentifier(t *testing.T) {
	record := ProductRecord("42", ProductParams{Title: "X", SKU: "S", Quantity: 3, PriceUnit: 99.99})
	assert.Equal(t, "42", record["productId"])
	assert.Equal(t, 3, record["quantity"])
}

func TestOrder_CartReference(t *testing.T) {
	order := Order(OrderParams{
		Desc:   "E2E test order",
		Fee:    34.99,
		CartID: "cart-1",
	})

	assert.Equal(t, 34.99, order["orderFee"])
	cart, ok := order["cart"].(map[string]any)
	require.True(t, ok, "cart must be embedded by reference")
	assert.Equal(t, "cart-1", cart["cartId"])
	assert.NotEmpty(t, order["orderDate"])
}

func TestOrderDate_Pattern(t *testing.T) {
	ts := time.Date(2025, 6, 1, 9, 30, 15, 123456000, time.UTC)
	assert.Equal(t, "01-06-2025__09:30:15:123456", OrderDate(ts))
	assert.Regexp(t, regexp.MustCompile(`^\d{2}-\d{2}-\d{4}__\d{2}:\d{2}:\d{2}:\d{6}$`), OrderDate(time.Now()))
}

func TestBuilder_RunScopedUniqueness(t *testing.T) {
	a := NewBuilder("aaaa1111")
	b := NewBuilder("bbbb2222")

	userA := a.ShopperUser()
	userB := b.ShopperUser()
	assert.Equal(t, "shopperaaaa1111@example.com", userA["email"])
	assert.NotEqual(t, userA["email"], userB["email"])

	productA := a.CatalogProduct(100, 29.99)
	productB := b.CatalogProduct(100, 29.99)
	assert.Equal(t, "E2ETestProductaaaa1111", productA["productTitle"])
	assert.NotEqual(t, productA["sku"], productB["sku"])

	limited := a.LimitedProduct(5, 99.99)
	assert.Equal(t, "LIMITEDaaaa1111", limited["sku"])
	assert.Equal(t, 5, limited["quantity"])
}

func TestBuilder_DeterministicPerRun(t *testing.T) {
	a1 := NewBuilder("aaaa1111")
	a2 := NewBuilder("aaaa1111")

	assert.Equal(t, a1.Password(), a2.Password(), "same run suffix yields the same generated data")
	assert.NotEmpty(t, a1.Password())
}
