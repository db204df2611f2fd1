// Package fixture builds the request payloads sent to the shopping-flow
// collaborators. Builders are pure: they take primitive parameters plus a
// run-scoped uniqueness suffix and return plain maps shaped exactly as the
// downstream JSON contracts expect (flat fields at the top level, credential
// and category/cart nested one level). No network calls, no shared state.
package fixture

import (
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
)

// Documented defaults for optional fields.
const (
	// DefaultUserImageURL is used when a user payload omits the image URL.
	DefaultUserImageURL = "https://example.com/default.jpg"

	// DefaultProductImageURL is used when a product payload omits the image URL.
	DefaultProductImageURL = "https://example.com/product.jpg"

	// DefaultCategoryID is the pre-existing catalog category products attach to.
	DefaultCategoryID = 1

	// DefaultRole is the authority granted to generated credentials.
	DefaultRole = "ROLE_USER"
)

// RunID generates a run-scoped uniqueness suffix: the first 8 hex characters
// of a random UUID. Every scenario gets its own suffix so generated emails,
// usernames and SKUs never collide with other runs' data.
func RunID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// UserParams are the primitive inputs for a user registration payload.
type UserParams struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Username  string
	Password  string
	ImageURL  string // optional, falls back to DefaultUserImageURL
}

// User builds a user registration payload with the nested owned credential
// sub-object the identity service expects.
func User(p UserParams) map[string]any {
	imageURL := p.ImageURL
	if imageURL == "" {
		imageURL = DefaultUserImageURL
	}

	return map[string]any{
		"firstName": p.FirstName,
		"lastName":  p.LastName,
		"email":     p.Email,
		"phone":     p.Phone,
		"imageUrl":  imageURL,
		"credential": map[string]any{
			"username":                p.Username,
			"password":                p.Password,
			"roleBasedAuthority":      DefaultRole,
			"isEnabled":               true,
			"isAccountNonExpired":     true,
			"isAccountNonLocked":      true,
			"isCredentialsNonExpired": true,
		},
	}
}

// ProductParams are the primitive inputs for a catalog item payload.
type ProductParams struct {
	Title      string
	SKU        string
	PriceUnit  float64
	Quantity   int
	ImageURL   string // optional, falls back to DefaultProductImageURL
	CategoryID int    // optional, falls back to DefaultCategoryID
}

// Product builds a catalog item payload. The nested category is a reference
// by identifier, not an owned copy: the category is assumed to pre-exist.
func Product(p ProductParams) map[string]any {
	imageURL := p.ImageURL
	if imageURL == "" {
		imageURL = DefaultProductImageURL
	}
	categoryID := p.CategoryID
	if categoryID == 0 {
		categoryID = DefaultCategoryID
	}

	return map[string]any{
		"productTitle": p.Title,
		"imageUrl":     imageURL,
		"sku":          p.SKU,
		"priceUnit":    p.PriceUnit,
		"quantity":     p.Quantity,
		"category": map[string]any{
			"categoryId": categoryID,
		},
	}
}

// ProductRecord builds the full-record replace payload for a product update.
// The collaborator contract is replace-semantics: the entire resource goes on
// the wire, not a partial patch.
func ProductRecord(productID string, p ProductParams) map[string]any {
	record := Product(p)
	record["productId"] = productID
	return record
}

// Cart builds a cart creation payload owned by the given user.
func Cart(userID string) map[string]any {
	return map[string]any{
		"userId": userID,
	}
}

// OrderParams are the primitive inputs for an order payload.
type OrderParams struct {
	Desc   string
	Fee    float64
	CartID string
	Date   string // optional, falls back to OrderDate(time.Now())
}

// Order builds an order creation payload. The cart is embedded by reference
// (id-only); read responses return it embedded by value.
func Order(p OrderParams) map[string]any {
	date := p.Date
	if date == "" {
		date = OrderDate(time.Now())
	}

	return map[string]any{
		"orderDate": date,
		"orderDesc": p.Desc,
		"orderFee":  p.Fee,
		"cart": map[string]any{
			"cartId": p.CartID,
		},
	}
}

// OrderRecord builds the full-record replace payload for an order update.
func OrderRecord(orderID string, p OrderParams) map[string]any {
	record := Order(p)
	record["orderId"] = orderID
	return record
}

// OrderDate formats a timestamp in the fixed pattern the order service
// expects: dd-MM-yyyy__HH:mm:ss:SSSSSS. The microsecond block is joined with
// a colon, which Go's reference layout cannot express, so it is appended
// manually.
func OrderDate(t time.Time) string {
	return fmt.Sprintf("%s:%06d", t.Format("02-01-2006__15:04:05"), t.Nanosecond()/1000)
}

// Builder produces the run-scoped payloads for one scenario. Fields that are
// asserted downstream (email, title, SKU) derive deterministically from the
// run suffix; incidental fields come from a faker seeded with the same suffix
// so a run's data is reproducible from its RunID.
type Builder struct {
	runID string
	faker *gofakeit.Faker
}

// NewBuilder creates a payload builder scoped to the given run suffix.
func NewBuilder(runID string) *Builder {
	h := fnv.New64a()
	h.Write([]byte(runID))

	return &Builder{
		runID: runID,
		faker: gofakeit.New(h.Sum64()),
	}
}

// RunID returns the builder's uniqueness suffix.
func (b *Builder) RunID() string {
	return b.runID
}

// ShopperUser builds the canonical shopper registration payload for this run.
func (b *Builder) ShopperUser() map[string]any {
	return User(UserParams{
		FirstName: "Shopper" + b.runID,
		LastName:  "Customer",
		Email:     "shopper" + b.runID + "@example.com",
		Phone:     "+1555" + b.runID[:7],
		Username:  "shopper" + b.runID,
		Password:  b.Password(),
		ImageURL:  "https://example.com/shopper.jpg",
	})
}

// CatalogProduct builds this run's catalog item payload.
func (b *Builder) CatalogProduct(quantity int, priceUnit float64) map[string]any {
	return Product(ProductParams{
		Title:     "E2ETestProduct" + b.runID,
		SKU:       "E2E" + b.runID,
		PriceUnit: priceUnit,
		Quantity:  quantity,
	})
}

// LimitedProduct builds a low-stock catalog item payload for inventory tests.
func (b *Builder) LimitedProduct(quantity int, priceUnit float64) map[string]any {
	return Product(ProductParams{
		Title:     "LimitedProduct" + b.runID,
		SKU:       "LIMITED" + b.runID,
		PriceUnit: priceUnit,
		Quantity:  quantity,
		ImageURL:  "https://example.com/limited.jpg",
	})
}

// Password generates a credential password for this run.
func (b *Builder) Password() string {
	return b.faker.Password(true, true, true, true, false, 14)
}
