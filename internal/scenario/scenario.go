// Package scenario defines the canonical shopping-flow scenarios as
// declarative workflow definitions. Each scenario is built from a
// run-scoped fixture builder so its generated identities, products and
// orders never collide with another run's data.
package scenario

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/example/shop/tools/e2e/internal/client"
	"github.com/example/shop/tools/e2e/internal/fixture"
	"github.com/example/shop/tools/e2e/internal/verify"
	"github.com/example/shop/tools/e2e/internal/workflow"
)

// ErrScenarioNotFound is returned when a named scenario is not registered.
var ErrScenarioNotFound = errors.New("scenario: not found")

// Gateway paths of the collaborators, all routed through the single entry
// point configured on the HTTP client.
const (
	usersPath    = "/user-service/api/users"
	productsPath = "/product-service/api/products"
	cartsPath    = "/order-service/api/carts"
	ordersPath   = "/order-service/api/orders"
)

// Factory builds a scenario definition from a run-scoped fixture builder.
type Factory func(fix *fixture.Builder) workflow.Definition

// FullJourney is the canonical end-to-end scenario: register a shopper,
// publish a product, build a cart, check out an order and confirm the order
// is readable and listed in the order history.
func FullJourney(fix *fixture.Builder) workflow.Definition {
	orderDesc := "E2E test order for shopping flow " + fix.RunID()
	const orderFee = 34.99
	product := fix.CatalogProduct(100, 29.99)

	return workflow.Definition{
		Name: "full-journey",
		Steps: []workflow.Step{
			{
				Name:    "register-user",
				Method:  http.MethodPost,
				Path:    usersPath,
				Body:    func(workflow.Context) any { return fix.ShopperUser() },
				Accept:  workflow.StatusCreatedOrOK,
				Extract: map[string]string{"userId": "userId"},
			},
			{
				Name:    "create-product",
				Method:  http.MethodPost,
				Path:    productsPath,
				Body:    func(workflow.Context) any { return product },
				Accept:  workflow.StatusCreatedOrOK,
				Extract: map[string]string{"productId": "productId"},
			},
			{
				Name:   "browse-product",
				Method: http.MethodGet,
				Path:   productsPath + "/{productId}",
				Check: func(resp *client.Node, _ workflow.Context) error {
					return verify.StringEqual("browse-product", "productTitle",
						product["productTitle"].(string), resp)
				},
			},
			{
				Name:    "create-cart",
				Method:  http.MethodPost,
				Path:    cartsPath,
				Body:    func(ctx workflow.Context) any { return fixture.Cart(ctx["userId"]) },
				Accept:  workflow.StatusCreatedOrOK,
				Extract: map[string]string{"cartId": "cartId"},
			},
			{
				// Existence check only; cart reads have no asserted fields.
				Name:   "read-cart",
				Method: http.MethodGet,
				Path:   cartsPath + "/{cartId}",
			},
			{
				Name:   "checkout-order",
				Method: http.MethodPost,
				Path:   ordersPath,
				Body: func(ctx workflow.Context) any {
					return fixture.Order(fixture.OrderParams{
						Desc:   orderDesc,
						Fee:    orderFee,
						CartID: ctx["cartId"],
					})
				},
				Accept:  workflow.StatusCreatedOrOK,
				Extract: map[string]string{"orderId": "orderId"},
			},
			{
				Name:   "verify-order",
				Method: http.MethodGet,
				Path:   ordersPath + "/{orderId}",
				Check: func(resp *client.Node, ctx workflow.Context) error {
					if err := verify.StringEqual("verify-order", "orderId", ctx["orderId"], resp); err != nil {
						return err
					}
					if err := verify.StringEqual("verify-order", "cart.cartId", ctx["cartId"], resp); err != nil {
						return err
					}
					if err := verify.StringEqual("verify-order", "orderDesc", orderDesc, resp); err != nil {
						return err
					}
					return verify.DecimalEqual("verify-order", "orderFee", orderFee, resp)
				},
			},
			{
				Name:   "order-history",
				Method: http.MethodGet,
				Path:   ordersPath,
				Check: func(resp *client.Node, ctx workflow.Context) error {
					return verify.ContainsExactlyOne("order-history", resp, "orderId", ctx["orderId"])
				},
			},
		},
	}
}

// Inventory exercises full-record product updates: a low-stock product has
// its quantity reduced, and the read after the update must show the new
// quantity, never the stale one.
func Inventory(fix *fixture.Builder) workflow.Definition {
	const (
		startQty   = 5
		reducedQty = 3
		priceUnit  = 99.99
	)
	product := fix.LimitedProduct(startQty, priceUnit)

	return workflow.Definition{
		Name: "inventory",
		Steps: []workflow.Step{
			{
				Name:    "create-product",
				Method:  http.MethodPost,
				Path:    productsPath,
				Body:    func(workflow.Context) any { return product },
				Accept:  workflow.StatusCreatedOrOK,
				Extract: map[string]string{"productId": "productId"},
			},
			{
				Name:   "confirm-stock",
				Method: http.MethodGet,
				Path:   productsPath + "/{productId}",
				Check: func(resp *client.Node, _ workflow.Context) error {
					return verify.IntEqual("confirm-stock", "quantity", startQty, resp)
				},
			},
			{
				// Replace semantics: the whole record goes on the wire.
				Name:   "reduce-stock",
				Method: http.MethodPut,
				Path:   productsPath,
				Body: func(ctx workflow.Context) any {
					return fixture.ProductRecord(ctx["productId"], fixture.ProductParams{
						Title:     product["productTitle"].(string),
						SKU:       product["sku"].(string),
						PriceUnit: priceUnit,
						Quantity:  reducedQty,
						ImageURL:  product["imageUrl"].(string),
					})
				},
			},
			{
				Name:   "confirm-reduced-stock",
				Method: http.MethodGet,
				Path:   productsPath + "/{productId}",
				Check: func(resp *client.Node, _ workflow.Context) error {
					if err := verify.IntEqual("confirm-reduced-stock", "quantity", reducedQty, resp); err != nil {
						return err
					}
					return verify.IntNotEqual("confirm-reduced-stock", "quantity", startQty, resp)
				},
			},
		},
	}
}

// OrderUpdate exercises full-record order updates: an order's description
// and fee are replaced, and the read after the update must show the new
// values, never the originals.
func OrderUpdate(fix *fixture.Builder) workflow.Definition {
	const (
		originalDesc = "Original order description"
		originalFee  = 50.00
		updatedDesc  = "Updated order description - expedited shipping"
		updatedFee   = 65.00
	)
	orderDate := fixture.OrderDate(time.Now())

	return workflow.Definition{
		Name: "order-update",
		Steps: []workflow.Step{
			{
				Name:    "register-user",
				Method:  http.MethodPost,
				Path:    usersPath,
				Body:    func(workflow.Context) any { return fix.ShopperUser() },
				Accept:  workflow.StatusCreatedOrOK,
				Extract: map[string]string{"userId": "userId"},
			},
			{
				Name:    "create-cart",
				Method:  http.MethodPost,
				Path:    cartsPath,
				Body:    func(ctx workflow.Context) any { return fixture.Cart(ctx["userId"]) },
				Accept:  workflow.StatusCreatedOrOK,
				Extract: map[string]string{"cartId": "cartId"},
			},
			{
				Name:   "place-order",
				Method: http.MethodPost,
				Path:   ordersPath,
				Body: func(ctx workflow.Context) any {
					return fixture.Order(fixture.OrderParams{
						Desc:   originalDesc,
						Fee:    originalFee,
						CartID: ctx["cartId"],
						Date:   orderDate,
					})
				},
				Accept:  workflow.StatusCreatedOrOK,
				Extract: map[string]string{"orderId": "orderId"},
			},
			{
				Name:   "amend-order",
				Method: http.MethodPut,
				Path:   ordersPath,
				Body: func(ctx workflow.Context) any {
					return fixture.OrderRecord(ctx["orderId"], fixture.OrderParams{
						Desc:   updatedDesc,
						Fee:    updatedFee,
						CartID: ctx["cartId"],
						Date:   orderDate,
					})
				},
			},
			{
				Name:   "confirm-amendment",
				Method: http.MethodGet,
				Path:   ordersPath + "/{orderId}",
				Check: func(resp *client.Node, _ workflow.Context) error {
					if err := verify.StringEqual("confirm-amendment", "orderDesc", updatedDesc, resp); err != nil {
						return err
					}
					return verify.DecimalEqual("confirm-amendment", "orderFee", updatedFee, resp)
				},
			},
		},
	}
}

// Registry returns the built-in scenarios keyed by name.
func Registry() map[string]Factory {
	return map[string]Factory{
		"full-journey": FullJourney,
		"inventory":    Inventory,
		"order-update": OrderUpdate,
	}
}

// Names returns the registered scenario names, sorted.
func Names() []string {
	reg := Registry()
	names := make([]string, 0, len(reg))
	for name := range reg {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup resolves a scenario factory by name.
func Lookup(name string) (Factory, error) {
	factory, ok := Registry()[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %v)", ErrScenarioNotFound, name, Names())
	}
	return factory, nil
}
