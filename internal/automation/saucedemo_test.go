// File: internal/automation/saucedemo_test.go
package automation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/igor20192/HumanFlow/internal/results"
)

type fixture struct {
	page    *fakePage
	sim     *fakeBehavior
	sink    *recordingSink
	summary *results.RunSummary
	auto    *SauceDemo
}

func newFixture(t *testing.T, mutate func(*SauceDemoParams)) *fixture {
	t.Helper()
	f := &fixture{
		page:    newFakePage(),
		sim:     newFakeBehavior(),
		sink:    &recordingSink{},
		summary: results.New("test-run"),
	}
	params := SauceDemoParams{
		Page:     f.page,
		Behavior: f.sim,
		Sink:     f.sink,
		Logger:   zap.NewNop(),
		Summary:  f.summary,
		BaseURL:  "https://www.saucedemo.com",
		Choose:   func(n int) int { return 0 },
	}
	if mutate != nil {
		mutate(&params)
	}
	auto, err := NewSauceDemo(params)
	require.NoError(t, err)
	f.auto = auto
	return f
}

func intPtr(n int) *int { return &n }

func TestNewSauceDemoRequiresCollaborators(t *testing.T) {
	_, err := NewSauceDemo(SauceDemoParams{})
	require.Error(t, err)

	_, err = NewSauceDemo(SauceDemoParams{
		Page:     newFakePage(),
		Behavior: newFakeBehavior(),
		Sink:     &recordingSink{},
		Logger:   zap.NewNop(),
		Summary:  results.New("r"),
	})
	require.Error(t, err, "base URL is required")
}

func TestLoginMissingCredentials(t *testing.T) {
	f := newFixture(t, nil)

	for _, creds := range []*Credentials{
		nil,
		{},
		{Username: "standard_user"},
		{Password: "secret_sauce"},
	} {
		err := f.auto.Login(context.Background(), creds)
		require.ErrorIs(t, err, ErrMissingCredentials)
		assert.False(t, Retryable(err))
	}
	assert.Empty(t, f.sim.typed, "no typing may happen without credentials")
	assert.Equal(t, results.OutcomePending, f.summary.Login)
}

func TestLoginSuccess(t *testing.T) {
	f := newFixture(t, nil)

	err := f.auto.Login(context.Background(), &Credentials{Username: "standard_user", Password: "secret_sauce"})
	require.NoError(t, err)

	require.Len(t, f.sim.typed, 2)
	assert.Equal(t, typedEntry{Selector: "#user-name", Text: "standard_user"}, f.sim.typed[0])
	assert.Equal(t, typedEntry{Selector: "#password", Text: "secret_sauce"}, f.sim.typed[1])

	// The pointer drifts away from the form before the submit click.
	require.Len(t, f.sim.moves, 1)
	assert.Equal(t, point{X: 500, Y: 600}, f.sim.moves[0])
	assert.Equal(t, []string{"#login-button"}, f.sim.clicks)

	assert.Equal(t, results.OutcomeSuccess, f.summary.Login)
	assert.Empty(t, f.summary.LoginNote)
	assert.True(t, f.sink.has("after_login"))
}

func TestLoginFailureRecordsClassifiedNote(t *testing.T) {
	f := newFixture(t, nil)
	f.sim.clickFn = func(selector string, _ int) error {
		if selector == "#login-button" {
			return &TransientError{Op: "click", Err: errors.New("net::ERR_TIMED_OUT")}
		}
		return nil
	}

	err := f.auto.Login(context.Background(), &Credentials{Username: "standard_user", Password: "secret_sauce"})
	require.Error(t, err)
	assert.Equal(t, results.OutcomeFailed, f.summary.Login)
	assert.Contains(t, f.summary.LoginNote, "network error:")
	assert.True(t, Retryable(err))
}

func TestResolveInteractionCount(t *testing.T) {
	cases := []struct {
		name      string
		requested *int
		choose    func(int) int
		available int
		want      int
	}{
		{"unset picks random in limit", nil, func(n int) int { return n - 1 }, 6, 3},
		{"unset with single product", nil, func(n int) int { return n - 1 }, 1, 1},
		{"in range passes through", intPtr(2), nil, 5, 2},
		{"above available clamps", intPtr(9), nil, 5, 3},
		{"zero clamps", intPtr(0), nil, 5, 3},
		{"clamp bounded by availability", intPtr(9), nil, 2, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, func(p *SauceDemoParams) {
				p.NumProducts = tc.requested
				if tc.choose != nil {
					p.Choose = tc.choose
				}
			})
			assert.Equal(t, tc.want, f.auto.resolveInteractionCount(tc.available))
		})
	}
}

func TestInteractWithProductsEmptyInventory(t *testing.T) {
	f := newFixture(t, nil)
	f.page.setCount(".inventory_item", 0)

	require.NoError(t, f.auto.interactWithProducts(context.Background()))
	assert.Equal(t, results.OutcomeSkipped, f.summary.Products)
	assert.Empty(t, f.sim.clicks)
}

func TestInteractWithProductsAllSucceed(t *testing.T) {
	f := newFixture(t, func(p *SauceDemoParams) { p.NumProducts = intPtr(2) })
	f.page.setCount(".inventory_item", 5)
	f.page.texts[".inventory_item:nth-child(1) .inventory_item_name"] = "Sauce Labs Backpack"

	require.NoError(t, f.auto.interactWithProducts(context.Background()))

	assert.Equal(t, results.OutcomeSuccess, f.summary.Products)
	assert.Equal(t, 2, f.summary.ProductsPlanned)
	assert.Equal(t, 2, f.summary.ProductsCompleted)
	assert.Equal(t, "2 of 2", f.summary.ProductsLabel())
	assert.Equal(t, 2, f.sim.clickCount(".inventory_item:nth-child(1) .inventory_item_name"))
	assert.Equal(t, 2, f.sim.clickCount(".btn_inventory"))
	assert.Equal(t, 2, f.page.backs)
}

func TestInteractWithProductsPartialCompletion(t *testing.T) {
	f := newFixture(t, func(p *SauceDemoParams) { p.NumProducts = intPtr(3) })
	f.page.setCount(".inventory_item", 5)

	nameSel := ".inventory_item:nth-child(1) .inventory_item_name"
	f.sim.clickFn = func(selector string, occurrence int) error {
		if selector == nameSel && occurrence == 2 {
			return &TransientError{Op: "click", Err: errors.New("net::ERR_CONNECTION_RESET")}
		}
		return nil
	}

	// A mid-sequence failure never aborts the loop.
	require.NoError(t, f.auto.interactWithProducts(context.Background()))

	assert.Equal(t, results.OutcomePartial, f.summary.Products)
	assert.Equal(t, "2 of 3", f.summary.ProductsLabel())
	// All three iterations were attempted.
	assert.Equal(t, 3, f.sim.clickSeen[nameSel])
	// The network-classified failure produced a diagnostic capture.
	assert.True(t, f.sink.has("network_error_2"))
}

func TestInteractWithProductsAllFail(t *testing.T) {
	f := newFixture(t, func(p *SauceDemoParams) { p.NumProducts = intPtr(2) })
	f.page.setCount(".inventory_item", 4)
	f.sim.clickFn = func(selector string, _ int) error {
		if selector == ".inventory_item:nth-child(1) .inventory_item_name" {
			return errors.New("boom")
		}
		return nil
	}

	require.NoError(t, f.auto.interactWithProducts(context.Background()))
	assert.Equal(t, results.OutcomeFailed, f.summary.Products)
	assert.Equal(t, 0, f.summary.ProductsCompleted)
}

func TestInteractWithProductReNavigatesOffInventory(t *testing.T) {
	f := newFixture(t, nil)
	f.page.setCount(".inventory_item", 3)
	f.page.location = "https://www.saucedemo.com/cart.html"

	require.NoError(t, f.auto.interactWithProduct(context.Background(), 1))
	require.NotEmpty(t, f.page.navigations)
	assert.Equal(t, "https://www.saucedemo.com/inventory.html", f.page.navigations[0])
}

func TestCheckAndReloginNoOpWhenAuthenticated(t *testing.T) {
	f := newFixture(t, nil)
	f.page.setCount("#user-name", 0)

	relogged, err := f.auto.checkAndRelogin(context.Background())
	require.NoError(t, err)
	assert.False(t, relogged)
	assert.Empty(t, f.sim.clicks)
	assert.Empty(t, f.sink.steps)
}

func TestCheckAndReloginReauthenticatesOncePerLogout(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.auto.Login(context.Background(), &Credentials{Username: "standard_user", Password: "secret_sauce"}))

	// An external logout surfaces the login form again.
	f.page.setCount("#user-name", 1)

	relogged, err := f.auto.checkAndRelogin(context.Background())
	require.NoError(t, err)
	assert.True(t, relogged)
	assert.True(t, f.sink.has("relogin_attempt"))
	assert.Equal(t, 2, f.sim.clickCount("#login-button"))
	assert.Contains(t, f.page.navigations, "https://www.saucedemo.com/inventory.html")

	// Once the form is gone the guard is a no-op again.
	f.page.setCount("#user-name", 0)
	relogged, err = f.auto.checkAndRelogin(context.Background())
	require.NoError(t, err)
	assert.False(t, relogged)
	assert.Equal(t, 2, f.sim.clickCount("#login-button"))
}

func TestVisitCartNetworkFailureMarksRemovalFailed(t *testing.T) {
	f := newFixture(t, nil)
	f.sim.clickFn = func(selector string, _ int) error {
		if selector == ".shopping_cart_link" {
			return &TransientError{Op: "click", Err: errors.New("net::ERR_NAME_NOT_RESOLVED")}
		}
		return nil
	}

	err := f.auto.visitCart(context.Background())
	require.Error(t, err)
	assert.Equal(t, results.OutcomeFailed, f.summary.CartRemoval)
	assert.Contains(t, f.summary.CartNote, "network error:")
}

func TestVisitCartCapturesCheckpoint(t *testing.T) {
	f := newFixture(t, nil)

	require.NoError(t, f.auto.visitCart(context.Background()))
	assert.Equal(t, 1, f.sim.clickCount(".shopping_cart_link"))
	assert.True(t, f.sink.has("cart_view"))
}

func TestRemoveCartItem(t *testing.T) {
	f := newFixture(t, func(p *SauceDemoParams) {
		p.Choose = func(n int) int { return 1 }
	})
	f.page.setCount(".cart_item", 2)

	require.NoError(t, f.auto.removeCartItem(context.Background()))

	// Index 1 maps to the fourth child: two label rows precede the items.
	assert.Equal(t, 1, f.sim.clickCount(".cart_item:nth-child(4) .btn_secondary"))
	assert.Equal(t, results.OutcomeSuccess, f.summary.CartRemoval)
}

func TestRemoveCartItemEmptyCart(t *testing.T) {
	f := newFixture(t, nil)
	f.page.setCount(".cart_item", 0)

	require.NoError(t, f.auto.removeCartItem(context.Background()))
	assert.Equal(t, results.OutcomeSkipped, f.summary.CartRemoval)
	assert.Empty(t, f.sim.clicks)
}

func TestLogout(t *testing.T) {
	f := newFixture(t, nil)

	require.NoError(t, f.auto.logout(context.Background()))
	assert.Equal(t, 1, f.sim.clickCount("#react-burger-menu-btn"))
	assert.Equal(t, 1, f.sim.clickCount("#logout_sidebar_link"))
	assert.Equal(t, results.OutcomeSuccess, f.summary.Logout)
	assert.True(t, f.sink.has("after_logout"))
}

func TestPerformActionsFullSequence(t *testing.T) {
	f := newFixture(t, nil)
	f.page.setCount(".inventory_item", 6)
	f.page.setCount(".cart_item", 1)

	require.NoError(t, f.auto.Setup(context.Background()))
	require.NoError(t, f.auto.Login(context.Background(), &Credentials{Username: "standard_user", Password: "secret_sauce"}))
	require.NoError(t, f.auto.PerformActions(context.Background()))

	// With an unset product count the engine plans between 1 and 3.
	assert.GreaterOrEqual(t, f.summary.ProductsPlanned, 1)
	assert.LessOrEqual(t, f.summary.ProductsPlanned, 3)
	assert.Equal(t, results.OutcomeSuccess, f.summary.Login)
	assert.Equal(t, results.OutcomeSuccess, f.summary.Products)
	assert.Equal(t, results.OutcomeSuccess, f.summary.CartRemoval)
	assert.Equal(t, results.OutcomeSuccess, f.summary.Logout)

	assert.Equal(t, 1, f.sim.scrolls)
	assert.Equal(t, 1, f.sim.clickCount(".shopping_cart_link"))
	assert.Equal(t, 1, f.sim.clickCount("#logout_sidebar_link"))
	assert.True(t, f.sink.has("cart_view"))
	assert.True(t, f.sink.has("after_logout"))
}

func TestNthAndCartOffset(t *testing.T) {
	assert.Equal(t, ".inventory_item:nth-child(3)", Nth(".inventory_item", 3))

	f := newFixture(t, nil)
	assert.Equal(t, ".cart_item:nth-child(3)", f.auto.cartItemSelector(0))
	assert.Equal(t, ".cart_item:nth-child(5)", f.auto.cartItemSelector(2))
}

func TestScreenshotPropagatesCaptureFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.page.shotErr = errors.New("target crashed")

	err := f.auto.Screenshot(context.Background(), "cart_view")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cart_view")
}
