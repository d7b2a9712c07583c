// File: internal/automation/saucedemo.go
// Description: The ordered purchase-and-exit flow against saucedemo.com:
// setup, login, product interactions, cart view, item removal, logout. Each
// phase acts through the Behavior chokepoint and is guarded against external
// logout. Phase operations are safe to restart from the top, which is what
// the retry wrapper relies on.

package automation

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/igor20192/HumanFlow/internal/results"
)

// maxRandomInteractions caps the randomly chosen product interaction count.
const maxRandomInteractions = 3

// SauceDemoParams collects the collaborators a SauceDemo automation needs.
type SauceDemoParams struct {
	Page     Page
	Behavior Behavior
	Sink     ScreenshotSink
	Logger   *zap.Logger
	Summary  *results.RunSummary
	BaseURL  string
	// NumProducts requests a fixed interaction count. Nil means the engine
	// picks a uniform-random count.
	NumProducts *int
	// Choose picks a uniform-random index in [0, n). Tests inject a
	// deterministic function; nil means a time-seeded source.
	Choose func(n int) int
}

// SauceDemo drives the storefront flow on saucedemo.com.
type SauceDemo struct {
	page        Page
	sim         Behavior
	sink        ScreenshotSink
	sel         Selectors
	logger      *zap.Logger
	summary     *results.RunSummary
	baseURL     string
	numProducts *int
	choose      func(n int) int

	// creds are kept after the first Login so the re-authentication guard can
	// recover inline from an external logout.
	creds *Credentials
}

// NewSauceDemo builds the automation. Page, Behavior, Sink, Logger and
// Summary are required.
func NewSauceDemo(p SauceDemoParams) (*SauceDemo, error) {
	if p.Page == nil || p.Behavior == nil || p.Sink == nil || p.Logger == nil || p.Summary == nil {
		return nil, errors.New("automation: missing required collaborator")
	}
	if p.BaseURL == "" {
		return nil, errors.New("automation: base URL is required")
	}
	choose := p.Choose
	if choose == nil {
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		choose = rng.Intn
	}
	return &SauceDemo{
		page:        p.Page,
		sim:         p.Behavior,
		sink:        p.Sink,
		sel:         SauceDemoSelectors(),
		logger:      p.Logger.Named("saucedemo"),
		summary:     p.Summary,
		baseURL:     strings.TrimSuffix(p.BaseURL, "/"),
		numProducts: p.NumProducts,
		choose:      choose,
	}, nil
}

// Setup opens the storefront and waits for it to settle. Failures here are
// fatal to the run.
func (a *SauceDemo) Setup(ctx context.Context) error {
	a.logger.Info("Navigating to storefront", zap.String("url", a.baseURL))
	if err := a.page.Navigate(ctx, a.baseURL); err != nil {
		return fmt.Errorf("opening %s: %w", a.baseURL, err)
	}
	return nil
}

// Login types the credentials, submits the form and waits for the inventory
// view. Missing credentials fail fast and are never retried.
func (a *SauceDemo) Login(ctx context.Context, creds *Credentials) error {
	if creds == nil || creds.Username == "" || creds.Password == "" {
		return ErrMissingCredentials
	}
	a.creds = creds

	a.logger.Info("Logging in", a.locationField(ctx), zap.String("username", creds.Username))
	if err := a.doLogin(ctx, creds); err != nil {
		a.summary.Login = results.OutcomeFailed
		a.summary.LoginNote = classify(err)
		a.logger.Error("Login failed", a.locationField(ctx), zap.Error(err))
		return err
	}

	a.summary.Login = results.OutcomeSuccess
	a.logger.Info("Login successful", a.locationField(ctx))
	a.screenshotBestEffort(ctx, "after_login")
	return nil
}

func (a *SauceDemo) doLogin(ctx context.Context, creds *Credentials) error {
	if err := a.sim.Type(ctx, a.sel.UsernameField, creds.Username); err != nil {
		return err
	}
	if err := a.sim.Type(ctx, a.sel.PasswordField, creds.Password); err != nil {
		return err
	}
	// Drift the pointer away from the form before committing.
	if err := a.sim.MoveTo(ctx, 500, 600); err != nil {
		return err
	}
	if err := a.sim.Click(ctx, a.sel.LoginButton); err != nil {
		return err
	}
	if err := a.page.WaitQuiescence(ctx); err != nil {
		return err
	}
	return a.page.WaitVisible(ctx, a.sel.InventoryList)
}

// checkAndRelogin detects an involuntary logout by probing for the login
// form. When found it re-authenticates inline and re-navigates to the
// inventory view. Returns whether a re-login happened. A no-op when the
// session is still authenticated.
func (a *SauceDemo) checkAndRelogin(ctx context.Context) (bool, error) {
	count, err := a.page.Count(ctx, a.sel.UsernameField)
	if err != nil {
		return false, fmt.Errorf("probing for login form: %w", err)
	}
	if count == 0 {
		return false, nil
	}

	a.logger.Warn("Session was logged out externally, re-authenticating", a.locationField(ctx))
	a.screenshotBestEffort(ctx, "relogin_attempt")

	if err := a.Login(ctx, a.creds); err != nil {
		return true, fmt.Errorf("re-login: %w", err)
	}
	if err := a.page.Navigate(ctx, a.inventoryURL()); err != nil {
		return true, err
	}
	if err := a.page.WaitVisible(ctx, a.sel.InventoryList); err != nil {
		return true, err
	}
	return true, nil
}

// PerformActions runs the full post-login sequence: product interactions,
// cart view, one removal decision, logout. It is restarted as a whole by the
// retry wrapper, so it re-reads all page state from scratch.
func (a *SauceDemo) PerformActions(ctx context.Context) error {
	if _, err := a.checkAndRelogin(ctx); err != nil {
		return err
	}
	if err := a.sim.Scroll(ctx); err != nil {
		return err
	}

	if err := a.interactWithProducts(ctx); err != nil {
		return err
	}
	if err := a.visitCart(ctx); err != nil {
		return err
	}
	if err := a.removeCartItem(ctx); err != nil {
		return err
	}
	return a.logout(ctx)
}

// interactWithProducts runs the browse-and-add-to-cart loop. Per-iteration
// failures are logged and swallowed so partial completion still produces
// useful work; only the surrounding phase is ever retried.
func (a *SauceDemo) interactWithProducts(ctx context.Context) error {
	if err := a.page.WaitVisible(ctx, a.sel.ProductItem); err != nil {
		return err
	}
	available, err := a.page.Count(ctx, a.sel.ProductItem)
	if err != nil {
		return err
	}
	if available == 0 {
		a.logger.Warn("No products found on inventory page")
		a.summary.Products = results.OutcomeSkipped
		return nil
	}

	planned := a.resolveInteractionCount(available)
	a.summary.ProductsPlanned = planned
	a.summary.ProductsCompleted = 0
	a.logger.Info("Interacting with products", zap.Int("count", planned), zap.Int("available", available))

	completed := 0
	for i := 1; i <= planned; i++ {
		if err := a.interactWithProduct(ctx, i); err != nil {
			if IsNetwork(err) {
				a.logger.Error("Product interaction hit a network error, continuing",
					zap.Int("iteration", i), zap.Error(err))
				a.screenshotBestEffort(ctx, fmt.Sprintf("network_error_%d", i))
			} else {
				a.logger.Error("Product interaction failed, continuing",
					zap.Int("iteration", i), zap.Error(err))
			}
			continue
		}
		completed++
		a.summary.ProductsCompleted = completed
	}

	switch {
	case completed == planned:
		a.summary.Products = results.OutcomeSuccess
	case completed > 0:
		a.summary.Products = results.OutcomePartial
	default:
		a.summary.Products = results.OutcomeFailed
	}
	a.logger.Info("Product interactions finished", zap.String("result", a.summary.ProductsLabel()))
	return nil
}

// interactWithProduct opens one uniformly chosen product, adds it to the cart
// and returns to the inventory. The product list is re-read on every call:
// locators from before a navigation are stale.
func (a *SauceDemo) interactWithProduct(ctx context.Context, iteration int) error {
	// A swallowed failure in a previous iteration may have stranded the page
	// somewhere other than the inventory view; re-verify before acting.
	if loc, err := a.page.Location(ctx); err == nil && !strings.Contains(loc, a.sel.InventoryPath) {
		a.logger.Warn("Not on inventory view, re-navigating", zap.String("location", loc))
		if err := a.page.Navigate(ctx, a.inventoryURL()); err != nil {
			return err
		}
	}
	if err := a.page.WaitVisible(ctx, a.sel.ProductItem); err != nil {
		return err
	}

	count, err := a.page.Count(ctx, a.sel.ProductItem)
	if err != nil {
		return err
	}
	if count == 0 {
		return errors.New("inventory is empty")
	}

	idx := a.choose(count)
	nameSel := Nth(a.sel.ProductItem, idx+1) + " " + a.sel.ProductName
	name := a.textOrUnknown(ctx, nameSel)

	a.logger.Info("Opening product",
		zap.Int("iteration", iteration),
		zap.String("product", name),
		a.locationField(ctx),
	)
	if err := a.sim.Click(ctx, nameSel); err != nil {
		return err
	}
	if err := a.page.WaitQuiescence(ctx); err != nil {
		return err
	}
	if err := a.sim.Delay(ctx); err != nil {
		return err
	}
	if err := a.sim.Click(ctx, a.sel.AddToCart); err != nil {
		return err
	}
	a.logger.Info("Added product to cart", zap.String("product", name))

	if err := a.page.Back(ctx); err != nil {
		return err
	}
	return a.page.WaitVisible(ctx, a.sel.ProductItem)
}

// resolveInteractionCount applies the caller-supplied product count when it
// is within [1, available], clamps out-of-range requests to
// min(maxRandomInteractions, available) with a warning, and otherwise picks a
// uniform-random count in [1, min(maxRandomInteractions, available)].
func (a *SauceDemo) resolveInteractionCount(available int) int {
	limit := maxRandomInteractions
	if available < limit {
		limit = available
	}
	if a.numProducts == nil {
		return 1 + a.choose(limit)
	}
	requested := *a.numProducts
	if requested >= 1 && requested <= available {
		return requested
	}
	a.logger.Warn("Requested product count out of range, clamping",
		zap.Int("requested", requested),
		zap.Int("available", available),
		zap.Int("clamped", limit),
	)
	return limit
}

// visitCart navigates to the cart view. Network-classified failures mark the
// removal phase failed in the summary before re-raising.
func (a *SauceDemo) visitCart(ctx context.Context) error {
	if _, err := a.checkAndRelogin(ctx); err != nil {
		return err
	}
	a.logger.Info("Navigating to cart", a.locationField(ctx))

	err := a.sim.Click(ctx, a.sel.CartLink)
	if err == nil {
		err = a.page.WaitQuiescence(ctx)
	}
	if err != nil {
		if IsNetwork(err) {
			a.summary.CartRemoval = results.OutcomeFailed
			a.summary.CartNote = classify(err)
		}
		return err
	}

	a.screenshotBestEffort(ctx, "cart_view")
	return nil
}

// removeCartItem removes one uniformly chosen item from the cart, or records
// Skipped when the cart is empty. The removal control must resolve strictly.
func (a *SauceDemo) removeCartItem(ctx context.Context) error {
	count, err := a.page.Count(ctx, a.sel.CartItem)
	if err != nil {
		return err
	}
	if count == 0 {
		a.logger.Info("Cart is empty, nothing to remove")
		a.summary.CartRemoval = results.OutcomeSkipped
		return nil
	}

	idx := a.choose(count)
	itemSel := a.cartItemSelector(idx)
	name := a.textOrUnknown(ctx, itemSel+" "+a.sel.CartItemName)

	if err := a.sim.Click(ctx, itemSel+" "+a.sel.RemoveButton); err != nil {
		return err
	}
	a.summary.CartRemoval = results.OutcomeSuccess
	a.logger.Info("Removed item from cart", zap.String("item", name))
	return nil
}

// logout opens the navigation menu and signs out.
func (a *SauceDemo) logout(ctx context.Context) error {
	if _, err := a.checkAndRelogin(ctx); err != nil {
		return err
	}
	a.logger.Info("Logging out", a.locationField(ctx))

	if err := a.sim.Click(ctx, a.sel.MenuButton); err != nil {
		return err
	}
	if err := a.sim.Delay(ctx); err != nil {
		return err
	}
	if err := a.sim.Click(ctx, a.sel.LogoutLink); err != nil {
		return err
	}
	if err := a.page.WaitQuiescence(ctx); err != nil {
		return err
	}

	a.summary.Logout = results.OutcomeSuccess
	a.logger.Info("Logged out", a.locationField(ctx))
	a.screenshotBestEffort(ctx, "after_logout")
	return nil
}

// Screenshot captures the current page under the given checkpoint name.
func (a *SauceDemo) Screenshot(ctx context.Context, step string) error {
	png, err := a.page.Screenshot(ctx)
	if err != nil {
		return fmt.Errorf("capturing %q: %w", step, err)
	}
	path, err := a.sink.Save(step, png)
	if err != nil {
		return err
	}
	a.logger.Info("Screenshot saved", zap.String("step", step), zap.String("path", path))
	return nil
}

func (a *SauceDemo) screenshotBestEffort(ctx context.Context, step string) {
	if err := a.Screenshot(ctx, step); err != nil {
		a.logger.Warn("Screenshot checkpoint failed", zap.String("step", step), zap.Error(err))
	}
}

func (a *SauceDemo) inventoryURL() string {
	return a.baseURL + a.sel.InventoryPath
}

// cartItemSelector scopes a cart item by its 0-based index among the cart
// rows. Two label rows precede the items inside the cart list, hence the
// child offset.
func (a *SauceDemo) cartItemSelector(idx int) string {
	return Nth(a.sel.CartItem, idx+3)
}

// textOrUnknown extracts the element's text, falling back to a sentinel when
// it cannot be resolved.
func (a *SauceDemo) textOrUnknown(ctx context.Context, selector string) string {
	text, err := a.page.Text(ctx, selector)
	if err != nil || strings.TrimSpace(text) == "" {
		return "unknown"
	}
	return strings.TrimSpace(text)
}

// locationField renders the current page location for logging.
func (a *SauceDemo) locationField(ctx context.Context) zap.Field {
	loc, err := a.page.Location(ctx)
	if err != nil {
		return zap.Skip()
	}
	return zap.String("location", loc)
}

// classify renders an error for the summary, distinguishing network-origin
// failures from generic ones.
func classify(err error) string {
	if IsNetwork(err) {
		return "network error: " + err.Error()
	}
	return "error: " + err.Error()
}
