// File: internal/automation/automation.go
// Description: Capability contracts for site automations and the collaborators
// they act through. New target sites add new implementations of SiteAutomation,
// not new inheritance levels.

package automation

import (
	"context"
)

// Credentials identify the storefront account used for a run. Supplied once
// per run and never persisted.
type Credentials struct {
	Username string
	Password string
}

// SiteAutomation is the capability contract one target site implements.
type SiteAutomation interface {
	// Setup opens the target origin and waits for it to settle. Failures here
	// are fatal to the run and are not retried.
	Setup(ctx context.Context) error
	// Login authenticates with the given credentials. Safe to re-invoke from
	// the start on retry.
	Login(ctx context.Context, creds *Credentials) error
	// PerformActions runs the full post-login action sequence. Safe to restart
	// from the beginning on retry; it re-reads page state rather than assuming
	// prior progress.
	PerformActions(ctx context.Context) error
	// Screenshot captures a named checkpoint of the current page.
	Screenshot(ctx context.Context, step string) error
}

// Page is the upstream page/document collaborator. Implementations own the
// live browser tab; the automation leases locators from it per interaction and
// re-reads them after every navigation.
type Page interface {
	// Navigate loads the URL and waits for network quiescence.
	Navigate(ctx context.Context, url string) error
	// Back navigates one history entry back and waits for quiescence.
	Back(ctx context.Context) error
	// WaitVisible waits, bounded by the configured timeout, for the selector
	// to become visible. Timeouts surface as a TransientError.
	WaitVisible(ctx context.Context, selector string) error
	// WaitQuiescence waits until no network activity is pending.
	WaitQuiescence(ctx context.Context) error
	// Count returns the number of elements currently matching the selector.
	Count(ctx context.Context, selector string) (int, error)
	// Text extracts the text of the first element matching the selector.
	Text(ctx context.Context, selector string) (string, error)
	// Location returns the current page URL.
	Location(ctx context.Context) (string, error)
	// Screenshot captures the current viewport as PNG bytes.
	Screenshot(ctx context.Context) ([]byte, error)
}

// Behavior paces and randomizes every primitive interaction so the run reads
// as a human operator. All click and type actions pass through the
// hover-resolve chokepoint internally.
type Behavior interface {
	// Delay suspends for a uniform-random duration in the action-delay range.
	Delay(ctx context.Context) error
	// Type resolves the selector strictly, focuses it, then emits the text one
	// rune at a time with a uniform-random pause between runes.
	Type(ctx context.Context, selector, text string) error
	// MoveTo moves the pointer to absolute coordinates along an interpolated
	// path, then applies Delay.
	MoveTo(ctx context.Context, x, y float64) error
	// Scroll scrolls to the end of the document and back to the origin.
	Scroll(ctx context.Context) error
	// HoverAndResolve resolves the selector to exactly one visible element and
	// hovers over it. Zero or multiple matches fail with a
	// StrictResolutionError; visibility timeouts with a TransientError.
	HoverAndResolve(ctx context.Context, selector string) error
	// Click hover-resolves the selector and then presses and releases the
	// primary button over it.
	Click(ctx context.Context, selector string) error
}
