// File: internal/automation/mocks_test.go
package automation

import (
	"context"
	"sync"
)

// fakePage serves scripted page state. Counts and texts are keyed by selector
// and mutable mid-test to model DOM changes.
type fakePage struct {
	mu sync.Mutex

	counts   map[string]int
	texts    map[string]string
	location string

	navigations []string
	backs       int

	waitErrs map[string]error
	quietErr error
	shotErr  error
}

func newFakePage() *fakePage {
	return &fakePage{
		counts:   map[string]int{},
		texts:    map[string]string{},
		location: "https://www.saucedemo.com/inventory.html",
		waitErrs: map[string]error{},
	}
}

func (p *fakePage) setCount(selector string, n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.counts[selector] = n
}

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.navigations = append(p.navigations, url)
	return nil
}

func (p *fakePage) Back(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.backs++
	return nil
}

func (p *fakePage) WaitVisible(ctx context.Context, selector string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.waitErrs[selector]
}

func (p *fakePage) WaitQuiescence(ctx context.Context) error { return p.quietErr }

func (p *fakePage) Count(ctx context.Context, selector string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counts[selector], nil
}

func (p *fakePage) Text(ctx context.Context, selector string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.texts[selector], nil
}

func (p *fakePage) Location(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.location, nil
}

func (p *fakePage) Screenshot(ctx context.Context) ([]byte, error) {
	if p.shotErr != nil {
		return nil, p.shotErr
	}
	return []byte{0x89, 0x50, 0x4e, 0x47}, nil
}

// fakeBehavior records every paced action. clickFn, when set, decides the
// outcome of each Click; nth counts per-selector occurrences so a test can
// fail a specific iteration.
type fakeBehavior struct {
	mu sync.Mutex

	typed   []typedEntry
	clicks  []string
	hovers  []string
	moves   []point
	delays  int
	scrolls int

	clickFn   func(selector string, occurrence int) error
	typeFn    func(selector string) error
	clickSeen map[string]int
}

type typedEntry struct {
	Selector string
	Text     string
}

type point struct{ X, Y float64 }

func newFakeBehavior() *fakeBehavior {
	return &fakeBehavior{clickSeen: map[string]int{}}
}

func (b *fakeBehavior) Delay(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.delays++
	return nil
}

func (b *fakeBehavior) Type(ctx context.Context, selector, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.typeFn != nil {
		if err := b.typeFn(selector); err != nil {
			return err
		}
	}
	b.typed = append(b.typed, typedEntry{Selector: selector, Text: text})
	return nil
}

func (b *fakeBehavior) MoveTo(ctx context.Context, x, y float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.moves = append(b.moves, point{X: x, Y: y})
	return nil
}

func (b *fakeBehavior) Scroll(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.scrolls++
	return nil
}

func (b *fakeBehavior) HoverAndResolve(ctx context.Context, selector string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hovers = append(b.hovers, selector)
	return nil
}

func (b *fakeBehavior) Click(ctx context.Context, selector string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clickSeen[selector]++
	if b.clickFn != nil {
		if err := b.clickFn(selector, b.clickSeen[selector]); err != nil {
			return err
		}
	}
	b.clicks = append(b.clicks, selector)
	return nil
}

func (b *fakeBehavior) clickCount(selector string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.clicks {
		if c == selector {
			n++
		}
	}
	return n
}

// recordingSink remembers the checkpoint names it was asked to store.
type recordingSink struct {
	mu    sync.Mutex
	steps []string
}

func (s *recordingSink) Save(step string, _ []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps = append(s.steps, step)
	return step, nil
}

func (s *recordingSink) has(step string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, got := range s.steps {
		if got == step {
			return true
		}
	}
	return false
}
