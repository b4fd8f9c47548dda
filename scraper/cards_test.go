package scraper

import (
	"context"
	"fmt"
	"testing"
	"time"
)

// scriptedCardSource renders cards incrementally: each LoadMore reveals
// step more cards until max is reached, mirroring scroll-triggered loading.
type scriptedCardSource struct {
	rendered  int
	max       int
	step      int
	loadCalls int
}

func (s *scriptedCardSource) Count() (int, error) { return s.rendered, nil }

func (s *scriptedCardSource) Token(i int) (string, error) {
	return fmt.Sprintf("card-%d", i), nil
}

func (s *scriptedCardSource) HTML(i int) (string, error) {
	return fmt.Sprintf("<div id='card-%d'>£%d.99 a month 100Mbps</div>", i, 20+i), nil
}

func (s *scriptedCardSource) LoadMore() error {
	s.loadCalls++
	if s.rendered < s.max {
		s.rendered += s.step
		if s.rendered > s.max {
			s.rendered = s.max
		}
	}
	return nil
}

func TestEnumerateTerminatesWithExactCount(t *testing.T) {
	src := &scriptedCardSource{rendered: 2, max: 7, step: 2}
	e := &Enumerator{Source: src, StableCycles: 2, Interval: time.Millisecond}

	done := make(chan struct{})
	var cards []string
	var err error
	go func() {
		cards, err = e.Enumerate(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("enumeration did not terminate")
	}

	if err != nil {
		t.Fatalf("Enumerate returned error: %v", err)
	}
	if len(cards) != src.max {
		t.Errorf("enumerated %d cards; want %d", len(cards), src.max)
	}
}

func TestEnumerateNoProgressCycleBudget(t *testing.T) {
	src := &scriptedCardSource{rendered: 3, max: 3, step: 1}
	e := &Enumerator{Source: src, StableCycles: 2, Interval: time.Millisecond}

	cards, err := e.Enumerate(context.Background())
	if err != nil {
		t.Fatalf("Enumerate returned error: %v", err)
	}
	if len(cards) != src.max {
		t.Fatalf("enumerated %d cards; want %d", len(cards), src.max)
	}

	// One nudge per parsed card, plus one per no-progress cycle short of the
	// stable-cycle budget.
	want := src.max + e.StableCycles - 1
	if src.loadCalls != want {
		t.Errorf("loadCalls = %d; want %d", src.loadCalls, want)
	}
}

// duplicatingCardSource reports the same first card twice across a reflow,
// the way re-rendered lists double-count without token dedup.
type duplicatingCardSource struct {
	tokens []string
}

func (s *duplicatingCardSource) Count() (int, error)         { return len(s.tokens), nil }
func (s *duplicatingCardSource) Token(i int) (string, error) { return s.tokens[i], nil }
func (s *duplicatingCardSource) HTML(i int) (string, error) {
	return "<div>" + s.tokens[i] + "</div>", nil
}
func (s *duplicatingCardSource) LoadMore() error { return nil }

func TestEnumerateDedupsByToken(t *testing.T) {
	src := &duplicatingCardSource{tokens: []string{"a", "b", "a", "c", "b"}}
	e := &Enumerator{Source: src, StableCycles: 1, Interval: time.Millisecond}

	cards, err := e.Enumerate(context.Background())
	if err != nil {
		t.Fatalf("Enumerate returned error: %v", err)
	}
	if len(cards) != 3 {
		t.Errorf("got %d cards after dedup; want 3", len(cards))
	}
}

func TestEnumerateHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &scriptedCardSource{rendered: 0, max: 100, step: 1}
	e := &Enumerator{Source: src, StableCycles: 50, Interval: 10 * time.Millisecond}

	_, err := e.Enumerate(ctx)
	if err == nil {
		t.Error("expected cancellation error")
	}
}

func TestCardDocumentSelectText(t *testing.T) {
	html := `<div class="card"><h3 class="name">Fibre 1</h3><span class="price">£29.99</span></div>`
	doc, err := CardDocument(html)
	if err != nil {
		t.Fatalf("CardDocument: %v", err)
	}

	if got := SelectText(doc, ".name"); got != "Fibre 1" {
		t.Errorf("SelectText(.name) = %q; want %q", got, "Fibre 1")
	}
	if got := SelectText(doc, ".missing"); got != "" {
		t.Errorf("SelectText(.missing) = %q; want empty", got)
	}
	if got := SelectText(doc, ""); got != "" {
		t.Errorf("SelectText with empty selector = %q; want empty", got)
	}
}
