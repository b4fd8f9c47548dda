package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"

	"broadband-compare/utils"
)

// CardSource abstracts the pool of currently-rendered product cards. The
// live implementation queries the page; tests substitute a scripted source.
type CardSource interface {
	// Count returns how many cards are rendered right now.
	Count() (int, error)
	// Token returns a stable per-card identifier for deduplication: the
	// element's id when it has one, otherwise a random token attached to
	// the element on first sight.
	Token(i int) (string, error)
	// HTML returns the outer HTML of card i.
	HTML(i int) (string, error)
	// LoadMore nudges the page (scroll) to trigger lazy loading.
	LoadMore() error
}

// Enumerator walks lazily-loaded card lists. It tracks a cursor into the
// rendered count, dedupes by token across scroll events, and terminates
// after StableCycles consecutive no-progress cycles. Rendering can lag
// scrolling, so merely reaching the end once is not termination.
type Enumerator struct {
	Source       CardSource
	StableCycles int
	Interval     time.Duration
	Logger       *utils.Logger
}

// Enumerate returns the outer HTML of every unique card, in first-seen
// order. The loop is bounded: it ends once no new cards appear for
// StableCycles cycles after the cursor catches up with the rendered count.
func (e *Enumerator) Enumerate(ctx context.Context) ([]string, error) {
	seen := utils.NewTokenSet()
	var cards []string

	index := 0
	stable := 0
	threshold := e.StableCycles
	if threshold <= 0 {
		threshold = 2
	}

	for {
		if err := ctx.Err(); err != nil {
			return cards, fmt.Errorf("card enumeration cancelled: %w", err)
		}

		total, err := e.Source.Count()
		if err != nil {
			return cards, fmt.Errorf("card enumeration: count: %w", err)
		}

		if index >= total {
			stable++
			if stable >= threshold {
				break
			}
			if err := e.Source.LoadMore(); err != nil {
				return cards, fmt.Errorf("card enumeration: load more: %w", err)
			}
			select {
			case <-time.After(e.Interval):
			case <-ctx.Done():
				return cards, fmt.Errorf("card enumeration cancelled: %w", ctx.Err())
			}
			continue
		}

		stable = 0
		i := index
		index++

		token, err := e.Source.Token(i)
		if err != nil {
			return cards, fmt.Errorf("card enumeration: token %d: %w", i, err)
		}
		if token != "" && !seen.Add(token) {
			continue
		}

		html, err := e.Source.HTML(i)
		if err != nil {
			return cards, fmt.Errorf("card enumeration: html %d: %w", i, err)
		}
		if strings.TrimSpace(html) != "" {
			cards = append(cards, html)
		}

		// Keep nudging so later cards start rendering while we parse.
		if err := e.Source.LoadMore(); err != nil {
			return cards, fmt.Errorf("card enumeration: load more: %w", err)
		}
	}

	if e.Logger != nil {
		e.Logger.Debug("Enumerated %d unique cards", len(cards))
	}
	return cards, nil
}

// domCardSource is the live CardSource over a chromedp session, matching
// cards by CSS selector.
type domCardSource struct {
	ctx      context.Context
	selector string
	timeout  time.Duration
}

// NewDOMCardSource builds a CardSource for the cards matching selector in
// the session's page.
func NewDOMCardSource(s *Session, selector string) CardSource {
	return &domCardSource{ctx: s.Ctx(), selector: selector, timeout: 3500 * time.Millisecond}
}

func (d *domCardSource) Count() (int, error) {
	var n int
	script := fmt.Sprintf(`document.querySelectorAll(%q).length`, d.selector)
	err := d.eval(script, &n)
	return n, err
}

func (d *domCardSource) Token(i int) (string, error) {
	var token string
	script := fmt.Sprintf(`(() => {
		const el = document.querySelectorAll(%q)[%d];
		if (!el) return '';
		if (el.id) return el.id.trim().toLowerCase();
		if (!el.dataset.bcUid) el.dataset.bcUid = Math.random().toString(36).slice(2);
		return el.dataset.bcUid;
	})()`, d.selector, i)
	err := d.eval(script, &token)
	return token, err
}

func (d *domCardSource) HTML(i int) (string, error) {
	var html string
	script := fmt.Sprintf(`(() => {
		const el = document.querySelectorAll(%q)[%d];
		return el ? el.outerHTML : '';
	})()`, d.selector, i)
	err := d.eval(script, &html)
	return html, err
}

func (d *domCardSource) LoadMore() error {
	return d.eval(`window.scrollBy(0, 800)`, nil)
}

func (d *domCardSource) eval(script string, res interface{}) error {
	ctx, cancel := context.WithTimeout(d.ctx, d.timeout)
	defer cancel()
	if err := chromedp.Run(ctx, chromedp.Evaluate(script, res)); err != nil {
		if d.ctx.Err() != nil {
			return fmt.Errorf("card source: session closed: %w", d.ctx.Err())
		}
		// A transient evaluate failure reads as "no cards yet".
	}
	return nil
}

// CardDocument parses a card's outer HTML into a goquery document rooted at
// the card element.
func CardDocument(html string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

// SelectText returns the trimmed text of the first match of sel in doc.
func SelectText(doc *goquery.Document, sel string) string {
	if sel == "" {
		return ""
	}
	return strings.TrimSpace(doc.Find(sel).First().Text())
}
