package scraper

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nestlist/wishlist-scraper/config"
	"github.com/nestlist/wishlist-scraper/models"
	"github.com/nestlist/wishlist-scraper/parser"
)

// structuralSelectors locate the repeating item-card elements. Order is
// policy: attribute-based markers come before generic layout classes
// because a wrong early match would silently select wrong elements.
var structuralSelectors = []string{
	"[data-itemid]",
	"[id^=\"item_\"]",
	".g-item-sortable",
	"[data-id]",
	".a-fixed-left-grid-col.a-col-right",
}

// fieldSelector reads one candidate value from an item card.
type fieldSelector struct {
	query string
	attr  string // empty means visible text, with title attr fallback
}

// Per-field cascades, first non-empty wins. Candidates are never merged.
var (
	nameSelectors = []fieldSelector{
		{query: "[data-cy=\"item-title\"]"},
		{query: "h3 a"},
		{query: ".a-size-base-plus"},
		{query: ".a-size-base"},
		{query: ".s-size-mini .a-color-base"},
		{query: "a[title]"},
	}
	priceSelectors = []fieldSelector{
		{query: "[data-cy=\"item-price\"]"},
		{query: ".a-price-whole"},
		{query: ".a-price .a-offscreen"},
		{query: ".a-price-range .a-offscreen"},
		{query: ".a-price-fractional"},
	}
	linkSelectors = []fieldSelector{
		{query: "[data-cy=\"item-title\"]", attr: "href"},
		{query: "h3 a", attr: "href"},
		{query: "a[href*=\"/dp/\"]", attr: "href"},
		{query: "a[href*=\"/gp/product/\"]", attr: "href"},
	}
	imageSelectors = []fieldSelector{
		{query: "img", attr: "src"},
		{query: "img", attr: "data-src"},
		{query: "img", attr: "data-lazy"},
		{query: ".s-image", attr: "src"},
	}
)

// paginationSelectors signal that further, unfetched pages may exist.
var paginationSelectors = []string{
	".a-pagination",
	"[data-cy=\"pagination\"]",
	"a[aria-label*=\"Next\"]",
	"button[aria-label*=\"more\"]",
	".a-button[data-action=\"a-show-more\"]",
}

// fallbackSelector is the legacy layout class used by the independent
// extraction pass when no structural strategy matches.
const fallbackSelector = ".g-item-sortable"

// Extractor turns a fetched document into normalized items.
type Extractor struct {
	cfg     *config.Config
	metrics *Metrics
}

// NewExtractor builds an extractor configured from cfg.
func NewExtractor(cfg *config.Config, metrics *Metrics) *Extractor {
	return &Extractor{cfg: cfg, metrics: metrics}
}

// Extract runs the structural cascade, per-card field cascades, the
// normalizer, and the coverage heuristic over one document body.
func (x *Extractor) Extract(body []byte) (*models.ScrapeResult, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	result := &models.ScrapeResult{}
	seen := parser.NewDedupSet()

	selector, cards := x.findCards(doc)
	if selector != "" {
		result.Selector = selector
		cards.Each(func(_ int, card *goquery.Selection) {
			item := x.extractItem(card)
			if item == nil {
				return
			}
			if seen.Admit(item) {
				result.Items = append(result.Items, item)
			}
		})
	}

	// Certain page variants respond to neither the structural selectors
	// nor the standard field cascades, but do respond to this narrower
	// legacy pass.
	if len(result.Items) == 0 {
		slog.Debug("primary pass produced no items, running fallback pass",
			slog.String("selector", selector))
		result.UsedFallback = true
		doc.Find(fallbackSelector).Each(func(_ int, card *goquery.Selection) {
			item := x.extractFallbackItem(card)
			if item == nil {
				return
			}
			if seen.Admit(item) {
				result.Items = append(result.Items, item)
			}
		})
	}

	if len(result.Items) < x.cfg.CoverageThreshold {
		result.HasMorePages = hasPaginationMarkup(doc)
		if result.HasMorePages {
			slog.Debug("pagination markup present, wishlist may have more pages",
				slog.Int("items", len(result.Items)))
		}
	}

	x.metrics.AddItems(len(result.Items))
	return result, nil
}

// findCards evaluates the structural cascade and adopts the first selector
// yielding at least one element.
func (x *Extractor) findCards(doc *goquery.Document) (string, *goquery.Selection) {
	for _, selector := range structuralSelectors {
		matches := doc.Find(selector)
		slog.Debug("structural selector evaluated",
			slog.String("selector", selector),
			slog.Int("matches", matches.Length()),
		)
		if matches.Length() > 0 {
			return selector, matches
		}
	}
	return "", nil
}

// extractItem runs the field cascades against one card. A card without a
// usable name is discarded; every other missing field degrades to its
// zero value.
func (x *Extractor) extractItem(card *goquery.Selection) *models.ScrapedItem {
	name := firstField(card, nameSelectors)
	if name == "" {
		return nil
	}

	priceText := firstField(card, priceSelectors)
	link := firstField(card, linkSelectors)
	image := firstField(card, imageSelectors)

	return &models.ScrapedItem{
		Name:     name,
		Price:    parser.ParsePrice(priceText),
		Retailer: x.cfg.Retailer,
		Link:     parser.AbsoluteURL(link, x.cfg.UpstreamOrigin),
		Image:    parser.AbsoluteURL(image, x.cfg.UpstreamOrigin),
		Category: parser.Categorize(name),
	}
}

// extractFallbackItem applies the fixed legacy field rules instead of the
// standard cascades.
func (x *Extractor) extractFallbackItem(card *goquery.Selection) *models.ScrapedItem {
	name := strings.TrimSpace(card.Find("h3").First().Text())
	if name == "" {
		name = strings.TrimSpace(card.Find(".a-size-base").First().Text())
	}
	if name == "" {
		return nil
	}

	priceText := strings.TrimSpace(card.Find(".a-price").First().Text())
	link, _ := card.Find("h3 a").First().Attr("href")
	image, _ := card.Find("img").First().Attr("src")

	return &models.ScrapedItem{
		Name:     name,
		Price:    parser.ParsePrice(priceText),
		Retailer: x.cfg.Retailer,
		Link:     parser.AbsoluteURL(link, x.cfg.UpstreamOrigin),
		Image:    parser.AbsoluteURL(image, x.cfg.UpstreamOrigin),
		Category: parser.Categorize(name),
	}
}

// firstField evaluates a cascade in order and takes the first candidate
// producing non-empty text or attribute value.
func firstField(card *goquery.Selection, cascade []fieldSelector) string {
	for _, candidate := range cascade {
		found := card.Find(candidate.query).First()
		if found.Length() == 0 {
			continue
		}
		if candidate.attr != "" {
			if value, ok := found.Attr(candidate.attr); ok && strings.TrimSpace(value) != "" {
				return strings.TrimSpace(value)
			}
			continue
		}
		if text := strings.TrimSpace(found.Text()); text != "" {
			return text
		}
		if title, ok := found.Attr("title"); ok && strings.TrimSpace(title) != "" {
			return strings.TrimSpace(title)
		}
	}
	return ""
}

func hasPaginationMarkup(doc *goquery.Document) bool {
	for _, selector := range paginationSelectors {
		if doc.Find(selector).Length() > 0 {
			return true
		}
	}
	return false
}
