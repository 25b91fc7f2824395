package scraper

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nestlist/wishlist-scraper/models"
)

const sampleLimit = 5

// Diagnose fetches a wishlist and reports raw match counts for every known
// selector plus small samples of extracted text. Operator-facing: the
// numbers show which strategies still bite when upstream markup drifts.
func (s *Scraper) Diagnose(ctx context.Context, wishlistURL string) (*models.DiagnosticsReport, error) {
	wishlistID, err := ExtractWishlistID(wishlistURL)
	if err != nil {
		return nil, err
	}

	candidates := CandidateURLs(s.cfg.UpstreamOrigin, wishlistID)
	body, chosen, _, err := s.fetcher.Fetch(ctx, candidates)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	counts := make(map[string]int, len(structuralSelectors)+3)
	for _, selector := range structuralSelectors {
		counts[selector] = doc.Find(selector).Length()
	}
	counts["all_divs"] = doc.Find("div").Length()
	counts["all_links"] = doc.Find("a").Length()
	counts["all_images"] = doc.Find("img").Length()

	return &models.DiagnosticsReport{
		URL:           chosen,
		HTMLSize:      len(body),
		Title:         strings.TrimSpace(doc.Find("title").Text()),
		ElementCounts: counts,
		SampleSelectors: models.DiagnosticsSamples{
			H3Texts:   sampleTexts(doc, "h3"),
			LinkHrefs: sampleAttrs(doc, "a[href*=\"/dp/\"]", "href"),
			Prices:    sampleTexts(doc, ".a-price"),
		},
	}, nil
}

func sampleTexts(doc *goquery.Document, selector string) []string {
	var samples []string
	doc.Find(selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		samples = append(samples, strings.TrimSpace(sel.Text()))
		return len(samples) < sampleLimit
	})
	return samples
}

func sampleAttrs(doc *goquery.Document, selector, attr string) []string {
	var samples []string
	doc.Find(selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if value, ok := sel.Attr(attr); ok {
			samples = append(samples, value)
		}
		return len(samples) < sampleLimit
	})
	return samples
}
