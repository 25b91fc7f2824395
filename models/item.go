// Package models defines data structures for the wishlist import service.
package models

import "time"

// Category is the registry category heuristically assigned to an item.
type Category string

const (
	CategorySafety    Category = "Safety"
	CategoryTravel    Category = "Travel"
	CategoryFurniture Category = "Furniture"
	CategoryClothing  Category = "Clothing"
	CategoryFeeding   Category = "Feeding"
	CategoryBedding   Category = "Bedding"
)

// DefaultCategory is assigned when no keyword group matches an item name.
const DefaultCategory = CategorySafety

// Categories lists every valid category value.
var Categories = []Category{
	CategorySafety,
	CategoryTravel,
	CategoryFurniture,
	CategoryClothing,
	CategoryFeeding,
	CategoryBedding,
}

// Valid reports whether c is one of the known category values.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ScrapedItem is one normalized wishlist entry extracted from an upstream
// page. Link and Image are absolute URLs or empty strings, never nil
// placeholders.
type ScrapedItem struct {
	Name     string   `csv:"name" json:"name"`
	Price    float64  `csv:"price" json:"price"`
	Retailer string   `csv:"retailer" json:"retailer"`
	Link     string   `csv:"link" json:"link"`
	Image    string   `csv:"image" json:"image"`
	Category Category `csv:"category" json:"category"`
}

// ScrapeResult holds the outcome of one wishlist scrape.
type ScrapeResult struct {
	Items         []*ScrapedItem
	SourceURL     string
	Selector      string
	UsedFallback  bool
	HasMorePages  bool
	FetchAttempts int
	Duration      time.Duration
}

// RegistryItem mirrors a row in the external registry store after a batch
// insert assigned it an identity.
type RegistryItem struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Price    float64  `json:"price"`
	Retailer string   `json:"retailer"`
	Link     string   `json:"link"`
	Image    string   `json:"image,omitempty"`
	Category Category `json:"category"`
	Claimed  bool     `json:"claimed"`
}

// DiagnosticsReport summarizes how each known selector performed against a
// fetched document. Operators use it to adapt selector lists when the
// upstream markup drifts.
type DiagnosticsReport struct {
	URL             string             `json:"url"`
	HTMLSize        int                `json:"totalSize"`
	Title           string             `json:"title"`
	ElementCounts   map[string]int     `json:"elementCounts"`
	SampleSelectors DiagnosticsSamples `json:"sampleSelectors"`
}

// DiagnosticsSamples carries small extracts of text found under common
// field selectors.
type DiagnosticsSamples struct {
	H3Texts   []string `json:"h3_texts"`
	LinkHrefs []string `json:"link_hrefs"`
	Prices    []string `json:"prices"`
}
