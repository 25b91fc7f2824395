package parser

import (
	"testing"

	"github.com/nestlist/wishlist-scraper/models"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want float64
	}{
		{name: "currency and thousands separator", raw: "$1,299.99", want: 1299.99},
		{name: "plain decimal", raw: "12.5", want: 12.5},
		{name: "no number", raw: "Price not available", want: 0},
		{name: "empty", raw: "", want: 0},
		{name: "whole dollars", raw: "$45", want: 45},
		{name: "embedded number", raw: "From $18.99 to $24.99", want: 18.99},
		{name: "whitespace around amount", raw: "  $ 7.25 ", want: 7.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParsePrice(tt.raw); got != tt.want {
				t.Errorf("ParsePrice(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestAbsoluteURL(t *testing.T) {
	const origin = "https://www.amazon.com"

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "full scheme untouched", raw: "https://x.com/y", want: "https://x.com/y"},
		{name: "http scheme untouched", raw: "http://x.com/y", want: "http://x.com/y"},
		{name: "protocol relative", raw: "//img.example.com/a.jpg", want: "https://img.example.com/a.jpg"},
		{name: "site relative", raw: "/dp/B000X", want: "https://www.amazon.com/dp/B000X"},
		{name: "relative without slash", raw: "dp/B000X", want: "https://www.amazon.com/dp/B000X"},
		{name: "empty stays empty", raw: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AbsoluteURL(tt.raw, origin); got != tt.want {
				t.Errorf("AbsoluteURL(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		name string
		item string
		want models.Category
	}{
		{name: "car seat", item: "Graco 4Ever Convertible Car Seat", want: models.CategorySafety},
		{name: "first matching group wins", item: "Infant Car Seat Monitor", want: models.CategorySafety},
		{name: "stroller", item: "UPPAbaby Vista Stroller", want: models.CategoryTravel},
		{name: "crib", item: "Convertible Crib, Natural", want: models.CategoryFurniture},
		{name: "onesie", item: "Organic cotton onesie 3-pack", want: models.CategoryClothing},
		{name: "bottle", item: "Anti-colic bottle set", want: models.CategoryFeeding},
		{name: "swaddle", item: "Muslin Swaddle Blankets", want: models.CategoryBedding},
		{name: "case insensitive", item: "TRAVEL system deluxe", want: models.CategoryTravel},
		{name: "no match falls back", item: "Rubber duck", want: models.DefaultCategory},
		{name: "empty name falls back", item: "", want: models.DefaultCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Categorize(tt.item); got != tt.want {
				t.Errorf("Categorize(%q) = %q, want %q", tt.item, got, tt.want)
			}
		})
	}
}

func TestValidateItem(t *testing.T) {
	tests := []struct {
		name    string
		item    *models.ScrapedItem
		wantErr bool
	}{
		{
			name: "valid item",
			item: &models.ScrapedItem{
				Name:     "Baby Monitor",
				Price:    99.99,
				Retailer: "Amazon",
				Category: models.CategorySafety,
			},
			wantErr: false,
		},
		{
			name:    "nil item",
			item:    nil,
			wantErr: true,
		},
		{
			name: "missing name",
			item: &models.ScrapedItem{
				Price:    10,
				Category: models.CategorySafety,
			},
			wantErr: true,
		},
		{
			name: "negative price",
			item: &models.ScrapedItem{
				Name:     "Blanket",
				Price:    -1,
				Category: models.CategoryBedding,
			},
			wantErr: true,
		},
		{
			name: "unknown category",
			item: &models.ScrapedItem{
				Name:     "Blanket",
				Price:    1,
				Category: models.Category("Gadgets"),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateItem(tt.item)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateItem() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDedupSetNameMatch(t *testing.T) {
	seen := NewDedupSet()

	first := &models.ScrapedItem{Name: "Baby Monitor", Link: "https://www.amazon.com/dp/A"}
	second := &models.ScrapedItem{Name: "Baby Monitor", Link: "https://www.amazon.com/dp/B"}

	if !seen.Admit(first) {
		t.Fatalf("first item should be admitted")
	}
	if seen.Admit(second) {
		t.Fatalf("same name with different link should be rejected")
	}
	if seen.Admit(second) {
		t.Fatalf("re-insertion of a duplicate must stay rejected")
	}
}

func TestDedupSetLinkMatch(t *testing.T) {
	seen := NewDedupSet()

	first := &models.ScrapedItem{Name: "Monitor, white", Link: "https://www.amazon.com/dp/A"}
	second := &models.ScrapedItem{Name: "Monitor (white)", Link: "https://www.amazon.com/dp/A"}

	if !seen.Admit(first) {
		t.Fatalf("first item should be admitted")
	}
	if seen.Admit(second) {
		t.Fatalf("same non-empty link should be rejected")
	}
}

func TestDedupSetEmptyLinksNeverCollide(t *testing.T) {
	seen := NewDedupSet()

	if !seen.Admit(&models.ScrapedItem{Name: "Item A"}) {
		t.Fatalf("first linkless item should be admitted")
	}
	if !seen.Admit(&models.ScrapedItem{Name: "Item B"}) {
		t.Fatalf("second linkless item should be admitted; empty links are not equal")
	}
	if seen.Admit(nil) {
		t.Fatalf("nil item should be rejected")
	}
}
