// Package parser provides pure normalization functions for raw extracted
// wishlist fields.
package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/nestlist/wishlist-scraper/models"
)

var priceRe = regexp.MustCompile(`\d+\.?\d*`)

// ParsePrice converts raw price text into a non-negative decimal. Currency
// symbols, thousands separators, and whitespace are stripped before the
// first decimal-number pattern is taken. Text without a number yields 0,
// never an error.
func ParsePrice(raw string) float64 {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "", "\t", "", "\n", "").Replace(raw)
	match := priceRe.FindString(cleaned)
	if match == "" {
		return 0
	}
	price, err := strconv.ParseFloat(match, 64)
	if err != nil || price < 0 {
		return 0
	}
	return price
}

// AbsoluteURL resolves a link or image value against the upstream origin.
// Full-scheme values pass through, protocol-relative values get https:,
// anything else is treated as site-relative. Empty stays empty.
func AbsoluteURL(raw, origin string) string {
	switch {
	case raw == "":
		return ""
	case strings.HasPrefix(raw, "http://"), strings.HasPrefix(raw, "https://"):
		return raw
	case strings.HasPrefix(raw, "//"):
		return "https:" + raw
	default:
		return strings.TrimSuffix(origin, "/") + "/" + strings.TrimPrefix(raw, "/")
	}
}

// keywordGroup maps name substrings to a category. Order across groups is
// significant: the first matching group wins.
type keywordGroup struct {
	category models.Category
	keywords []string
}

var keywordGroups = []keywordGroup{
	{models.CategorySafety, []string{"car seat", "safety", "monitor"}},
	{models.CategoryTravel, []string{"stroller", "carrier", "travel"}},
	{models.CategoryFurniture, []string{"crib", "chair", "table"}},
	{models.CategoryClothing, []string{"onesie", "clothes", "outfit"}},
	{models.CategoryFeeding, []string{"bottle", "feeding", "food"}},
	{models.CategoryBedding, []string{"blanket", "swaddle", "bedding"}},
}

// Categorize assigns a category by case-insensitive substring match of the
// item name against the keyword groups. This is a heuristic with a fixed
// default, not a correctness guarantee.
func Categorize(name string) models.Category {
	upper := strings.ToUpper(name)
	for _, group := range keywordGroups {
		for _, keyword := range group.keywords {
			if strings.Contains(upper, strings.ToUpper(keyword)) {
				return group.category
			}
		}
	}
	return models.DefaultCategory
}

// ValidateItem ensures an item carries the fields the registry requires.
func ValidateItem(item *models.ScrapedItem) error {
	if item == nil {
		return fmt.Errorf("item is nil")
	}
	if strings.TrimSpace(item.Name) == "" {
		return fmt.Errorf("item missing name")
	}
	if item.Price < 0 {
		return fmt.Errorf("item %s has negative price", item.Name)
	}
	if !item.Category.Valid() {
		return fmt.Errorf("item %s has unknown category %q", item.Name, item.Category)
	}
	return nil
}

// DedupSet tracks items accepted during one extraction pass. An item is a
// duplicate when its name matches an accepted item exactly, or when both
// links are non-empty and equal. First-seen wins.
type DedupSet struct {
	names map[string]struct{}
	links map[string]struct{}
}

// NewDedupSet returns an empty accepted-set.
func NewDedupSet() *DedupSet {
	return &DedupSet{
		names: make(map[string]struct{}),
		links: make(map[string]struct{}),
	}
}

// Admit reports whether the item is new and, if so, records it.
func (d *DedupSet) Admit(item *models.ScrapedItem) bool {
	if item == nil {
		return false
	}
	if _, ok := d.names[item.Name]; ok {
		return false
	}
	if item.Link != "" {
		if _, ok := d.links[item.Link]; ok {
			return false
		}
	}
	d.names[item.Name] = struct{}{}
	if item.Link != "" {
		d.links[item.Link] = struct{}{}
	}
	return true
}
