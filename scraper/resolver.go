package scraper

import (
	"fmt"
	"regexp"
	"strings"
)

// idPatterns extract the wishlist identifier from a user-supplied URL.
// Order matters: the generic trailing pattern only runs after the two
// known upstream URL shapes fail.
var idPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)/hz/wishlist/ls/([A-Z0-9]+)`),
	regexp.MustCompile(`(?i)/gp/registry/wishlist/([A-Z0-9]+)`),
	regexp.MustCompile(`(?i)wishlist/([A-Z0-9]+)`),
}

// candidateTemplates build fetch URLs from an identifier, most likely to
// succeed first. %s placeholders are origin then identifier.
var candidateTemplates = []string{
	"%s/hz/wishlist/ls/%s?viewType=list",
	"%s/hz/wishlist/ls/%s",
	"%s/gp/registry/wishlist/%s",
	"%s/hz/wishlist/ls/%s?type=wishlist",
}

// ExtractWishlistID pulls the alphanumeric wishlist identifier out of a
// user-supplied URL. Returns ErrInvalidWishlistURL when no pattern
// matches; callers must not fetch in that case.
func ExtractWishlistID(rawURL string) (string, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return "", ErrInvalidWishlistURL
	}
	for _, pattern := range idPatterns {
		if match := pattern.FindStringSubmatch(trimmed); match != nil {
			return match[1], nil
		}
	}
	return "", ErrInvalidWishlistURL
}

// CandidateURLs derives the ordered fetch-URL list for an identifier.
// The list is never empty and its order encodes decreasing preference.
func CandidateURLs(origin, wishlistID string) []string {
	origin = strings.TrimSuffix(origin, "/")
	urls := make([]string, 0, len(candidateTemplates))
	for _, template := range candidateTemplates {
		urls = append(urls, fmt.Sprintf(template, origin, wishlistID))
	}
	return urls
}
