// Package server implements the HTTP API consumed by the registry UI.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nestlist/wishlist-scraper/models"
	"github.com/nestlist/wishlist-scraper/registry"
	"github.com/nestlist/wishlist-scraper/scraper"
)

// WishlistScraper is the slice of the scrape pipeline the handlers need.
type WishlistScraper interface {
	Scrape(ctx context.Context, wishlistURL string) (*models.ScrapeResult, error)
	Diagnose(ctx context.Context, wishlistURL string) (*models.DiagnosticsReport, error)
}

// Server routes scrape and import requests to the pipeline and the
// external registry store.
type Server struct {
	scraper WishlistScraper
	store   registry.Store
}

// New builds a server over a scraper and an optional store. A nil store
// disables the import endpoint with a configuration error.
func New(ws WishlistScraper, store registry.Store) *Server {
	return &Server{scraper: ws, store: store}
}

// Router builds the gin engine with all routes attached.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	api := router.Group("/api")
	api.POST("/scrape-wishlist", s.handleScrapeWishlist)
	api.POST("/debug-wishlist", s.handleDebugWishlist)
	api.POST("/import-items", s.handleImportItems)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	return router
}

type scrapeRequest struct {
	WishlistURL string `json:"wishlistUrl"`
}

type importRequest struct {
	Items []*models.ScrapedItem `json:"items"`
}

func (s *Server) handleScrapeWishlist(c *gin.Context) {
	var req scrapeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.WishlistURL == "" {
		respondBadRequest(c, "Wishlist URL is required")
		return
	}

	result, err := s.scraper.Scrape(c.Request.Context(), req.WishlistURL)
	if err != nil {
		if errors.Is(err, scraper.ErrInvalidWishlistURL) {
			respondBadRequest(c, "Invalid wishlist URL")
			return
		}
		respondFailure(c, http.StatusInternalServerError, "Failed to scrape wishlist", err)
		return
	}

	items := result.Items
	if items == nil {
		items = []*models.ScrapedItem{}
	}
	message := fmt.Sprintf("Successfully scraped %d items from wishlist", len(items))
	if result.HasMorePages {
		message += "; the wishlist may have more items on additional pages"
	}
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"items":        items,
		"hasMorePages": result.HasMorePages,
		"message":      message,
	})
}

func (s *Server) handleDebugWishlist(c *gin.Context) {
	var req scrapeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.WishlistURL == "" {
		respondBadRequest(c, "Wishlist URL is required")
		return
	}

	report, err := s.scraper.Diagnose(c.Request.Context(), req.WishlistURL)
	if err != nil {
		if errors.Is(err, scraper.ErrInvalidWishlistURL) {
			respondBadRequest(c, "Invalid wishlist URL")
			return
		}
		respondFailure(c, http.StatusInternalServerError, "Debug failed", err)
		return
	}

	c.JSON(http.StatusOK, report)
}

func (s *Server) handleImportItems(c *gin.Context) {
	if s.store == nil {
		respondError(c, http.StatusServiceUnavailable, "registry store is not configured")
		return
	}

	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Items) == 0 {
		respondBadRequest(c, "At least one item is required")
		return
	}
	for _, item := range req.Items {
		if item == nil || item.Name == "" {
			respondBadRequest(c, "Every item needs a name")
			return
		}
		if !item.Category.Valid() {
			item.Category = models.DefaultCategory
		}
	}

	created, err := s.store.InsertBatch(c.Request.Context(), req.Items)
	if err != nil {
		// The store may have persisted a prefix of the batch; callers
		// must hear about that rather than assume a clean failure.
		respondFailure(c, http.StatusBadGateway, "Import failed; some items may not have been saved", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"items":   created,
		"message": fmt.Sprintf("Imported %d items", len(created)),
	})
}

// respondError sends a JSON error response.
func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// respondBadRequest sends a 400 with message.
func respondBadRequest(c *gin.Context, message string) {
	respondError(c, http.StatusBadRequest, message)
}

// respondFailure sends an error response carrying underlying detail.
func respondFailure(c *gin.Context, status int, message string, err error) {
	c.JSON(status, gin.H{"error": message, "details": err.Error()})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Info("http request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)),
		)
	}
}
