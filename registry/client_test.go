package registry

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/jarcoal/httpmock"

	"github.com/nestlist/wishlist-scraper/config"
	"github.com/nestlist/wishlist-scraper/models"
)

const testStoreURL = "https://store.example.test/rest/v1/wishlist_items"

func newTestClient(t *testing.T) (*Client, *httpmock.MockTransport) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.RegistryURL = testStoreURL
	cfg.RegistryKey = "service-key"

	client := NewClient(cfg)
	transport := httpmock.NewMockTransport()
	client.http.GetClient().Transport = transport
	return client, transport
}

func TestInsertBatch(t *testing.T) {
	client, transport := newTestClient(t)

	transport.RegisterResponder("POST", testStoreURL,
		func(req *http.Request) (*http.Response, error) {
			if got := req.Header.Get("apikey"); got != "service-key" {
				t.Errorf("apikey header = %q", got)
			}
			if got := req.Header.Get("Prefer"); got != "return=representation" {
				t.Errorf("Prefer header = %q", got)
			}

			var rows []map[string]interface{}
			if err := json.NewDecoder(req.Body).Decode(&rows); err != nil {
				t.Fatalf("decode request body: %v", err)
			}
			if len(rows) != 2 {
				t.Fatalf("got %d rows, want 2", len(rows))
			}
			if claimed, ok := rows[0]["claimed"].(bool); !ok || claimed {
				t.Errorf("rows must be inserted unclaimed, got %v", rows[0]["claimed"])
			}
			if rows[1]["image"] != nil {
				t.Errorf("missing image should serialize as null, got %v", rows[1]["image"])
			}

			return httpmock.NewJsonResponse(201, []map[string]interface{}{
				{"id": "row-1", "name": rows[0]["name"], "claimed": false},
				{"id": "row-2", "name": rows[1]["name"], "claimed": false},
			})
		})

	items := []*models.ScrapedItem{
		{Name: "Baby Monitor", Price: 99.99, Retailer: "Amazon", Image: "https://img.example.com/m.jpg", Category: models.CategorySafety},
		{Name: "Swaddle Set", Price: 24, Retailer: "Amazon", Category: models.CategoryBedding},
	}

	created, err := client.InsertBatch(context.Background(), items)
	if err != nil {
		t.Fatalf("InsertBatch: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("created = %d rows, want 2", len(created))
	}
	if created[0].ID != "row-1" {
		t.Errorf("first row id = %q", created[0].ID)
	}
}

func TestInsertBatchStoreError(t *testing.T) {
	client, transport := newTestClient(t)
	transport.RegisterResponder("POST", testStoreURL,
		httpmock.NewStringResponder(500, `{"message":"constraint violation"}`))

	_, err := client.InsertBatch(context.Background(), []*models.ScrapedItem{
		{Name: "Baby Monitor", Category: models.CategorySafety},
	})
	if err == nil {
		t.Fatalf("expected error from store failure")
	}
	if !strings.Contains(err.Error(), "status 500") {
		t.Errorf("error should carry the store status, got %v", err)
	}
}

func TestInsertBatchEmptyIsNoop(t *testing.T) {
	client, transport := newTestClient(t)

	created, err := client.InsertBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("InsertBatch(nil): %v", err)
	}
	if created != nil {
		t.Errorf("created = %v, want nil", created)
	}
	if transport.GetTotalCallCount() != 0 {
		t.Errorf("made %d requests, want 0", transport.GetTotalCallCount())
	}
}

func TestInsertBatchRequiresURL(t *testing.T) {
	cfg := config.DefaultConfig()
	client := NewClient(cfg)

	_, err := client.InsertBatch(context.Background(), []*models.ScrapedItem{
		{Name: "Baby Monitor", Category: models.CategorySafety},
	})
	if err == nil {
		t.Fatalf("expected configuration error when store URL is empty")
	}
}
