package pipeline

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/nestlist/wishlist-scraper/models"
)

type mockWriter struct {
	mu       sync.Mutex
	batches  [][]*models.ScrapedItem
	writeErr error
}

func (mw *mockWriter) Write(items []*models.ScrapedItem) error {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	if mw.writeErr != nil {
		return mw.writeErr
	}
	copyBatch := make([]*models.ScrapedItem, len(items))
	copy(copyBatch, items)
	mw.batches = append(mw.batches, copyBatch)
	return nil
}

func (mw *mockWriter) Close() error { return nil }

func (mw *mockWriter) Validate() error { return nil }

func (mw *mockWriter) totalWritten() int {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	total := 0
	for _, batch := range mw.batches {
		total += len(batch)
	}
	return total
}

func testItem(name, link string) *models.ScrapedItem {
	return &models.ScrapedItem{
		Name:     name,
		Price:    10,
		Retailer: "Amazon",
		Link:     link,
		Category: models.CategorySafety,
	}
}

func TestPipelineProcessValidationAndDedup(t *testing.T) {
	writer := &mockWriter{}
	p := NewPipeline(writer, 16, 8)
	p.Start(1)

	items := []*models.ScrapedItem{
		testItem("Baby Monitor", "https://www.amazon.com/dp/A"),
		{Name: "", Price: 5, Category: models.CategorySafety}, // invalid
		testItem("Baby Monitor", "https://www.amazon.com/dp/B"), // duplicate name
		testItem("Renamed Monitor", "https://www.amazon.com/dp/A"), // duplicate link
		nil,
	}

	if err := p.Process(items); err != nil {
		t.Fatalf("process: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if got := writer.totalWritten(); got != 1 {
		t.Fatalf("written items = %d, want 1", got)
	}

	metrics := p.GetMetrics()
	if processed := metrics["processed_items"].(int64); processed != 1 {
		t.Errorf("processed = %d, want 1", processed)
	}
	rejections := metrics["rejections"].(map[string]int)
	if rejections["invalid_record"] != 1 {
		t.Errorf("invalid_record rejections = %d, want 1", rejections["invalid_record"])
	}
	if rejections["duplicate"] != 2 {
		t.Errorf("duplicate rejections = %d, want 2", rejections["duplicate"])
	}
}

func TestPipelineBatchesBySize(t *testing.T) {
	writer := &mockWriter{}
	p := NewPipeline(writer, 16, 2)
	p.Start(1)

	items := []*models.ScrapedItem{
		testItem("Item One", "https://www.amazon.com/dp/1"),
		testItem("Item Two", "https://www.amazon.com/dp/2"),
		testItem("Item Three", "https://www.amazon.com/dp/3"),
	}
	if err := p.Process(items); err != nil {
		t.Fatalf("process: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if got := writer.totalWritten(); got != 3 {
		t.Fatalf("written items = %d, want 3", got)
	}
	writer.mu.Lock()
	defer writer.mu.Unlock()
	if len(writer.batches) != 2 {
		t.Fatalf("batches = %d, want 2 (full batch plus remainder)", len(writer.batches))
	}
	if len(writer.batches[0]) != 2 || len(writer.batches[1]) != 1 {
		t.Errorf("batch sizes = %d/%d, want 2/1", len(writer.batches[0]), len(writer.batches[1]))
	}
}

func TestPipelineProcessAfterClose(t *testing.T) {
	writer := &mockWriter{}
	p := NewPipeline(writer, 4, 2)
	p.Start(1)

	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	err := p.Process([]*models.ScrapedItem{testItem("Late Item", "")})
	if !errors.Is(err, ErrPipelineClosed) {
		t.Fatalf("process after close = %v, want ErrPipelineClosed", err)
	}
}

func TestPipelineSurfacesWriterError(t *testing.T) {
	writer := &mockWriter{writeErr: errors.New("disk full")}
	p := NewPipeline(writer, 4, 1)
	p.Start(1)

	// The write error may close the pipeline before Process returns, so
	// tolerate ErrPipelineClosed here and assert on the terminal error.
	_ = p.Process([]*models.ScrapedItem{testItem("Doomed Item", "")})
	closeErr := p.Close()

	if closeErr == nil {
		t.Fatalf("close should surface the writer error")
	}
	if !strings.Contains(closeErr.Error(), "disk full") {
		t.Fatalf("unexpected error: %v", closeErr)
	}
}
