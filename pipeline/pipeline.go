// Package pipeline coordinates validation, de-duplication, and output
// writing for scraped items on the export path.
package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nestlist/wishlist-scraper/models"
	"github.com/nestlist/wishlist-scraper/parser"
)

// ErrPipelineClosed is returned when Process is called after shutdown.
var ErrPipelineClosed = errors.New("pipeline: closed")

// OutputWriter defines the interface for data output.
type OutputWriter interface {
	Write(items []*models.ScrapedItem) error
	Close() error
	Validate() error
}

// Pipeline fans scraped items out to workers that batch them into an
// OutputWriter.
type Pipeline struct {
	writer    OutputWriter
	itemCh    chan *models.ScrapedItem
	batchSize int

	wg sync.WaitGroup

	seen   *parser.DedupSet
	seenMu sync.Mutex

	counters counters

	mu     sync.Mutex // guards closed/err
	closed bool
	err    error

	closeOnce    sync.Once
	shutdown     chan struct{}
	shutdownOnce sync.Once
}

// NewPipeline builds a pipeline with an in-memory buffer sized by cfg.
func NewPipeline(writer OutputWriter, bufferSize, batchSize int) *Pipeline {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	if batchSize <= 0 {
		batchSize = 32
	}
	return &Pipeline{
		writer:    writer,
		itemCh:    make(chan *models.ScrapedItem, bufferSize),
		batchSize: batchSize,
		seen:      parser.NewDedupSet(),
		counters:  newCounters(),
		shutdown:  make(chan struct{}),
	}
}

// Start launches worker goroutines.
func (p *Pipeline) Start(workers int) {
	if workers <= 0 {
		workers = 1
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// Process enqueues items for downstream processing.
func (p *Pipeline) Process(items []*models.ScrapedItem) error {
	if len(items) == 0 {
		return nil
	}

	closed, err := p.state()
	if err != nil {
		return err
	}
	if closed {
		return ErrPipelineClosed
	}

	for _, item := range items {
		if item == nil {
			continue
		}
		if err := p.enqueue(item); err != nil {
			return err
		}
	}
	return nil
}

// Close waits for workers to finish and prevents more submissions.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
	}
	p.mu.Unlock()

	p.signalShutdown()
	p.closeOnce.Do(func() {
		close(p.itemCh)
	})

	p.wg.Wait()
	return p.Err()
}

// Err returns the first error encountered during processing.
func (p *Pipeline) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// GetMetrics returns a snapshot of the internal counters.
func (p *Pipeline) GetMetrics() map[string]interface{} {
	return p.counters.snapshot()
}

// StartMetricsReporting emits periodic progress logs.
func (p *Pipeline) StartMetricsReporting(interval time.Duration) {
	if interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				metrics := p.GetMetrics()
				processed := metrics["processed_items"].(int64)
				rejected := metrics["rejections"].(map[string]int)
				slog.Info("pipeline progress",
					slog.Int64("processed", processed),
					slog.Int("rejection_kinds", len(rejected)),
				)
			case <-p.shutdown:
				return
			}
		}
	}()
}

func (p *Pipeline) worker() {
	defer p.wg.Done()

	batch := make([]*models.ScrapedItem, 0, p.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := p.writer.Write(batch); err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	}

	for item := range p.itemCh {
		if !p.accept(item) {
			continue
		}
		batch = append(batch, item)
		if len(batch) >= p.batchSize {
			if err := flush(); err != nil {
				p.setErr(fmt.Errorf("write batch: %w", err))
				return
			}
		}
	}

	if err := flush(); err != nil {
		p.setErr(fmt.Errorf("write batch: %w", err))
	}
}

// accept validates an item and admits it past the cumulative dedup set.
func (p *Pipeline) accept(item *models.ScrapedItem) bool {
	if err := parser.ValidateItem(item); err != nil {
		p.counters.addRejection("invalid_record")
		return false
	}

	p.seenMu.Lock()
	admitted := p.seen.Admit(item)
	p.seenMu.Unlock()
	if !admitted {
		p.counters.addRejection("duplicate")
		return false
	}

	p.counters.incrementProcessed()
	return true
}

func (p *Pipeline) enqueue(item *models.ScrapedItem) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ErrPipelineClosed
		}
	}()

	select {
	case <-p.shutdown:
		return ErrPipelineClosed
	case p.itemCh <- item:
		return nil
	}
}

func (p *Pipeline) setErr(err error) {
	if err == nil {
		return
	}

	p.mu.Lock()
	if p.err != nil {
		p.mu.Unlock()
		return
	}
	p.err = err
	p.closed = true
	p.mu.Unlock()

	p.signalShutdown()
	p.closeOnce.Do(func() {
		close(p.itemCh)
	})
}

func (p *Pipeline) state() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed, p.err
}

func (p *Pipeline) signalShutdown() {
	p.shutdownOnce.Do(func() {
		close(p.shutdown)
	})
}

type counters struct {
	mu         sync.Mutex
	processed  int64
	rejections map[string]int
}

func newCounters() counters {
	return counters{
		rejections: make(map[string]int),
	}
}

func (c *counters) incrementProcessed() {
	c.mu.Lock()
	c.processed++
	c.mu.Unlock()
}

func (c *counters) addRejection(kind string) {
	c.mu.Lock()
	c.rejections[kind]++
	c.mu.Unlock()
}

func (c *counters) snapshot() map[string]interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	copyRejections := make(map[string]int, len(c.rejections))
	for k, v := range c.rejections {
		copyRejections[k] = v
	}

	return map[string]interface{}{
		"processed_items": c.processed,
		"rejections":      copyRejections,
	}
}
