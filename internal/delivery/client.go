// Package delivery ships detected events to the remote collector in
// batches, with drop-oldest backpressure and requeue-on-failure retry.
//
// Delivery is at-least-once: a batch whose send fails is re-enqueued in
// full, so events may arrive duplicated or out of log order after a retry.
// Collectors that need idempotence should deduplicate on event_id.
package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/telhawk-systems/telhawk-fim/internal/metrics"
	"github.com/telhawk-systems/telhawk-fim/internal/models"
)

// Config holds collector delivery settings.
type Config struct {
	BaseURL      string
	IngestPath   string
	BatchSize    int
	SendInterval time.Duration
	MaxQueueSize int
	Timeout      time.Duration
}

// Client batches queued payloads and POSTs them to the collector from a
// single background sender goroutine.
type Client struct {
	baseURL      string
	ingestPath   string
	batchSize    int
	sendInterval time.Duration
	httpClient   *http.Client
	queue        *Queue
	log          *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	startOnce sync.Once
	stopOnce  sync.Once
}

// New constructs a delivery client. The sender is not running until Start.
func New(cfg Config, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 1
	}
	if cfg.SendInterval < time.Second {
		cfg.SendInterval = time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	ingestPath := cfg.IngestPath
	if !strings.HasPrefix(ingestPath, "/") {
		ingestPath = "/" + ingestPath
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		ingestPath:   ingestPath,
		batchSize:    cfg.BatchSize,
		sendInterval: cfg.SendInterval,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		queue:        NewQueue(cfg.MaxQueueSize),
		log:          log,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Enqueue adds a payload for delivery without blocking. Under sustained
// overload the oldest pending payload is dropped to make room.
func (c *Client) Enqueue(evt models.CollectorEvent) {
	if dropped, didDrop := c.queue.Enqueue(evt); didDrop {
		c.log.Warn("delivery queue full, dropping oldest payload",
			"path", dropped.Path,
			"event_id", dropped.EventID,
		)
	}
}

// QueueLen reports the number of payloads awaiting delivery.
func (c *Client) QueueLen() int {
	return c.queue.Len()
}

// Start launches the background sender.
func (c *Client) Start() {
	c.startOnce.Do(func() {
		c.log.Info("delivery client starting",
			"url", c.baseURL+c.ingestPath,
			"batch_size", c.batchSize,
			"send_interval", c.sendInterval.String(),
		)
		c.wg.Add(1)
		go c.sendLoop()
	})
}

// Stop signals the sender to exit, optionally performs one final flush, and
// joins the sender within timeout. Zero loss is not guaranteed when the
// collector is unreachable at shutdown; the timeout bound wins.
func (c *Client) Stop(flush bool, timeout time.Duration) {
	c.stopOnce.Do(func() {
		c.log.Info("delivery client stopping", "flush", flush)
		c.cancel()
		if flush {
			c.flush(context.Background())
		}

		done := make(chan struct{})
		go func() {
			c.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(timeout):
			c.log.Warn("delivery sender did not stop within timeout",
				"timeout", timeout.String(),
			)
		}
	})
}

// sendLoop flushes on every interval tick until stopped, then makes one
// last flush attempt so in-flight events are not silently abandoned.
func (c *Client) sendLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.sendInterval)
	defer ticker.Stop()

	for {
		c.flush(c.ctx)
		select {
		case <-c.ctx.Done():
			c.flush(context.Background())
			return
		case <-ticker.C:
		}
	}
}

// flush drains one batch and posts it. On any failure the whole batch is
// re-enqueued through the backpressure-aware Enqueue for a later attempt.
func (c *Client) flush(ctx context.Context) {
	batch := c.queue.DrainBatch(c.batchSize)
	if len(batch) == 0 {
		return
	}

	if err := c.post(ctx, batch); err != nil {
		metrics.SendFailures.Inc()
		c.log.Error("failed to send events to collector",
			"count", len(batch),
			"error", err,
		)
		for _, evt := range batch {
			c.Enqueue(evt)
		}
		return
	}

	metrics.EventsSent.Add(float64(len(batch)))
	c.log.Info("sent events to collector", "count", len(batch))
}

// post sends the batch as a single JSON object when it holds exactly one
// payload, or as a JSON array otherwise. Any 2xx status is success.
func (c *Client) post(ctx context.Context, batch []models.CollectorEvent) error {
	var payload interface{}
	if len(batch) == 1 {
		payload = batch[0]
	} else {
		payload = batch
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.ingestPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("collector response status %d: %s", resp.StatusCode, snippet)
	}
	return nil
}
