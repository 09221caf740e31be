package langfuse

import (
	"context"
	"encoding/base64"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	retryablehttp "github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/observekit/llm-gateway/internal/config"
	"github.com/observekit/llm-gateway/internal/logging"
	"github.com/observekit/llm-gateway/internal/resilience"
)

// MetricsRecorder receives ingestion pipeline measurements. A nil recorder
// disables measurement without disabling the pipeline.
type MetricsRecorder interface {
	SetEventsBuffered(count int)
	RecordBatchSent(eventCount int)
	RecordBatchError(droppedEvents int)
	RecordScore(name string)
}

// Client talks to the tracing backend. Writes are buffered and delivered in
// batches by a background loop; reads are synchronous.
type Client struct {
	http    *resty.Client
	logger  *logging.Logger
	metrics MetricsRecorder
	breaker *resilience.Breaker

	flushInterval time.Duration
	batchSize     int

	mu     sync.Mutex
	events []ingestionEvent

	kick      chan struct{}
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a client and starts its background flush loop.
func New(cfg config.LangfuseConfig, logger *logging.Logger, metrics MetricsRecorder) *Client {
	retry := retryablehttp.NewClient()
	retry.RetryMax = 3
	retry.RetryWaitMin = 500 * time.Millisecond
	retry.RetryWaitMax = 5 * time.Second
	retry.Logger = nil

	auth := base64.StdEncoding.EncodeToString([]byte(cfg.PublicKey + ":" + cfg.SecretKey))

	http := resty.NewWithClient(retry.StandardClient()).
		SetBaseURL(cfg.Host + "/api/public").
		SetHeader("Authorization", "Basic "+auth).
		SetHeader("Content-Type", "application/json").
		SetTimeout(30 * time.Second)

	c := &Client{
		http:    http,
		logger:  logger,
		metrics: metrics,
		breaker: resilience.New("langfuse", resilience.Settings{
			MaxRequests: 2,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts resilience.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to resilience.State) {
				logger.Warn("circuit breaker state change",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()))
			},
		}),
		flushInterval: cfg.FlushInterval,
		batchSize:     cfg.BatchSize,
		kick:          make(chan struct{}, 1),
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}

	go c.flushLoop()
	return c
}

// flushLoop delivers buffered events on a timer, when the buffer fills, and
// once more on shutdown.
func (c *Client) flushLoop() {
	defer close(c.done)

	ticker := time.NewTicker(c.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.flush(context.Background())
		case <-c.kick:
			c.flush(context.Background())
		case <-c.stop:
			return
		}
	}
}

// Flush synchronously delivers everything currently buffered.
func (c *Client) Flush(ctx context.Context) error {
	return c.flush(ctx)
}

// Close stops the flush loop and drains the buffer. Safe to call more than
// once; only the first call does work.
func (c *Client) Close(ctx context.Context) error {
	var err error
	c.closeOnce.Do(func() {
		close(c.stop)
		<-c.done
		err = c.flush(ctx)
	})
	return err
}
