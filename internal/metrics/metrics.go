package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "nabla_indexer"

// Metrics tracks indexer progress. A nil *Metrics records nothing.
type Metrics struct {
	BlocksProcessed    prometheus.Counter
	TransactionChanges prometheus.Counter
	EntityChanges      prometheus.Counter
	ComponentsCreated  *prometheus.CounterVec
	Retries            *prometheus.CounterVec
	LastProcessedBlock prometheus.Gauge
	BatchDuration      prometheus.Histogram
}

// New creates the indexer metrics and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		BlocksProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_processed_total",
			Help:      "Blocks decoded.",
		}),
		TransactionChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transaction_changes_total",
			Help:      "Transactions that produced components or entity changes.",
		}),
		EntityChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entity_changes_total",
			Help:      "Entity change records emitted.",
		}),
		ComponentsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "components_created_total",
			Help:      "Components registered, by kind.",
		}, []string{"kind"}),
		Retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retries_total",
			Help:      "Retried operations, by stage.",
		}, []string{"stage"}),
		LastProcessedBlock: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_processed_block",
			Help:      "Highest block whose batch was fully stored.",
		}),
		BatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Time to fetch, decode and store one batch.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
	}

	for _, c := range []prometheus.Collector{
		m.BlocksProcessed,
		m.TransactionChanges,
		m.EntityChanges,
		m.ComponentsCreated,
		m.Retries,
		m.LastProcessedBlock,
		m.BatchDuration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveBlock records one decoded block.
func (m *Metrics) ObserveBlock(transactions, entityChanges int, componentKinds []string) {
	if m == nil {
		return
	}
	m.BlocksProcessed.Inc()
	m.TransactionChanges.Add(float64(transactions))
	m.EntityChanges.Add(float64(entityChanges))
	for _, kind := range componentKinds {
		m.ComponentsCreated.WithLabelValues(kind).Inc()
	}
}

// ObserveRetry records a retried attempt of stage.
func (m *Metrics) ObserveRetry(stage string) {
	if m == nil {
		return
	}
	m.Retries.WithLabelValues(stage).Inc()
}

// ObserveBatch records a stored batch ending at lastBlock.
func (m *Metrics) ObserveBatch(lastBlock uint64, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.LastProcessedBlock.Set(float64(lastBlock))
	m.BatchDuration.Observe(elapsed.Seconds())
}

// Serve exposes gatherer on addr under /metrics until ctx is done.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("metrics server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
