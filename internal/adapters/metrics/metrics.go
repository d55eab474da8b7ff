// Package metrics exposes pipeline progress as Prometheus counters.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bft-labs/claimdrop/internal/domain"
	"github.com/bft-labs/claimdrop/internal/ports"
)

// Recorder implements ports.Events on a Prometheus registry.
type Recorder struct {
	PagesBuilt         *prometheus.CounterVec
	OperationsBuilt    *prometheus.CounterVec
	EnvelopesPersisted *prometheus.CounterVec
	RecordsSkipped     prometheus.Counter
	Submissions        *prometheus.CounterVec
	StagnantPages      prometheus.Counter
}

var _ ports.Events = (*Recorder)(nil)

// NewRecorder registers the claimdrop counters on reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		PagesBuilt: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "claimdrop_pages_built_total",
				Help: "Total number of pages turned into transactions",
			},
			[]string{"stage"},
		),
		OperationsBuilt: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "claimdrop_operations_built_total",
				Help: "Total number of operations placed in built transactions",
			},
			[]string{"stage"},
		),
		EnvelopesPersisted: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "claimdrop_envelopes_persisted_total",
				Help: "Total number of signed envelopes written or submitted",
			},
			[]string{"stage"},
		),
		RecordsSkipped: f.NewCounter(
			prometheus.CounterOpts{
				Name: "claimdrop_records_skipped_total",
				Help: "Total number of malformed recipient rows skipped",
			},
		),
		Submissions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "claimdrop_submissions_total",
				Help: "Total number of envelope submissions by classified outcome",
			},
			[]string{"stage", "outcome"},
		),
		StagnantPages: f.NewCounter(
			prometheus.CounterOpts{
				Name: "claimdrop_stagnant_pages_total",
				Help: "Total number of collector pages identical to the previous one",
			},
		),
	}
}

func (r *Recorder) PageBuilt(stage string, operations int) {
	r.PagesBuilt.WithLabelValues(stage).Inc()
	r.OperationsBuilt.WithLabelValues(stage).Add(float64(operations))
}

func (r *Recorder) EnvelopePersisted(stage string) {
	r.EnvelopesPersisted.WithLabelValues(stage).Inc()
}

func (r *Recorder) RecordSkipped() {
	r.RecordsSkipped.Inc()
}

func (r *Recorder) Submitted(stage string, kind domain.OutcomeKind) {
	r.Submissions.WithLabelValues(stage, kind.String()).Inc()
}

func (r *Recorder) StagnantPage() {
	r.StagnantPages.Inc()
}

// Serve exposes gatherer on addr at /metrics until ctx is cancelled.
// It returns once the listener is bound; serving continues in the background.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer, logger ports.Logger) (net.Addr, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", ports.Err(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("prometheus metrics server listening", ports.String("address", listener.Addr().String()))
	return listener.Addr(), nil
}
