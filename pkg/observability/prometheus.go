package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus implements every hook interface with Prometheus collectors.
type Prometheus struct {
	validations    *prometheus.CounterVec
	generations    *prometheus.CounterVec
	genDuration    prometheus.Histogram
	simulations    *prometheus.CounterVec
	simDuration    prometheus.Histogram
	simSuccessRate prometheus.Gauge
	simInFlight    prometheus.Gauge
	cacheOps       *prometheus.CounterVec
	cacheBytes     prometheus.Counter
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

// NewPrometheus creates the collectors and registers them with reg.
// It panics if they are already registered, like prometheus.MustRegister.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	p := &Prometheus{
		validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dungeonforge_validations_total",
			Help: "Graph validations by outcome.",
		}, []string{"valid"}),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dungeonforge_generations_total",
			Help: "Single generation runs by outcome (success, failure, error).",
		}, []string{"outcome"}),
		genDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dungeonforge_generation_duration_seconds",
			Help:    "Duration of single generation runs.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		simulations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dungeonforge_simulations_total",
			Help: "Batch simulations by outcome (completed, cancelled, error).",
		}, []string{"outcome"}),
		simDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dungeonforge_simulation_duration_seconds",
			Help:    "Duration of batch simulations.",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
		}),
		simSuccessRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dungeonforge_simulation_success_rate",
			Help: "Success rate of the last completed simulation.",
		}),
		simInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dungeonforge_simulations_in_flight",
			Help: "Simulations currently running.",
		}),
		cacheOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dungeonforge_cache_operations_total",
			Help: "Cache lookups and writes by key type and operation.",
		}, []string{"key_type", "op"}),
		cacheBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dungeonforge_cache_written_bytes_total",
			Help: "Bytes written to the cache.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dungeonforge_http_requests_total",
			Help: "API requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dungeonforge_http_request_duration_seconds",
			Help:    "API request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(
		p.validations, p.generations, p.genDuration,
		p.simulations, p.simDuration, p.simSuccessRate, p.simInFlight,
		p.cacheOps, p.cacheBytes,
		p.httpRequests, p.httpDuration,
	)
	return p
}

// Install registers p as the global hooks of every category.
func (p *Prometheus) Install() {
	SetGenerationHooks(p)
	SetSimulationHooks(p)
	SetCacheHooks(p)
	SetHTTPHooks(p)
}

func (p *Prometheus) OnValidate(_ context.Context, _ int, valid bool, _ time.Duration) {
	p.validations.WithLabelValues(strconv.FormatBool(valid)).Inc()
}

func (p *Prometheus) OnGenerateStart(context.Context, uint64) {}

func (p *Prometheus) OnGenerateComplete(_ context.Context, _ uint64, success bool, d time.Duration, err error) {
	p.generations.WithLabelValues(outcome(success, err)).Inc()
	p.genDuration.Observe(d.Seconds())
}

func (p *Prometheus) OnSimulationStart(context.Context, int, int) {
	p.simInFlight.Inc()
}

func (p *Prometheus) OnSimulationComplete(_ context.Context, _ int, rate float64, d time.Duration, err error) {
	p.simInFlight.Dec()
	p.simDuration.Observe(d.Seconds())
	if err != nil {
		p.simulations.WithLabelValues("cancelled_or_error").Inc()
		return
	}
	p.simulations.WithLabelValues("completed").Inc()
	p.simSuccessRate.Set(rate)
}

func (p *Prometheus) OnCacheHit(_ context.Context, keyType string) {
	p.cacheOps.WithLabelValues(keyType, "hit").Inc()
}

func (p *Prometheus) OnCacheMiss(_ context.Context, keyType string) {
	p.cacheOps.WithLabelValues(keyType, "miss").Inc()
}

func (p *Prometheus) OnCacheSet(_ context.Context, keyType string, size int) {
	p.cacheOps.WithLabelValues(keyType, "set").Inc()
	p.cacheBytes.Add(float64(size))
}

func (p *Prometheus) OnResponse(_ context.Context, method, route string, code int, d time.Duration) {
	p.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	p.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func outcome(success bool, err error) string {
	switch {
	case err != nil:
		return "error"
	case success:
		return "success"
	default:
		return "failure"
	}
}

var (
	_ GenerationHooks = (*Prometheus)(nil)
	_ SimulationHooks = (*Prometheus)(nil)
	_ CacheHooks      = (*Prometheus)(nil)
	_ HTTPHooks       = (*Prometheus)(nil)
)
