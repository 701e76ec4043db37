package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds every suite metric. It is written out once per run as a
// textfile-collector file rather than served.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	metricProvisionAttempts = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "emsuite",
		Name:      "provision_attempts_total",
		Help:      "Browser session connection attempts, by launch mode.",
	}, []string{"mode"})
	metricProvisionFailures = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "emsuite",
		Name:      "provision_failures_total",
		Help:      "Sessions that could not be provisioned, by failure kind.",
	}, []string{"kind"})
	metricSessionsReleased = factory.NewCounter(prometheus.CounterOpts{
		Namespace: "emsuite",
		Name:      "sessions_released_total",
		Help:      "Sessions torn down after their scenario finished.",
	})
	metricScenarioResults = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "emsuite",
		Name:      "scenario_results_total",
		Help:      "Scenario outcomes, by result.",
	}, []string{"result"})
	metricScenarioDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "emsuite",
		Name:      "scenario_duration_seconds",
		Help:      "Wall-clock time per scenario including provisioning.",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
	}, []string{"scenario"})
)

func RecordProvisionAttempt(mode string) {
	metricProvisionAttempts.WithLabelValues(mode).Inc()
}

func RecordProvisionFailure(kind string) {
	metricProvisionFailures.WithLabelValues(kind).Inc()
}

func RecordSessionReleased() {
	metricSessionsReleased.Inc()
}

// RecordScenario counts a finished scenario and observes its duration
func RecordScenario(name string, passed bool, elapsed time.Duration) {
	result := "passed"
	if !passed {
		result = "failed"
	}
	metricScenarioResults.WithLabelValues(result).Inc()
	metricScenarioDuration.WithLabelValues(name).Observe(elapsed.Seconds())
}

// WriteTextfile writes the registry in Prometheus text format, suitable for the
// node_exporter textfile collector
func WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, Registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
