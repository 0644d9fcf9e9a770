package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Device metrics
	NetworkDevicesTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "netd_network_devices_total",
			Help: "Total number of discovered devices by prepared/unprepared/missing state",
		},
		[]string{"state"},
	)

	NetworkDevicesMissingTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "netd_network_devices_missing_total",
			Help: "Total number of devices that disappeared from the kernel link cache",
		},
	)

	// Registry metrics
	NetworkHandlesTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "netd_network_handles_total",
			Help: "Number of live Network Handles held by the registry",
		},
	)

	NetworkRegistrySweptTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "netd_network_registry_swept_total",
			Help: "Total number of expired weak references swept from the registry",
		},
	)

	// NAT metrics
	NATAllocated = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "netd_nat_allocated",
			Help: "Number of NAT pool offsets currently allocated",
		},
	)

	NATFree = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "netd_nat_free",
			Help: "Number of NAT pool offsets currently free",
		},
	)

	NATExhaustedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "netd_nat_exhausted_total",
			Help: "Total number of NAT allocation attempts that failed with ResourceNotAvailable",
		},
	)

	// TC programming metrics
	TCClassInstallDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "netd_tc_class_install_duration_seconds",
			Help:    "Time taken to install a TC class tree on one device in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	TCClassInstallRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "netd_tc_class_install_retries_total",
			Help: "Total number of CreateTC delete+recreate retries",
		},
	)

	RefreshDevicesDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "netd_refresh_devices_duration_seconds",
			Help:    "Time taken for one RefreshDevices pass in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Netlink facade metrics
	NetlinkErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netd_netlink_errors_total",
			Help: "Total number of netlink operations that returned an error, by operation",
		},
		[]string{"op"},
	)

	NetlinkOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netd_netlink_ops_total",
			Help: "Total number of netlink operations issued, by operation",
		},
		[]string{"op"},
	)

	// Worker (reconciliation) metrics
	WorkerCycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "netd_worker_cycle_duration_seconds",
			Help:    "Time taken for one watchdog cycle of the reconciliation worker in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	WorkerCyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "netd_worker_cycles_total",
			Help: "Total number of watchdog cycles completed",
		},
	)

	WorkerCycleFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "netd_worker_cycle_failures_total",
			Help: "Total number of watchdog cycles that re-raised work-pending due to a failed refresh",
		},
	)

	ContainersQueuedTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "netd_containers_queued",
			Help: "Number of containers currently waiting in net_state=Queued",
		},
	)
)

func init() {
	prometheus.MustRegister(NetworkDevicesTotal)
	prometheus.MustRegister(NetworkDevicesMissingTotal)
	prometheus.MustRegister(NetworkHandlesTotal)
	prometheus.MustRegister(NetworkRegistrySweptTotal)
	prometheus.MustRegister(NATAllocated)
	prometheus.MustRegister(NATFree)
	prometheus.MustRegister(NATExhaustedTotal)
	prometheus.MustRegister(TCClassInstallDuration)
	prometheus.MustRegister(TCClassInstallRetriesTotal)
	prometheus.MustRegister(RefreshDevicesDuration)
	prometheus.MustRegister(NetlinkErrorsTotal)
	prometheus.MustRegister(NetlinkOpsTotal)
	prometheus.MustRegister(WorkerCycleDuration)
	prometheus.MustRegister(WorkerCyclesTotal)
	prometheus.MustRegister(WorkerCycleFailuresTotal)
	prometheus.MustRegister(ContainersQueuedTotal)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
