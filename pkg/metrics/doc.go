/*
Package metrics provides Prometheus metrics collection and exposition for netd.

The metrics package defines and registers all netd metrics using the Prometheus
client library, providing observability into device discovery, TC class
programming, NAT pool exhaustion, and the reconciliation worker's watchdog
cycles. Metrics are exposed via HTTP endpoint for scraping by Prometheus
servers.

# Architecture

netd's metrics system follows Prometheus best practices with comprehensive
instrumentation across the three core subsystems:

	┌──────────────────── METRICS SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │          Prometheus Registry                │          │
	│  │  - Global DefaultRegistry                   │          │
	│  │  - MustRegister at package init             │          │
	│  │  - Automatic Go runtime metrics             │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │              Metric Types                   │          │
	│  │                                              │          │
	│  │  Gauge: Instant values (devices managed)    │          │
	│  │  Counter: Monotonic increases (nl errors)   │          │
	│  │  Histogram: Distributions (TC install time) │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Metric Categories                 │          │
	│  │                                              │          │
	│  │  Devices: Discovered/prepared/missing       │          │
	│  │  Registry: Live handles, swept weak refs    │          │
	│  │  NAT: Allocated, free, exhausted            │          │
	│  │  TC: Class install duration, retries        │          │
	│  │  Netlink: Ops and errors by operation        │          │
	│  │  Worker: Cycle duration, count, failures    │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │          HTTP Metrics Endpoint              │          │
	│  │  - Path: /metrics                           │          │
	│  │  - Format: Prometheus text exposition       │          │
	│  │  - Handler: promhttp.Handler()              │          │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Core Components

Metric Registry:
  - Global Prometheus DefaultRegistry
  - All metrics registered at package init
  - Thread-safe for concurrent updates from the single worker goroutine
    and from client-thread namespace setup calls

Gauge Metrics:
  - Instant value that can go up or down
  - Examples: devices managed, NAT allocated/free, handles live
  - Operations: Set, Inc, Dec, Add, Sub

Counter Metrics:
  - Monotonically increasing value
  - Examples: netlink errors total, NAT exhausted total, worker cycles total
  - Operations: Inc, Add (cannot decrease)

Histogram Metrics:
  - Distribution of observed values
  - Buckets for TC install / refresh / cycle latency percentiles
  - Includes: sum, count, buckets

Timer Helper:
  - Convenience wrapper for timing operations
  - Start timer, observe duration to histogram
  - Supports label values for histogram vectors

# Metrics Catalog

Device Metrics:

netd_network_devices_total{state}:
  - Type: Gauge
  - Description: Devices by state (prepared/unprepared/missing)
  - Labels: state
  - Example: netd_network_devices_total{state="prepared"} 4

netd_network_devices_missing_total:
  - Type: Counter
  - Description: Devices that disappeared from the kernel link cache

Registry Metrics:

netd_network_handles_total:
  - Type: Gauge
  - Description: Live Network Handles held by the registry

netd_network_registry_swept_total:
  - Type: Counter
  - Description: Expired weak references swept from the registry

NAT Metrics:

netd_nat_allocated / netd_nat_free:
  - Type: Gauge
  - Description: NAT pool offsets currently allocated / free

netd_nat_exhausted_total:
  - Type: Counter
  - Description: Allocation attempts that failed with ResourceNotAvailable

TC Programming Metrics:

netd_tc_class_install_duration_seconds:
  - Type: Histogram
  - Description: Time to install a TC class tree on one device

netd_tc_class_install_retries_total:
  - Type: Counter
  - Description: CreateTC delete+recreate retries

netd_refresh_devices_duration_seconds:
  - Type: Histogram
  - Description: Time for one RefreshDevices pass

Netlink Facade Metrics:

netd_netlink_ops_total{op} / netd_netlink_errors_total{op}:
  - Type: Counter
  - Description: Netlink operations issued / failed, by operation name
  - Labels: op (e.g. "link_add", "qdisc_add", "class_replace")

Worker Metrics:

netd_worker_cycle_duration_seconds:
  - Type: Histogram
  - Description: Duration of one watchdog cycle

netd_worker_cycles_total / netd_worker_cycle_failures_total:
  - Type: Counter
  - Description: Watchdog cycles completed / cycles that re-raised work-pending

netd_containers_queued:
  - Type: Gauge
  - Description: Containers currently waiting in net_state=Queued

# Usage

Updating Gauge Metrics:

	import "github.com/corenet/netd/pkg/metrics"

	metrics.NetworkDevicesTotal.WithLabelValues("prepared").Set(4)
	metrics.NATFree.Set(float64(pool.Free()))

Updating Counter Metrics:

	metrics.NetlinkErrorsTotal.WithLabelValues("class_replace").Inc()

Recording Histogram Observations:

	timer := metrics.NewTimer()
	// ... install TC class tree ...
	timer.ObserveDuration(metrics.TCClassInstallDuration)

Complete Example:

	package main

	import (
		"net/http"
		"github.com/corenet/netd/pkg/metrics"
	)

	func main() {
		http.Handle("/metrics", metrics.Handler())
		http.ListenAndServe(":9090", nil)
	}

# Integration Points

This package integrates with:

  - pkg/network: records device/NAT/TC/netlink metrics
  - pkg/reconciler: tracks watchdog cycle duration and failures
  - Prometheus: scrapes /metrics endpoint

# Design Patterns

Package Init Registration:
  - All metrics registered in init() function
  - MustRegister panics on duplicate registration
  - No runtime registration needed

Label Discipline:
  - Labels bounded to operation name or device state, never device name
    or container ID (unbounded cardinality)

Timer Pattern:
  - Create timer at operation start
  - Defer or explicitly call ObserveDuration

Global Metrics:
  - Package-level variables, accessible from any netd package
  - Thread-safe concurrent updates

# Troubleshooting

Missing Metrics:
  - Check metric registered in init(), MustRegister called once

High Cardinality:
  - Device-name or container-ID labels are a bug — aggregate by state
    or group instead (see netd_network_devices_total{state})

# Monitoring

Device Health:
  - Not prepared (managed or not): netd_network_devices_total{state="unprepared"}
  - Missing rate: rate(netd_network_devices_missing_total[5m])

NAT Pool:
  - Exhaustion rate: rate(netd_nat_exhausted_total[5m])
  - Remaining capacity: netd_nat_free / (netd_nat_free + netd_nat_allocated)

Worker Health:
  - Cycle latency: histogram_quantile(0.95, netd_worker_cycle_duration_seconds_bucket)
  - Failure rate: rate(netd_worker_cycle_failures_total[5m])

# Alerting Rules

NAT Pool Near Exhaustion:
  - Alert: netd_nat_free < 5
  - Action: expand nat_count or investigate leaked allocations

Worker Cycle Failures:
  - Alert: rate(netd_worker_cycle_failures_total[10m]) > 0
  - Action: check netlink errors by operation, kernel qdisc drift

# See Also

  - Prometheus documentation: https://prometheus.io/docs/
  - Prometheus client library: https://github.com/prometheus/client_golang
*/
package metrics
