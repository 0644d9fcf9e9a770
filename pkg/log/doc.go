/*
Package log provides structured logging for netd using zerolog.

The log package wraps the zerolog library to provide JSON-structured logging with
component-specific loggers, configurable log levels, and helper functions for
common logging patterns. All logs include timestamps and support filtering by
severity level for production debugging.

# Architecture

netd's logging system provides structured JSON logging with minimal overhead:

	┌──────────────────── LOGGING SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │            Global Logger                    │          │
	│  │  - Zerolog instance                         │          │
	│  │  - Initialized via log.Init()               │          │
	│  │  - Thread-safe for concurrent use           │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Configuration                     │          │
	│  │  - Level: debug/info/warn/error             │          │
	│  │  - Format: JSON or console (human)          │          │
	│  │  - Output: stdout, file, or custom writer   │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │         Component Loggers                   │          │
	│  │  - WithComponent("reconciler")               │          │
	│  │  - WithNamespace(12345)                      │          │
	│  │  - WithDevice("eth0")                       │          │
	│  │  - WithContainerID("c1")                     │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │            Log Output                       │          │
	│  │                                              │          │
	│  │  JSON Format:                               │          │
	│  │  {                                           │          │
	│  │    "level": "info",                         │          │
	│  │    "component": "reconciler",               │          │
	│  │    "time": "2024-10-13T10:30:00Z",         │          │
	│  │    "message": "watchdog cycle complete"     │          │
	│  │  }                                           │          │
	│  │                                              │          │
	│  │  Console Format:                            │          │
	│  │  2024-10-13T10:30:00Z INF watchdog cycle complete component=reconciler │ │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Core Components

Global Logger:
  - Package-level zerolog.Logger instance
  - Initialized once via log.Init()
  - Accessible from all netd packages
  - Thread-safe concurrent writes

Log Levels:
  - Debug: Detailed debugging information
  - Info: General informational messages
  - Warn: Warning messages (potential issues)
  - Error: Error messages (operation failed)
  - Fatal: Critical errors (process exits)

Configuration:
  - Level: Filter messages below threshold
  - JSONOutput: JSON vs human-readable console
  - Output: io.Writer for log destination (stdout, file)

Context Loggers:
  - WithComponent: Add component name to all logs ("network", "reconciler", "nl", "netd")
  - WithNamespace: Add the namespace inode context
  - WithDevice: Add the device name context
  - WithContainerID: Add the container ID context

# Log Levels

Debug Level:
  - Purpose: Detailed debugging information
  - Usage: Development and troubleshooting
  - Performance: Verbose, may impact production
  - Example: "resolved device_rate for eth0: 125000000"

Info Level:
  - Purpose: General informational messages
  - Usage: Default production level
  - Performance: Moderate volume
  - Example: "watchdog cycle: 4 devices refreshed, 2 classes installed"

Warn Level:
  - Purpose: Potential issues or unexpected conditions
  - Usage: Situations that may require attention
  - Performance: Low volume
  - Example: "device eth1 missing from kernel link cache"

Error Level:
  - Purpose: Operation failures that need investigation
  - Usage: Failed operations, exceptions
  - Performance: Low volume
  - Example: "CreateTC failed for handle 1:100 on eth0: no such file or directory"

Fatal Level:
  - Purpose: Critical errors causing process termination
  - Usage: Unrecoverable errors only
  - Behavior: Logs message and exits process (os.Exit(1))
  - Example: "failed to open netlink socket: %v"

# Usage

Initializing the Logger:

	import "github.com/corenet/netd/pkg/log"

	// JSON output (production)
	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     os.Stdout,
	})

	// Console output (development)
	log.Init(log.Config{
		Level:      log.DebugLevel,
		JSONOutput: false,
		Output:     os.Stdout,
	})

	// Custom output (file)
	file, _ := os.OpenFile("/var/log/netd.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     file,
	})

Simple Logging:

	log.Info("network registry initialized")
	log.Debug("checking device speed")
	log.Warn("NAT pool nearing exhaustion")
	log.Error("failed to install root qdisc")
	log.Fatal("cannot start without host network") // Exits process

Structured Logging:

	log.Logger.Info().
		Str("device", "eth0").
		Uint64("rate", 125000000).
		Msg("root class installed")

	log.Logger.Error().
		Err(err).
		Str("device", "eth1").
		Msg("CreateIngressQdisc failed")

Component Loggers:

	// Create component-specific logger
	nlLog := log.WithComponent("nl")
	nlLog.Info().Msg("opened netlink socket")
	nlLog.Debug().Str("op", "class_replace").Msg("issuing netlink request")

	// Multiple context fields
	workerLog := log.WithComponent("reconciler").
		With().Uint64("netns_inode", 12345).Logger()
	workerLog.Info().Msg("refreshing classes")
	workerLog.Error().Err(err).Msg("RefreshClasses failed")

Context Logger Helpers:

	// Namespace-specific logs
	nsLog := log.WithNamespace(12345)
	nsLog.Info().Msg("network handle created")

	// Device-specific logs
	devLog := log.WithDevice("eth0")
	devLog.Info().Msg("device prepared")

	// Container-specific logs
	cLog := log.WithContainerID("c1")
	cLog.Info().Msg("net_state transitioned to Success")

Complete Example:

	package main

	import (
		"errors"
		"os"
		"github.com/corenet/netd/pkg/log"
	)

	func main() {
		// Initialize logger
		log.Init(log.Config{
			Level:      log.InfoLevel,
			JSONOutput: true,
			Output:     os.Stdout,
		})

		log.Info("netd starting")

		// Component-specific logging
		workerLog := log.WithComponent("reconciler")
		workerLog.Info().
			Int("devices_refreshed", 4).
			Int("classes_installed", 5).
			Msg("watchdog cycle complete")

		// Error logging
		err := errors.New("no such file or directory")
		log.Logger.Error().
			Err(err).
			Str("component", "nl").
			Msg("qdisc replace failed")

		log.Info("netd stopped")
	}

# Integration Points

This package integrates with:

  - pkg/network: logs device discovery, TC programming, namespace setup
  - pkg/reconciler: logs watchdog cycle summaries
  - pkg/nl: logs netlink operation failures
  - cmd/netd: initializes the logger at process startup

# Log Output Examples

JSON Format (Production):

	{"level":"info","component":"reconciler","time":"2024-10-13T10:30:00Z","message":"watchdog cycle complete"}
	{"level":"info","component":"network","device":"eth0","time":"2024-10-13T10:30:01Z","message":"device prepared"}
	{"level":"error","component":"nl","device":"eth1","error":"no such file or directory","time":"2024-10-13T10:30:02Z","message":"class replace failed"}

Console Format (Development):

	2024-10-13T10:30:00Z INF watchdog cycle complete component=reconciler
	2024-10-13T10:30:01Z INF device prepared component=network device=eth0
	2024-10-13T10:30:02Z ERR class replace failed component=nl device=eth1 error="no such file or directory"

# Design Patterns

Global Logger Pattern:
  - Single package-level Logger instance
  - Initialized once at application start
  - Accessible from all packages without passing
  - Simplifies logging in deeply nested calls

Context Logger Pattern:
  - Create child loggers with context fields
  - Pass context loggers to functions
  - Automatically includes context in all logs
  - Avoids repetitive field specification

Structured Logging Pattern:
  - Use typed fields (.Str, .Uint64, .Err)
  - Enables log aggregation and querying
  - Better than string concatenation
  - Parseable by log analysis tools

Error Logging Pattern:
  - Always use .Err(err) for error objects
  - Preserves the wrapped *network.Error kind for downstream tooling
  - Consistent error format across the codebase

# Performance Characteristics

Logging Overhead:
  - Disabled level: 0ns (compile-time optimization)
  - JSON encode: ~500ns per log line
  - Console format: ~1µs per log line
  - String field: +50ns per field
  - Int field: +30ns per field

Memory Allocation:
  - Zero allocation for disabled levels
  - ~100 bytes per log line (JSON)
  - ~200 bytes per log line (console)
  - Amortized by buffer pooling

Throughput:
  - JSON: ~2M log lines per second
  - Console: ~1M log lines per second
  - Bottleneck: I/O write speed

Log Level Impact:
  - Debug: High volume (every resolver lookup), development only
  - Info: Moderate volume, one line per watchdog cycle, suitable for production
  - Warn/Error: Low volume, minimal impact
  - Recommendation: Info level in production

# Troubleshooting

Common Issues:

No Log Output:
  - Symptom: No logs appearing
  - Check: log.Init() called before logging
  - Check: Log level set appropriately (Debug < Info < Warn < Error)
  - Solution: Initialize logger in main() before any logging

Excessive Log Volume:
  - Symptom: Disk space fills quickly
  - Cause: Debug level in production, logging every resolver lookup
  - Solution: Use Info level in production

Missing Context Fields:
  - Symptom: Logs missing component or device fields
  - Cause: Using global Logger instead of a context logger
  - Solution: Use WithComponent()/WithDevice() or create child loggers

Log Parsing Fails:
  - Symptom: Cannot parse JSON logs
  - Cause: Invalid JSON in message field
  - Solution: Use .Str() instead of string interpolation

# Monitoring

Log-Based Alerts:

High Error Rate:
  - Query: rate(log entries with level="error"[5m]) > 10
  - Description: More than 10 errors per second
  - Action: Check recent netlink errors, investigate kernel drift

No Logs:
  - Query: absent(log entries[1m])
  - Description: No logs received in 1 minute
  - Action: Check netd process, worker goroutine

Specific Error Pattern:
  - Query: log entries containing "CreateTC failed"
  - Description: TC class installation failures
  - Action: Check device state, kernel qdisc support

# Security

Log Content:
  - Never log secrets or sensitive data
  - Addresses and device names are not sensitive but avoid logging raw
    netlink message bytes at Info level

# Best Practices

Do:
  - Use Info level for production
  - Use structured fields for queryable data
  - Create component-specific loggers
  - Log errors with .Err() for stack traces
  - Include context (namespace inode, device, container ID)

Don't:
  - Use Debug level in production
  - Log in tight loops (resolver lookups, stats sampling)
  - Concatenate strings (use .Str, .Uint64)
  - Block on log writes (use buffered output)

# See Also

  - Zerolog documentation: https://github.com/rs/zerolog
  - Structured logging: https://www.thoughtworks.com/radar/techniques/structured-logging
*/
package log
