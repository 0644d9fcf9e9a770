package metrics

import "time"

// DeviceSource reports discovered devices grouped by state (e.g. "prepared",
// "unprepared", "missing").
type DeviceSource interface {
	DeviceCounts() map[string]int
}

// RegistrySource reports the number of Network Handles currently live in
// the registry.
type RegistrySource interface {
	HandleCount() int
}

// NATSource reports NAT pool occupancy.
type NATSource interface {
	Allocated() int
	Free() int
}

// QueueSource reports containers waiting for network setup.
type QueueSource interface {
	QueuedCount() int
}

// Collector samples gauge-shaped state from the network subsystem on a
// fixed interval. Counters and histograms (netlink ops, TC install time,
// worker cycles) are recorded inline by their owning code instead, since
// they are events rather than point-in-time state.
type Collector struct {
	devices  DeviceSource
	registry RegistrySource
	nat      NATSource
	queue    QueueSource
	stopCh   chan struct{}
}

// NewCollector creates a new metrics collector over the given sources.
// Any source may be nil, in which case its metrics are left untouched.
func NewCollector(devices DeviceSource, registry RegistrySource, nat NATSource, queue QueueSource) *Collector {
	return &Collector{
		devices:  devices,
		registry: registry,
		nat:      nat,
		queue:    queue,
		stopCh:   make(chan struct{}),
	}
}

// Start begins collecting metrics on a background goroutine.
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		c.collect()

		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	c.collectDeviceMetrics()
	c.collectRegistryMetrics()
	c.collectNATMetrics()
	c.collectQueueMetrics()
}

func (c *Collector) collectDeviceMetrics() {
	if c.devices == nil {
		return
	}
	for state, count := range c.devices.DeviceCounts() {
		NetworkDevicesTotal.WithLabelValues(state).Set(float64(count))
	}
}

func (c *Collector) collectRegistryMetrics() {
	if c.registry == nil {
		return
	}
	NetworkHandlesTotal.Set(float64(c.registry.HandleCount()))
}

func (c *Collector) collectNATMetrics() {
	if c.nat == nil {
		return
	}
	NATAllocated.Set(float64(c.nat.Allocated()))
	NATFree.Set(float64(c.nat.Free()))
}

func (c *Collector) collectQueueMetrics() {
	if c.queue == nil {
		return
	}
	ContainersQueuedTotal.Set(float64(c.queue.QueuedCount()))
}
