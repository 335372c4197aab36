package healthcheck

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Probe reports whether one dependency is reachable.
type Probe func(ctx context.Context) error

// Checker probes the service's dependencies (database, cache) and keeps the
// last known status of each.
type Checker struct {
	mu          sync.RWMutex
	probes      map[string]Probe
	names       []string
	status      map[string]*Status
	interval    time.Duration
	timeout     time.Duration
	maxFailures int
	logger      *zap.Logger
	now         func() time.Time
	stopChan    chan struct{}
	running     bool
}

// Holds health checker configuration
type Config struct {
	Interval    time.Duration // How often Start re-checks (default: 30s)
	Timeout     time.Duration // Per-probe timeout (default: 2s)
	MaxFailures int           // Failures before marking unhealthy (default: 1)
	Logger      *zap.Logger
	Clock       func() time.Time
}

func NewChecker(cfg Config) *Checker {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	return &Checker{
		probes:      make(map[string]Probe),
		status:      make(map[string]*Status),
		interval:    cfg.Interval,
		timeout:     cfg.Timeout,
		maxFailures: cfg.MaxFailures,
		logger:      cfg.Logger,
		now:         cfg.Clock,
		stopChan:    make(chan struct{}),
	}
}

// Register adds a named dependency. Dependencies start out healthy.
func (c *Checker) Register(name string, probe Probe) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.probes[name]; !exists {
		c.names = append(c.names, name)
	}
	c.probes[name] = probe
	c.status[name] = &Status{Name: name, IsHealthy: true, LastCheck: c.now()}
}

// Begins periodic health checks
func (c *Checker) Start() {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	c.running = true
	c.mu.Unlock()

	c.logger.Info("starting dependency health checks",
		zap.Int("dependencies", len(c.names)),
		zap.Duration("interval", c.interval))

	go func() {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.CheckAll(context.Background())
			case <-c.stopChan:
				return
			}
		}
	}()
}

// Stops the health checker
func (c *Checker) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		close(c.stopChan)
		c.running = false
	}
}

// CheckAll runs every probe concurrently and returns the resulting overall
// health.
func (c *Checker) CheckAll(ctx context.Context) HealthStatus {
	c.mu.RLock()
	probes := make(map[string]Probe, len(c.probes))
	for name, probe := range c.probes {
		probes[name] = probe
	}
	c.mu.RUnlock()

	var wg sync.WaitGroup
	for name, probe := range probes {
		wg.Add(1)
		go func(name string, probe Probe) {
			defer wg.Done()
			c.check(ctx, name, probe)
		}(name, probe)
	}
	wg.Wait()

	return c.OverallHealth()
}

func (c *Checker) check(ctx context.Context, name string, probe Probe) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := probe(ctx); err != nil {
		c.recordFailure(name, err)
		return
	}
	c.recordSuccess(name)
}

// Records a successful health check
func (c *Checker) recordSuccess(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	status := c.status[name]
	status.LastCheck = now
	status.LastSuccess = now
	status.LastError = ""
	status.FailureCount = 0

	if !status.IsHealthy {
		c.logger.Info("dependency is healthy again", zap.String("dependency", name))
		status.IsHealthy = true
	}
}

// Records a failed health check
func (c *Checker) recordFailure(name string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	status := c.status[name]
	status.LastCheck = now
	status.LastFailure = now
	status.LastError = err.Error()
	status.FailureCount++

	if status.IsHealthy && status.FailureCount >= c.maxFailures {
		c.logger.Warn("dependency is unhealthy",
			zap.String("dependency", name),
			zap.Int("failures", status.FailureCount),
			zap.Error(err))
		status.IsHealthy = false
	}
}

// Return the health status of a specific dependency
func (c *Checker) GetStatus(name string) *Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if status, exists := c.status[name]; exists {
		statusCopy := *status
		return &statusCopy
	}

	return nil
}

// Returns health status of every dependency
func (c *Checker) GetAllStatus() map[string]*Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	statusMap := make(map[string]*Status, len(c.status))
	for name, status := range c.status {
		statusCopy := *status
		statusMap[name] = &statusCopy
	}

	return statusMap
}

// Returns the overall health status
func (c *Checker) OverallHealth() HealthStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	healthyCount := 0
	for _, status := range c.status {
		if status.IsHealthy {
			healthyCount++
		}
	}

	if len(c.status) > 0 && healthyCount == 0 {
		return Unhealthy
	}
	if healthyCount < len(c.status) {
		return Degraded
	}

	return Healthy
}
