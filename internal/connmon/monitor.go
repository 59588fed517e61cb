// Package connmon observes network reachability and quality. Its judgement
// is the sole admission gate for starting new downloads.
package connmon

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/cesargomez89/versecache/internal/constants"
	"github.com/cesargomez89/versecache/internal/domain"
	"github.com/cesargomez89/versecache/internal/events"
	"github.com/cesargomez89/versecache/internal/logger"
)

// TransportProbe reports whether the OS sees some network transport. It says
// nothing about whether the transport actually reaches the upstream; captive
// portals and DNS-only links still count as "present" here.
type TransportProbe interface {
	HasTransport() bool
	// Changes delivers transport transitions. May return nil when the
	// platform offers no notifications; the poll loop covers that case.
	Changes() <-chan bool
}

type Monitor struct {
	probe    TransportProbe
	hub      *events.Hub
	logger   *logger.Logger
	client   *http.Client
	probeURL string

	// Poll intervals, overridable before Start for tests.
	TransportPollInterval time.Duration
	QualityCheckInterval  time.Duration

	info   domain.ConnectionInfo
	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(probe TransportProbe, probeURL string, hub *events.Hub, log *logger.Logger) *Monitor {
	ctx, cancel := context.WithCancel(context.Background())

	if log == nil {
		log = logger.Default()
	}

	return &Monitor{
		probe:                 probe,
		probeURL:              probeURL,
		hub:                   hub,
		logger:                log.WithComponent("connmon"),
		client:                &http.Client{Timeout: constants.ProbeTimeout},
		TransportPollInterval: constants.TransportPollInterval,
		QualityCheckInterval:  constants.QualityCheckInterval,
		ctx:                   ctx,
		cancel:                cancel,
		info: domain.ConnectionInfo{
			Quality: domain.QualityUnknown,
		},
	}
}

func (m *Monitor) Start() {
	m.logger.Info("Starting connection monitor")

	m.checkTransport()
	m.checkQuality(m.ctx)

	m.wg.Add(1)
	go m.run()
}

func (m *Monitor) Stop() {
	m.logger.Info("Stopping connection monitor")
	m.cancel()
	m.wg.Wait()
}

// Info returns the current connection snapshot.
func (m *Monitor) Info() domain.ConnectionInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.info
}

// SuitableForDownloads reports whether the queue may start new work:
// online with excellent or good quality.
func (m *Monitor) SuitableForDownloads() bool {
	return m.Info().SuitableForDownloads()
}

func (m *Monitor) run() {
	defer m.wg.Done()

	transportTicker := time.NewTicker(m.TransportPollInterval)
	defer transportTicker.Stop()
	qualityTicker := time.NewTicker(m.QualityCheckInterval)
	defer qualityTicker.Stop()

	changes := m.probe.Changes()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-changes:
			m.checkTransport()
		case <-transportTicker.C:
			// Safety net against missed notifications
			m.checkTransport()
		case <-qualityTicker.C:
			m.checkQuality(m.ctx)
		}
	}
}

// checkTransport folds the OS-level signal into the online flag. A forced
// offline state (repeated probe failures) overrides a present transport.
func (m *Monitor) checkTransport() {
	hasTransport := m.probe.HasTransport()

	m.mu.Lock()
	prev := m.info
	if !hasTransport {
		m.info.Online = false
	} else if !m.info.ForcedOffline {
		m.info.Online = true
	}
	info := m.info
	m.mu.Unlock()

	m.publishTransitions(prev, info)
}

// checkQuality times one GET against the probe endpoint and classifies the
// round trip. Errors are folded into the failure counter, never returned.
func (m *Monitor) checkQuality(ctx context.Context) {
	if !m.Info().Online && !m.probe.HasTransport() {
		return
	}

	elapsed, ok := m.measureProbe(ctx)

	m.mu.Lock()
	prev := m.info
	m.info.LastProbeAt = time.Now()

	if !ok {
		m.info.ConsecFails++
		m.info.Quality = domain.QualityPoor
		if m.info.ConsecFails >= constants.MaxProbeFailures {
			// Transport present but nothing answers: captive portal or
			// DNS-only connectivity
			m.info.ForcedOffline = true
			m.info.Online = false
		}
	} else {
		m.info.ConsecFails = 0
		if m.info.ForcedOffline {
			m.info.ForcedOffline = false
			m.info.Online = true
		}
		m.info.Quality = classifyLatency(elapsed)
	}

	info := m.info
	m.mu.Unlock()

	if !ok {
		m.logger.Debug("Probe failed", "consecutive_failures", info.ConsecFails)
	}

	m.publishTransitions(prev, info)
}

func (m *Monitor) measureProbe(ctx context.Context) (time.Duration, bool) {
	probeCtx, cancel := context.WithTimeout(ctx, constants.ProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, m.probeURL, nil)
	if err != nil {
		return 0, false
	}

	start := time.Now()
	resp, err := m.client.Do(req)
	if err != nil {
		return 0, false
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, false
	}
	return time.Since(start), true
}

func (m *Monitor) publishTransitions(prev, current domain.ConnectionInfo) {
	if m.hub == nil {
		return
	}

	changed := false
	if prev.Online != current.Online {
		m.logger.Info("Connectivity changed", "online", current.Online, "forced_offline", current.ForcedOffline)
		m.hub.Publish(events.Event{Kind: events.KindOnline, Online: current.Online})
		changed = true
	}
	if prev.Quality != current.Quality {
		m.logger.Info("Quality changed", "quality", current.Quality)
		m.hub.Publish(events.Event{Kind: events.KindQuality, Quality: current.Quality})
		changed = true
	}
	if changed {
		snapshot := current
		m.hub.Publish(events.Event{Kind: events.KindConnection, Connection: &snapshot})
	}
}

func classifyLatency(elapsed time.Duration) domain.Quality {
	switch {
	case elapsed < constants.LatencyExcellent:
		return domain.QualityExcellent
	case elapsed < constants.LatencyGood:
		return domain.QualityGood
	case elapsed < constants.LatencyFair:
		return domain.QualityFair
	default:
		return domain.QualityPoor
	}
}
