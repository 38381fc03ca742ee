package service

import (
	"context"
	"sync"
	"time"

	"github.com/Harshitk-cp/echoform/internal/domain"
	"github.com/Harshitk-cp/echoform/internal/metrics"
	"go.uber.org/zap"
)

const defaultDriftInterval = 1 * time.Minute

// DriftMonitor periodically runs the entropy check and reports when the
// belief system enters or leaves a conflicted state. It never writes.
type DriftMonitor struct {
	store    domain.BeliefStore
	detector *EntropyDetector
	metrics  *metrics.Metrics
	logger   *zap.Logger

	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup

	mu   sync.Mutex
	last domain.EntropyStatus
}

func NewDriftMonitor(bs domain.BeliefStore, detector *EntropyDetector, logger *zap.Logger) *DriftMonitor {
	return &DriftMonitor{
		store:    bs,
		detector: detector,
		logger:   logger,
		interval: defaultDriftInterval,
		stopCh:   make(chan struct{}),
	}
}

func (m *DriftMonitor) SetInterval(d time.Duration) {
	m.interval = d
}

func (m *DriftMonitor) SetMetrics(mt *metrics.Metrics) {
	m.metrics = mt
}

func (m *DriftMonitor) Start() {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		m.logger.Info("drift monitor started", zap.Duration("interval", m.interval))

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				_, _ = m.RunCheck(ctx)
				cancel()
			case <-m.stopCh:
				m.logger.Info("drift monitor stopped")
				return
			}
		}
	}()
}

func (m *DriftMonitor) Stop() {
	close(m.stopCh)
	m.wg.Wait()
}

// RunCheck evaluates the current hypotheses once.
func (m *DriftMonitor) RunCheck(ctx context.Context) (domain.EntropyReport, error) {
	hyps, err := m.store.ListHypotheses(ctx)
	if err != nil {
		m.logger.Error("drift check failed", zap.Error(err))
		return domain.EntropyReport{}, err
	}
	report := m.detector.Check(hyps)

	if m.metrics != nil {
		if report.Status == domain.EntropyUncertainty {
			m.metrics.DriftUncertain.Set(1)
		} else {
			m.metrics.DriftUncertain.Set(0)
		}
	}

	m.mu.Lock()
	changed := m.last != report.Status
	m.last = report.Status
	m.mu.Unlock()

	if changed {
		m.logger.Info("drift status changed",
			zap.String("status", string(report.Status)),
			zap.String("message", report.Message),
			zap.Int("hypotheses", len(hyps)))
	}
	return report, nil
}

// LastStatus returns the status seen by the most recent check.
func (m *DriftMonitor) LastStatus() domain.EntropyStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}
