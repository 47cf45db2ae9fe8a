// Package reliability hosts the engine's operational self-checks: process
// health sampling and the periodic in-flight-order staleness sweep. Neither
// mutates the engine's state; both only ever read snapshots and log or
// audit what they find.
package reliability

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/process"
)

// AlertLevel defines the severity of an alert.
type AlertLevel string

const (
	AlertCritical AlertLevel = "CRITICAL"
	AlertError    AlertLevel = "ERROR"
	AlertWarning  AlertLevel = "WARNING"
	AlertInfo     AlertLevel = "INFO"
)

// Alert is one observation raised by MonitoringService.
type Alert struct {
	Level     AlertLevel
	Component string
	Message   string
	Timestamp time.Time
	Metadata  map[string]interface{}
}

// Thresholds configures when process-health checks raise an alert.
type Thresholds struct {
	CPUPercentWarning  float64
	CPUPercentCritical float64
	RSSBytesWarning    uint64
	RSSBytesCritical   uint64
}

// DefaultThresholds are conservative defaults for a long-running, mostly
// idle single-process engine.
func DefaultThresholds() Thresholds {
	return Thresholds{
		CPUPercentWarning:  70,
		CPUPercentCritical: 95,
		RSSBytesWarning:    1 << 30,     // 1 GiB
		RSSBytesCritical:   2 * (1 << 30), // 2 GiB
	}
}

// MonitoringService samples this process's own resource usage and keeps a
// running list of alerts raised from those samples.
type MonitoringService struct {
	proc       *process.Process
	thresholds Thresholds
	alerts     []Alert
	log        zerolog.Logger
}

// NewMonitoringService builds a MonitoringService bound to the running
// process (os.Getpid()).
func NewMonitoringService(thresholds Thresholds, log zerolog.Logger) (*MonitoringService, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	return &MonitoringService{
		proc:       proc,
		thresholds: thresholds,
		alerts:     make([]Alert, 0),
		log:        log.With().Str("service", "monitoring").Logger(),
	}, nil
}

// ProcessMetrics is one CPU/memory sample of the running process.
type ProcessMetrics struct {
	CPUPercent float64
	RSSBytes   uint64
	SampledAt  time.Time
}

// CollectMetrics samples the process's current CPU percentage and resident
// set size. CPUPercent reflects usage since the previous call (or since
// process start, on the first call).
func (s *MonitoringService) CollectMetrics() (ProcessMetrics, error) {
	cpuPct, err := s.proc.CPUPercent()
	if err != nil {
		return ProcessMetrics{}, err
	}
	memInfo, err := s.proc.MemoryInfo()
	if err != nil {
		return ProcessMetrics{}, err
	}
	return ProcessMetrics{
		CPUPercent: cpuPct,
		RSSBytes:   memInfo.RSS,
		SampledAt:  time.Now(),
	}, nil
}

// CheckProcessHealth samples the process and appends alerts for any
// threshold crossed, then logs and clears whatever it collected.
func (s *MonitoringService) CheckProcessHealth() error {
	metrics, err := s.CollectMetrics()
	if err != nil {
		return err
	}

	switch {
	case metrics.CPUPercent >= s.thresholds.CPUPercentCritical:
		s.addAlert(AlertCritical, "process", "CPU usage critical", map[string]interface{}{
			"cpu_percent": metrics.CPUPercent,
		})
	case metrics.CPUPercent >= s.thresholds.CPUPercentWarning:
		s.addAlert(AlertWarning, "process", "CPU usage elevated", map[string]interface{}{
			"cpu_percent": metrics.CPUPercent,
		})
	}

	switch {
	case metrics.RSSBytes >= s.thresholds.RSSBytesCritical:
		s.addAlert(AlertCritical, "process", "memory usage critical", map[string]interface{}{
			"rss_bytes": metrics.RSSBytes,
		})
	case metrics.RSSBytes >= s.thresholds.RSSBytesWarning:
		s.addAlert(AlertWarning, "process", "memory usage elevated", map[string]interface{}{
			"rss_bytes": metrics.RSSBytes,
		})
	}

	s.processAlerts()
	return nil
}

func (s *MonitoringService) addAlert(level AlertLevel, component, message string, metadata map[string]interface{}) {
	s.alerts = append(s.alerts, Alert{
		Level:     level,
		Component: component,
		Message:   message,
		Timestamp: time.Now(),
		Metadata:  metadata,
	})
}

// processAlerts logs every alert collected since the last call and resets
// the list.
func (s *MonitoringService) processAlerts() {
	if len(s.alerts) == 0 {
		return
	}

	counts := make(map[AlertLevel]int)
	for _, alert := range s.alerts {
		counts[alert.Level]++

		event := s.log.WithLevel(s.alertLevelToZerologLevel(alert.Level)).
			Str("component", alert.Component).
			Str("alert_level", string(alert.Level))
		for key, value := range alert.Metadata {
			event = event.Interface(key, value)
		}
		event.Msg(alert.Message)
	}

	s.log.Info().
		Int("critical", counts[AlertCritical]).
		Int("error", counts[AlertError]).
		Int("warning", counts[AlertWarning]).
		Int("info", counts[AlertInfo]).
		Int("total", len(s.alerts)).
		Msg("alert summary")

	s.alerts = s.alerts[:0]
}

func (s *MonitoringService) alertLevelToZerologLevel(level AlertLevel) zerolog.Level {
	switch level {
	case AlertCritical:
		return zerolog.FatalLevel
	case AlertError:
		return zerolog.ErrorLevel
	case AlertWarning:
		return zerolog.WarnLevel
	default:
		return zerolog.InfoLevel
	}
}

// GetAlerts returns the alerts raised since the last CheckProcessHealth call
// processed and cleared the list.
func (s *MonitoringService) GetAlerts() []Alert {
	return s.alerts
}

// HasCriticalAlerts reports whether any pending alert is AlertCritical.
func (s *MonitoringService) HasCriticalAlerts() bool {
	for _, alert := range s.alerts {
		if alert.Level == AlertCritical {
			return true
		}
	}
	return false
}
