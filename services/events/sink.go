package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/customeros/mailsort/dto"
	"github.com/customeros/mailsort/interfaces"
	"github.com/customeros/mailsort/internal/enum"
	"github.com/customeros/mailsort/internal/logger"
	"github.com/customeros/mailsort/internal/models"
)

const publishTimeout = 30 * time.Second

// NewEvent stamps a message with the current time.
func NewEvent(severity enum.Severity, format string, args ...interface{}) dto.Event {
	return dto.Event{
		Timestamp: time.Now(),
		Severity:  severity,
		Message:   fmt.Sprintf(format, args...),
	}
}

// ChannelSink forwards engine output to channels. Sends never block: when
// a consumer falls behind, events and progress updates are dropped.
type ChannelSink struct {
	Events  chan dto.Event
	Updates chan dto.ProgressUpdate
	Reports chan models.SessionReport
}

func NewChannelSink(buffer int) *ChannelSink {
	return &ChannelSink{
		Events:  make(chan dto.Event, buffer),
		Updates: make(chan dto.ProgressUpdate, buffer),
		Reports: make(chan models.SessionReport, 1),
	}
}

func (s *ChannelSink) Emit(event dto.Event) {
	select {
	case s.Events <- event:
	default:
	}
}

func (s *ChannelSink) Progress(update dto.ProgressUpdate) {
	select {
	case s.Updates <- update:
	default:
	}
}

func (s *ChannelSink) Finish(report models.SessionReport) {
	select {
	case s.Reports <- report:
	default:
	}
}

// LoggingSink mirrors engine events to the application logger.
type LoggingSink struct {
	log logger.Logger
}

func NewLoggingSink(log logger.Logger) *LoggingSink {
	return &LoggingSink{log: log}
}

func (s *LoggingSink) Emit(event dto.Event) {
	fields := []zap.Field{zap.String("severity", event.Severity.String())}
	if event.RunID != "" {
		fields = append(fields, zap.String("runId", event.RunID))
	}
	if event.Folder != "" {
		fields = append(fields, zap.String("folder", event.Folder))
	}
	zl := s.log.Logger()
	switch event.Severity {
	case enum.SeverityDebug:
		zl.Debug(event.Message, fields...)
	case enum.SeverityWarning:
		zl.Warn(event.Message, fields...)
	case enum.SeverityError:
		zl.Error(event.Message, fields...)
	default:
		zl.Info(event.Message, fields...)
	}
}

func (s *LoggingSink) Progress(update dto.ProgressUpdate) {
	s.log.Debugf("[%s] %s: %d/%d processed", update.RunID, update.Folder, update.Processed, update.Total)
}

func (s *LoggingSink) Finish(report models.SessionReport) {
	s.log.Infof("Run %s %s: processed %d/%d, cc moved %d, rules %d, chains %d, errors %d in %s",
		report.RunID, report.Status, report.Stats.Processed, report.Stats.Total, report.Stats.CCMoved,
		report.Stats.RulesApplied, report.Stats.ChainsApplied, report.Stats.Errors, report.Duration())
}

// PublishingSink hands the final report to a message publisher.
type PublishingSink struct {
	publisher interfaces.ReportPublisher
	log       logger.Logger
}

func NewPublishingSink(publisher interfaces.ReportPublisher, log logger.Logger) *PublishingSink {
	return &PublishingSink{publisher: publisher, log: log}
}

func (s *PublishingSink) Emit(dto.Event) {}

func (s *PublishingSink) Progress(dto.ProgressUpdate) {}

func (s *PublishingSink) Finish(report models.SessionReport) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := s.publisher.PublishRunCompleted(ctx, report); err != nil {
		s.log.Errorf("Failed to publish report of run %s: %v", report.RunID, err)
	}
}

// HistorySink keeps the most recent events and the latest progress update.
type HistorySink struct {
	mu       sync.RWMutex
	limit    int
	events   []dto.Event
	progress *dto.ProgressUpdate
	report   *models.SessionReport
}

func NewHistorySink(limit int) *HistorySink {
	if limit <= 0 {
		limit = 100
	}
	return &HistorySink{limit: limit}
}

func (s *HistorySink) Emit(event dto.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	if len(s.events) > s.limit {
		s.events = s.events[len(s.events)-s.limit:]
	}
}

func (s *HistorySink) Progress(update dto.ProgressUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress = &update
}

func (s *HistorySink) Finish(report models.SessionReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.report = &report
}

func (s *HistorySink) Events() []dto.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]dto.Event(nil), s.events...)
}

func (s *HistorySink) LastProgress() *dto.ProgressUpdate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.progress == nil {
		return nil
	}
	progress := *s.progress
	return &progress
}

func (s *HistorySink) Report() *models.SessionReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.report == nil {
		return nil
	}
	report := *s.report
	return &report
}

// MultiSink fans out to every sink in order.
type MultiSink []interfaces.EventSink

func NewMultiSink(sinks ...interfaces.EventSink) MultiSink {
	var multi MultiSink
	for _, sink := range sinks {
		if sink != nil {
			multi = append(multi, sink)
		}
	}
	return multi
}

func (m MultiSink) Emit(event dto.Event) {
	for _, sink := range m {
		sink.Emit(event)
	}
}

func (m MultiSink) Progress(update dto.ProgressUpdate) {
	for _, sink := range m {
		sink.Progress(update)
	}
}

func (m MultiSink) Finish(report models.SessionReport) {
	for _, sink := range m {
		sink.Finish(report)
	}
}
