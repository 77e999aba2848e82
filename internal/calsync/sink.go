package calsync

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// Sink is an external calendar.
type Sink interface {
	Create(ctx context.Context, e CalendarEntry) (externalID string, err error)
	Update(ctx context.Context, externalID string, e CalendarEntry) error
	Delete(ctx context.Context, externalID string) error
}

// LogSink writes calendar changes to a logger instead of a remote
// calendar. It is the sink used when no calendar is configured.
type LogSink struct {
	Log logrus.FieldLogger

	mu  sync.Mutex
	seq int
}

// NewLogSink returns a LogSink writing to log.
func NewLogSink(log logrus.FieldLogger) *LogSink {
	return &LogSink{Log: log}
}

func (s *LogSink) Create(_ context.Context, e CalendarEntry) (string, error) {
	s.mu.Lock()
	s.seq++
	s.mu.Unlock()
	id := "log-" + e.EventID
	s.fields(e).WithField("external_id", id).Info("calendar entry created")
	return id, nil
}

func (s *LogSink) Update(_ context.Context, externalID string, e CalendarEntry) error {
	s.fields(e).WithField("external_id", externalID).Info("calendar entry updated")
	return nil
}

func (s *LogSink) Delete(_ context.Context, externalID string) error {
	s.Log.WithField("external_id", externalID).Info("calendar entry deleted")
	return nil
}

// Created returns how many entries the sink has created.
func (s *LogSink) Created() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

func (s *LogSink) fields(e CalendarEntry) logrus.FieldLogger {
	return s.Log.WithFields(logrus.Fields{
		"event_id": e.EventID,
		"summary":  e.Summary,
		"start":    e.Start.Format("2006-01-02 15:04"),
		"end":      e.End.Format("2006-01-02 15:04"),
		"color":    e.ColorID,
	})
}
