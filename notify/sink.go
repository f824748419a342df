// Package notify delivers role-targeted notifications decided by the workflow
// core. Sinks are transports only; what to say and to whom is decided by the
// services package.
package notify

import (
	"context"

	"manuscript-workflow/models"

	"github.com/sirupsen/logrus"
)

type Sink interface {
	Name() string
	Deliver(ctx context.Context, n models.Notification) error
}

// LogSink writes every notification to the structured log.
type LogSink struct {
	Logger logrus.FieldLogger
}

func NewLogSink(logger logrus.FieldLogger) *LogSink {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LogSink{Logger: logger}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Deliver(ctx context.Context, n models.Notification) error {
	s.Logger.WithFields(logrus.Fields{
		"event_id":        n.EventID,
		"title":           n.Title,
		"severity":        n.Severity,
		"target_roles":    n.TargetRoles,
		"target_user_ids": n.TargetUserIDs,
	}).Info("notification")
	return nil
}
