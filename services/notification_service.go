package services

import (
	"context"
	"time"

	"manuscript-workflow/models"
	"manuscript-workflow/notify"
	"manuscript-workflow/repositories"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type NotificationService interface {
	// Notify records the notification and hands it to every sink. Failures
	// are logged and never surface to the workflow operation that caused them.
	Notify(ctx context.Context, n models.Notification)
	List(ctx context.Context, actor models.Actor, limit int) ([]models.Notification, error)
}

// DefaultDeliveryTimeout bounds how long a workflow operation waits for the
// sinks. Slower deliveries finish in the background.
const DefaultDeliveryTimeout = 2 * time.Second

type notificationService struct {
	repo    repositories.NotificationRepository
	sinks   []notify.Sink
	timeout time.Duration
}

func NewNotificationService(repo repositories.NotificationRepository, sinks ...notify.Sink) NotificationService {
	return &notificationService{repo: repo, sinks: sinks, timeout: DefaultDeliveryTimeout}
}

func (s *notificationService) Notify(ctx context.Context, n models.Notification) {
	if n.EventID == "" {
		n.EventID = uuid.NewString()
	}
	if n.Severity == "" {
		n.Severity = models.SeverityInfo
	}
	// Delivery outlives a cancelled request; the state change already happened.
	ctx = context.WithoutCancel(ctx)

	log := logrus.WithContext(ctx).WithField("event_id", n.EventID)
	if err := s.repo.Create(ctx, &n); err != nil {
		log.WithError(err).WithField("title", n.Title).Warn("notification not recorded")
	}

	var g errgroup.Group
	for _, sink := range s.sinks {
		sink := sink
		g.Go(func() error {
			if err := sink.Deliver(ctx, n); err != nil {
				log.WithError(err).WithField("sink", sink.Name()).Warn("notification delivery failed")
			}
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()
	timer := time.NewTimer(s.timeout)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
		log.WithField("waited", s.timeout).Warn("notification delivery still running")
	}
}

func (s *notificationService) List(ctx context.Context, actor models.Actor, limit int) ([]models.Notification, error) {
	return s.repo.ListFor(ctx, actor, limit)
}

func manuscriptRef(m *models.Manuscript) *uint {
	id := m.ID
	return &id
}
