package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"manuscript-workflow/models"
	"manuscript-workflow/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingNotificationRepository struct {
	repositories.NotificationRepository
}

func (failingNotificationRepository) Create(context.Context, *models.Notification) error {
	return errors.New("database unavailable")
}

func TestNotifyPersistsAndFansOut(t *testing.T) {
	db := repositories.NewMemoryDB()
	first, second := &recordingSink{}, &recordingSink{}
	svc := NewNotificationService(repositories.NewMemoryNotificationRepository(db), first, second)

	svc.Notify(context.Background(), models.Notification{
		Title:       "Manuscript published",
		TargetRoles: []models.UserRole{models.RoleAdmin},
	})

	list, err := svc.List(context.Background(), editorActor, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.NotEmpty(t, list[0].EventID)
	assert.Equal(t, models.SeverityInfo, list[0].Severity)

	require.Len(t, first.delivered, 1)
	require.Len(t, second.delivered, 1)
	assert.Equal(t, list[0].EventID, first.delivered[0].EventID)
	assert.Equal(t, list[0].ID, second.delivered[0].ID)
}

func TestNotifyFailuresDoNotPropagate(t *testing.T) {
	broken := &recordingSink{err: errors.New("smtp down")}
	healthy := &recordingSink{}
	svc := NewNotificationService(failingNotificationRepository{}, broken, healthy)

	assert.NotPanics(t, func() {
		svc.Notify(context.Background(), models.Notification{Title: "x", TargetUserIDs: []uint{2}})
	})
	assert.Len(t, broken.delivered, 1)
	assert.Len(t, healthy.delivered, 1)
}

func TestNotifyOutlivesCancelledRequest(t *testing.T) {
	sink := &recordingSink{}
	svc := NewNotificationService(repositories.NewMemoryNotificationRepository(repositories.NewMemoryDB()), sink)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc.Notify(ctx, models.Notification{Title: "late", EventID: "evt-9"})

	require.Len(t, sink.delivered, 1)
	assert.Equal(t, "evt-9", sink.delivered[0].EventID)
}

func TestNotificationFailureDoesNotFailWorkflow(t *testing.T) {
	db := repositories.NewMemoryDB()
	db.PutManuscript(&models.Manuscript{ID: 1, SubmitterID: 2, Status: models.StatusSubmitted})
	sink := &recordingSink{err: errors.New("stream unavailable")}
	notifier := NewNotificationService(failingNotificationRepository{}, sink)
	svc := NewManuscriptService(repositories.NewMemoryManuscriptRepository(db), notifier, Settings{})

	m, err := svc.Transition(context.Background(), editorActor, 1, models.TransitionRequest{Status: models.StatusUnderReview})
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnderReview, m.Status)
	assert.Len(t, sink.delivered, 1)
}

type blockingSink struct {
	release chan struct{}
	done    chan struct{}
}

func (s *blockingSink) Name() string { return "blocking" }

func (s *blockingSink) Deliver(context.Context, models.Notification) error {
	<-s.release
	close(s.done)
	return nil
}

func TestNotifyDoesNotWaitForSlowSink(t *testing.T) {
	slow := &blockingSink{release: make(chan struct{}), done: make(chan struct{})}
	fast := &recordingSink{}
	repo := repositories.NewMemoryNotificationRepository(repositories.NewMemoryDB())
	svc := NewNotificationService(repo, slow, fast).(*notificationService)
	svc.timeout = 20 * time.Millisecond

	returned := make(chan struct{})
	go func() {
		svc.Notify(context.Background(), models.Notification{Title: "Manuscript accepted", TargetUserIDs: []uint{2}})
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(5 * time.Second):
		t.Fatal("Notify blocked on a slow sink")
	}
	assert.Eventually(t, func() bool { return len(fast.titles()) == 1 }, time.Second, 5*time.Millisecond)

	close(slow.release)
	select {
	case <-slow.done:
	case <-time.After(5 * time.Second):
		t.Fatal("slow sink never completed")
	}
}
