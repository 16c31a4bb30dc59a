package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civic_trust/internal/models"
	"civic_trust/internal/services"
)

func TestRespondErrorStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		err     error
		status  int
		message string
	}{
		{fmt.Errorf("%w: type is required", services.ErrValidation), http.StatusBadRequest, "validation failed: type is required"},
		{fmt.Errorf("%w: report 7", services.ErrNotFound), http.StatusNotFound, "not found: report 7"},
		{fmt.Errorf("%w: incorrect password", services.ErrUnauthorized), http.StatusUnauthorized, "unauthorized: incorrect password"},
		{fmt.Errorf("%w: admin access required", services.ErrForbidden), http.StatusForbidden, "forbidden: admin access required"},
		{fmt.Errorf("%w: email already in use", services.ErrConflict), http.StatusConflict, "conflict: email already in use"},
		{fmt.Errorf("%w: disk full", services.ErrPersistence), http.StatusInternalServerError, "could not save changes, please retry"},
		{errors.New("boom"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			respondError(c, tt.err)
			assert.Equal(t, tt.status, w.Code)
			assert.JSONEq(t, fmt.Sprintf(`{"error":%q}`, tt.message), w.Body.String())
		})
	}
}

func TestToUserResponseHidesAdminFieldsForCitizens(t *testing.T) {
	citizen := toUserResponse(models.User{ID: "u1", Name: "Asha", Role: models.RoleCitizen, AssignedArea: "Ward7", Password: "hash"})
	assert.Empty(t, citizen.AssignedArea)

	admin := toUserResponse(models.User{ID: "a1", Role: models.RoleAdmin, AdminLevel: models.AdminLevelWard, AssignedArea: "Ward7"})
	assert.Equal(t, models.AdminLevelWard, admin.AdminLevel)
	assert.Equal(t, "Ward7", admin.AssignedArea)
}

func TestReportHubPublishAfterClose(t *testing.T) {
	hub := NewReportHub("*")
	hub.Close()
	hub.Close()
	assert.NotPanics(t, func() {
		hub.Publish(services.ReportEvent{Type: services.EventReportCreated})
	})
	assert.Zero(t, hub.ClientCount())
}

// fakeSubscriber blocks in WriteMessage until release is closed, or fails
// every write when failWrites is set.
type fakeSubscriber struct {
	entered    chan struct{}
	release    chan struct{}
	failWrites bool
	writes     atomic.Int32
	closed     atomic.Bool
}

func newFakeSubscriber() *fakeSubscriber {
	return &fakeSubscriber{entered: make(chan struct{}, 1), release: make(chan struct{})}
}

func (f *fakeSubscriber) SetWriteDeadline(time.Time) error { return nil }

func (f *fakeSubscriber) WriteMessage(int, []byte) error {
	f.writes.Add(1)
	select {
	case f.entered <- struct{}{}:
	default:
	}
	if f.failWrites {
		return errors.New("broken pipe")
	}
	<-f.release
	return nil
}

func (f *fakeSubscriber) WriteControl(int, []byte, time.Time) error { return nil }

func (f *fakeSubscriber) Close() error {
	f.closed.Store(true)
	return nil
}

func TestReportHubStaysResponsiveDuringSlowWrite(t *testing.T) {
	hub := NewReportHub("*")
	defer hub.Close()

	slow := newFakeSubscriber()
	defer close(slow.release)
	hub.register(slow, services.Jurisdiction{})

	hub.Publish(services.ReportEvent{Type: services.EventReportCreated})
	select {
	case <-slow.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("event was never written")
	}

	done := make(chan int, 1)
	go func() {
		hub.register(newFakeSubscriber(), services.Jurisdiction{})
		done <- hub.ClientCount()
	}()
	select {
	case n := <-done:
		assert.Equal(t, 2, n)
	case <-time.After(time.Second):
		t.Fatal("register blocked behind a stalled subscriber write")
	}
}

func TestReportHubDropsFailedSubscriber(t *testing.T) {
	hub := NewReportHub("*")
	defer hub.Close()

	broken := newFakeSubscriber()
	broken.failWrites = true
	hub.register(broken, services.Jurisdiction{})
	require.Equal(t, 1, hub.ClientCount())

	hub.Publish(services.ReportEvent{Type: services.EventReportCreated})
	require.Eventually(t, broken.closed.Load, 5*time.Second, 10*time.Millisecond)
	assert.Zero(t, hub.ClientCount())
	assert.Equal(t, int32(1), broken.writes.Load())
}
