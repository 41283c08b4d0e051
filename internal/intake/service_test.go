package intake_test

import (
	"context"
	"errors"
	"testing"

	"mitrabot/backend/internal/models"
	"mitrabot/backend/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestFailedProcessingLeavesRedeliveryFresh(t *testing.T) {
	store := &MockStorage{}
	svc, notifier, _ := newTestService(t, store)

	expectUser(store)
	store.On("IncompleteComplaints", uint(1)).Return(nil, errors.New("connection reset")).Once()
	store.On("IncompleteComplaints", uint(1)).Return([]models.Complaint{}, nil).Once()
	store.On("CreateComplaint", mock.AnythingOfType("*models.Complaint")).Return(nil)

	// First delivery dies inside the transaction; the message id must not
	// be burned.
	_, err := svc.HandleMessage(context.Background(), inbound("Hello", "text"))
	require.Error(t, err)
	assert.Empty(t, store.Marked)
	assert.Empty(t, notifier.Templates)

	// The channel redelivers the same id; this attempt must be processed.
	result, err := svc.HandleMessage(context.Background(), inbound("Hello", "text"))
	require.NoError(t, err)
	assert.False(t, result.Duplicate)
	assert.Equal(t, "New complaint initiated", result.Message)
	assert.Equal(t, []string{"wamid.test-1"}, store.Marked)
	store.AssertExpectations(t)
}

func TestSuccessfulProcessingMarksMessage(t *testing.T) {
	store := &MockStorage{}
	svc, _, _ := newTestService(t, store)

	expectUser(store)
	store.On("IncompleteComplaints", uint(1)).Return([]models.Complaint{}, nil)
	store.On("CreateComplaint", mock.AnythingOfType("*models.Complaint")).Return(nil)

	_, err := svc.HandleMessage(context.Background(), inbound("Hello", "text"))
	require.NoError(t, err)
	assert.Equal(t, []string{"wamid.test-1"}, store.Marked)
}

func TestMessageWithoutIDIsNeverMarked(t *testing.T) {
	store := &MockStorage{}
	svc, _, _ := newTestService(t, store)

	expectUser(store)
	store.On("IncompleteComplaints", uint(1)).Return([]models.Complaint{}, nil)
	store.On("CreateComplaint", mock.AnythingOfType("*models.Complaint")).Return(nil)

	in := inbound("Hello", "text")
	in.MessageID = ""

	_, err := svc.HandleMessage(context.Background(), in)
	require.NoError(t, err)
	assert.Empty(t, store.Marked)
}

func TestFailedSendKeepsCommittedTransition(t *testing.T) {
	store := &MockStorage{}
	svc, notifier, _ := newTestService(t, store)
	notifier.FailSends = true

	expectUser(store)
	store.On("IncompleteComplaints", uint(1)).Return([]models.Complaint{fixtureComplaint(models.PhaseLocation)}, nil)
	var saved models.Complaint
	captureSave(store, &saved)

	result, err := svc.HandleMessage(context.Background(), inbound("Submit ✅", "interactive"))
	require.NoError(t, err)

	// The transition committed and is reported even though every outbound
	// send was refused.
	assert.Equal(t, models.PhaseCompleted, result.Phase)
	assert.Equal(t, models.PhaseCompleted, saved.Phase)
	require.Len(t, notifier.Texts, 1)
	assert.Equal(t, []string{"wamid.test-1"}, store.Marked)
}

func TestSenderLockErrorPropagates(t *testing.T) {
	store := &MockStorage{LockErr: storage.ErrSenderBusy}
	svc, notifier, _ := newTestService(t, store)

	_, err := svc.HandleMessage(context.Background(), inbound("Hello", "text"))
	assert.ErrorIs(t, err, storage.ErrSenderBusy)
	assert.Empty(t, notifier.Texts)
	assert.Empty(t, store.Marked)
	store.AssertNotCalled(t, "FirstOrCreateUser", mock.Anything, mock.Anything)
}
