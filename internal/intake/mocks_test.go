package intake_test

import (
	"context"
	"sync"

	"mitrabot/backend/internal/models"
	"mitrabot/backend/internal/storage"

	"github.com/stretchr/testify/mock"
)

// MockStorage is a testify mock of the storage.Storage interface. The lock
// and dedupe methods are plain implementations with override knobs so every
// test doesn't have to set expectations for them.
type MockStorage struct {
	mock.Mock

	LockErr           error
	DuplicateDelivery bool
	Marked            []string
}

func (m *MockStorage) GetUserByMobile(mobile string) (*models.User, error) {
	args := m.Called(mobile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStorage) FirstOrCreateUser(mobile, name string) (*models.User, error) {
	args := m.Called(mobile, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStorage) DeleteUserAndComplaints(userID uint) (int64, error) {
	args := m.Called(userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStorage) CreateComplaint(complaint *models.Complaint) error {
	args := m.Called(complaint)
	return args.Error(0)
}

func (m *MockStorage) SaveComplaint(complaint *models.Complaint) error {
	args := m.Called(complaint)
	return args.Error(0)
}

func (m *MockStorage) DeleteComplaint(id uint) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockStorage) DeleteIncompleteComplaints(userID uint) (int64, error) {
	args := m.Called(userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStorage) IncompleteComplaints(userID uint) ([]models.Complaint, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Complaint), args.Error(1)
}

func (m *MockStorage) LatestComplaint(userID uint) (*models.Complaint, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Complaint), args.Error(1)
}

// Transaction runs fn against the mock itself; tests assert on the calls
// made inside it.
func (m *MockStorage) Transaction(fn func(storage.Storage) error) error {
	return fn(m)
}

func (m *MockStorage) AcquireSenderLock(ctx context.Context, mobile string) (func(), error) {
	if m.LockErr != nil {
		return nil, m.LockErr
	}
	return func() {}, nil
}

func (m *MockStorage) IsMessageProcessed(ctx context.Context, messageID string) (bool, error) {
	return m.DuplicateDelivery, nil
}

func (m *MockStorage) MarkMessageProcessed(ctx context.Context, messageID string) error {
	m.Marked = append(m.Marked, messageID)
	return nil
}

// SentText and SentTemplate record one outbound delivery each.
type SentText struct {
	Mobile  string
	Message string
}

type SentTemplate struct {
	Mobile     string
	TemplateID string
}

// MockNotifier records every send instead of talking to the gateway.
type MockNotifier struct {
	mu        sync.Mutex
	Texts     []SentText
	Templates []SentTemplate
	FailSends bool
}

func (n *MockNotifier) SendText(mobile, message string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Texts = append(n.Texts, SentText{Mobile: mobile, Message: message})
	return !n.FailSends
}

func (n *MockNotifier) SendTemplate(mobile, templateID string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Templates = append(n.Templates, SentTemplate{Mobile: mobile, TemplateID: templateID})
	return !n.FailSends
}

// MockUploader returns a canned public URL or error.
type MockUploader struct {
	URL   string
	Err   error
	Calls int
}

func (u *MockUploader) Rehost(ctx context.Context, fileRef, fileType string) (string, error) {
	u.Calls++
	if u.Err != nil {
		return "", u.Err
	}
	return u.URL, nil
}
