package storage

import (
	"context"
	"errors"
	"log"
	"time"

	"mitrabot/backend/internal/models"

	"github.com/dchest/uniuri"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// ErrSenderBusy is returned when the per-sender lock cannot be acquired
// before the wait deadline. The gateway will redeliver the event.
var ErrSenderBusy = errors.New("sender is being processed by another delivery")

const (
	slugLength         = 10
	slugCreateAttempts = 5

	senderLockWait = 3 * time.Second
	senderLockTTL  = 15 * time.Second
	lockPollPause  = 50 * time.Millisecond

	// processedRetention bounds how long redelivered message ids are
	// remembered. WhatsApp retries well within this window.
	processedRetention = 48 * time.Hour
)

// Storage is the persistence boundary of the intake service: user and
// complaint records in PostgreSQL, plus the redis-backed per-sender lock and
// redelivery guard.
type Storage interface {
	GetUserByMobile(mobile string) (*models.User, error)
	FirstOrCreateUser(mobile, name string) (*models.User, error)
	DeleteUserAndComplaints(userID uint) (int64, error)

	CreateComplaint(complaint *models.Complaint) error
	SaveComplaint(complaint *models.Complaint) error
	DeleteComplaint(id uint) error
	DeleteIncompleteComplaints(userID uint) (int64, error)
	IncompleteComplaints(userID uint) ([]models.Complaint, error)
	LatestComplaint(userID uint) (*models.Complaint, error)

	Transaction(fn func(Storage) error) error

	AcquireSenderLock(ctx context.Context, mobile string) (func(), error)
	IsMessageProcessed(ctx context.Context, messageID string) (bool, error)
	MarkMessageProcessed(ctx context.Context, messageID string) error
}

// Service implements Storage over PostgreSQL and Redis.
type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
	Ctx   context.Context
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
		Ctx:   context.Background(),
	}
}

// GetUserByMobile looks a user up by mobile number. A missing user is a
// (nil, nil) result, not an error.
func (s *Service) GetUserByMobile(mobile string) (*models.User, error) {
	var user models.User
	err := s.DB.Where("mobile = ?", mobile).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		log.Printf("ERROR: Failed to look up user %s: %v", mobile, err)
		return nil, err
	}
	return &user, nil
}

// FirstOrCreateUser returns the existing user for a mobile number or creates
// one with a fresh public slug. Slug collisions are retried with a new slug.
func (s *Service) FirstOrCreateUser(mobile, name string) (*models.User, error) {
	var lastErr error
	for attempt := 0; attempt < slugCreateAttempts; attempt++ {
		var user models.User
		defaults := models.User{
			Mobile: mobile,
			Name:   name,
			Slug:   uniuri.NewLen(slugLength),
			Role:   "USER",
		}
		result := s.DB.Where("mobile = ?", mobile).FirstOrCreate(&user, defaults)
		if result.Error == nil {
			if result.RowsAffected > 0 {
				log.Printf("INFO: New user %s saved to database (slug: %s).", mobile, user.Slug)
			}
			return &user, nil
		}
		lastErr = result.Error
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			continue
		}
		break
	}
	log.Printf("ERROR: Failed to save user %s on first contact: %v", mobile, lastErr)
	return nil, lastErr
}

// DeleteUserAndComplaints removes a user and every complaint they own.
// Returns the number of complaints deleted. Complaints go first because of
// the foreign key reference.
func (s *Service) DeleteUserAndComplaints(userID uint) (int64, error) {
	var deleted int64
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		result := tx.Unscoped().Where("user_id = ?", userID).Delete(&models.Complaint{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected
		return tx.Unscoped().Delete(&models.User{}, userID).Error
	})
	if err != nil {
		log.Printf("ERROR: Failed to purge user %d: %v", userID, err)
		return 0, err
	}
	return deleted, nil
}

func (s *Service) CreateComplaint(complaint *models.Complaint) error {
	if complaint.Phase == "" {
		complaint.Phase = models.PhaseInit
	}
	if err := s.DB.Create(complaint).Error; err != nil {
		log.Printf("ERROR: Failed to create complaint for user %d: %v", complaint.UserID, err)
		return err
	}
	return nil
}

func (s *Service) SaveComplaint(complaint *models.Complaint) error {
	return s.DB.Save(complaint).Error
}

// DeleteComplaint hard-deletes a single complaint.
func (s *Service) DeleteComplaint(id uint) error {
	return s.DB.Unscoped().Delete(&models.Complaint{}, id).Error
}

// DeleteIncompleteComplaints hard-deletes every non-COMPLETED complaint a
// user owns and returns how many were removed. Deleting zero rows is not an
// error, so the reset command stays idempotent.
func (s *Service) DeleteIncompleteComplaints(userID uint) (int64, error) {
	result := s.DB.Unscoped().
		Where("user_id = ? AND phase <> ?", userID, models.PhaseCompleted).
		Delete(&models.Complaint{})
	if result.Error != nil {
		log.Printf("ERROR: Failed to delete incomplete complaints for user %d: %v", userID, result.Error)
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// IncompleteComplaints returns a user's non-COMPLETED complaints ordered by
// creation time, oldest first. The caller picks the active one.
func (s *Service) IncompleteComplaints(userID uint) ([]models.Complaint, error) {
	var complaints []models.Complaint
	err := s.DB.
		Where("user_id = ? AND phase <> ?", userID, models.PhaseCompleted).
		Order("created_at asc").
		Find(&complaints).Error
	if err != nil {
		log.Printf("ERROR: Failed to list incomplete complaints for user %d: %v", userID, err)
		return nil, err
	}
	return complaints, nil
}

// LatestComplaint returns the user's most recently created complaint in any
// phase, terminal or not. Media uploads target this record.
func (s *Service) LatestComplaint(userID uint) (*models.Complaint, error) {
	var complaint models.Complaint
	err := s.DB.
		Where("user_id = ?", userID).
		Order("created_at desc").
		First(&complaint).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		log.Printf("ERROR: Failed to find latest complaint for user %d: %v", userID, err)
		return nil, err
	}
	return &complaint, nil
}

// Transaction runs fn against a Storage bound to a database transaction.
// Redis-backed methods keep working inside fn but are not transactional.
func (s *Service) Transaction(fn func(Storage) error) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		return fn(&Service{DB: tx, Redis: s.Redis, Ctx: s.Ctx})
	})
}

// AcquireSenderLock serializes processing per sender. It spins on a redis
// SET NX keyed by mobile number until the lock is taken or the wait deadline
// passes. The TTL bounds how long a crashed holder can block the sender.
func (s *Service) AcquireSenderLock(ctx context.Context, mobile string) (func(), error) {
	key := "lock:sender:" + mobile
	token := uuid.New().String()
	deadline := time.Now().Add(senderLockWait)

	for {
		ok, err := s.Redis.SetNX(ctx, key, token, senderLockTTL).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, ErrSenderBusy
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockPollPause):
		}
	}

	release := func() {
		if err := unlockScript.Run(s.Ctx, s.Redis, []string{key}, token).Err(); err != nil {
			log.Printf("ERROR: Failed to release sender lock for %s: %v", mobile, err)
		}
	}
	return release, nil
}

// unlockScript deletes the lock key only while it still holds our token.
// Compare and delete must be one atomic step: if the lock expired and was
// re-acquired in between, a plain GET/DEL pair would release the new
// holder's lock.
var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`)

// IsMessageProcessed reports whether a channel message id has already been
// fully processed. Only marked ids count; a delivery that failed mid-way
// stays unmarked so the channel's retry is applied.
func (s *Service) IsMessageProcessed(ctx context.Context, messageID string) (bool, error) {
	n, err := s.Redis.Exists(ctx, "processed:"+messageID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MarkMessageProcessed records a fully processed channel message id. Callers
// invoke it only after the event's effects have committed.
func (s *Service) MarkMessageProcessed(ctx context.Context, messageID string) error {
	return s.Redis.Set(ctx, "processed:"+messageID, "1", processedRetention).Err()
}
