package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/eeeflix-contacts/pkg/jobs"
	"github.com/noah-isme/eeeflix-contacts/pkg/storage"
)

// JobTypeContactBackup is the queue job type that persists a store snapshot.
const JobTypeContactBackup = "contacts.backup"

const backupPrefix = "contacts_"

type jobQueue interface {
	Register(jobType string, handler jobs.Handler)
	Enqueue(jobType string, payload []byte) (string, error)
}

type backupStorage interface {
	Save(name string, data []byte) (string, error)
	Read(name string) ([]byte, error)
	List(prefix string) ([]storage.Object, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// BackupService keeps timestamped copies of the store taken before each write.
type BackupService struct {
	queue     jobQueue
	storage   backupStorage
	metrics   *MetricsService
	logger    *zap.Logger
	retention time.Duration
	now       func() time.Time
}

// NewBackupService wires the backup job handler onto queue. With a nil queue
// snapshots are written synchronously.
func NewBackupService(queue jobQueue, store backupStorage, metrics *MetricsService, logger *zap.Logger, retention time.Duration) *BackupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &BackupService{
		queue:     queue,
		storage:   store,
		metrics:   metrics,
		logger:    logger,
		retention: retention,
		now:       time.Now,
	}
	if queue != nil {
		queue.Register(JobTypeContactBackup, s.handle)
	}
	return s
}

// Schedule hands snapshot to the queue.
func (s *BackupService) Schedule(ctx context.Context, snapshot []byte) error {
	if s.queue == nil {
		_, err := s.Write(snapshot)
		return err
	}
	payload := append([]byte(nil), snapshot...)
	id, err := s.queue.Enqueue(JobTypeContactBackup, payload)
	if err != nil {
		s.metrics.RecordBackup(false)
		return fmt.Errorf("enqueue contact backup: %w", err)
	}
	s.logger.Debug("contact backup queued", zap.String("job_id", id))
	return nil
}

// Write stores snapshot under a timestamped name.
func (s *BackupService) Write(snapshot []byte) (string, error) {
	name := backupPrefix + s.now().UTC().Format("20060102T150405.000000000") + ".json"
	if _, err := s.storage.Save(name, snapshot); err != nil {
		s.metrics.RecordBackup(false)
		return "", err
	}
	s.metrics.RecordBackup(true)
	return name, nil
}

// List returns backups newest first.
func (s *BackupService) List() ([]storage.Object, error) {
	return s.storage.List(backupPrefix)
}

// Read returns the content of one backup.
func (s *BackupService) Read(name string) ([]byte, error) {
	return s.storage.Read(name)
}

// Cleanup deletes backups older than the retention period.
func (s *BackupService) Cleanup() (int, error) {
	if s.retention <= 0 {
		return 0, nil
	}
	deleted, err := s.storage.CleanupOlderThan(s.retention)
	if err != nil {
		return 0, err
	}
	if len(deleted) > 0 {
		s.logger.Info("old contact backups removed", zap.Int("count", len(deleted)))
	}
	return len(deleted), nil
}

// RunCleanup calls Cleanup every interval until ctx is done.
func (s *BackupService) RunCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Cleanup(); err != nil {
				s.logger.Warn("contact backup cleanup failed", zap.Error(err))
			}
		}
	}
}

func (s *BackupService) handle(_ context.Context, job jobs.Job) error {
	name, err := s.Write(job.Payload)
	if err != nil {
		return err
	}
	s.logger.Info("contact backup written", zap.String("job_id", job.ID), zap.String("file", name))
	return nil
}
