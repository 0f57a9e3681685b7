package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/eeeflix-contacts/internal/dto"
	"github.com/noah-isme/eeeflix-contacts/internal/models"
	appErrors "github.com/noah-isme/eeeflix-contacts/pkg/errors"
)

const (
	contactCacheKey     = "contacts:store"
	contactCachePattern = "contacts:*"
)

// Update modes used for metrics and logs.
const (
	ModeSingle = "single"
	ModeBulk   = "bulk"
)

// Success messages of the update endpoint.
const (
	msgAllUpdated = "All students updated successfully"
	msgOneUpdated = "Student %s updated successfully"
)

type contactStore interface {
	Replace(ctx context.Context, contacts []models.Contact) error
	Raw(ctx context.Context) ([]byte, error)
}

type backupScheduler interface {
	Schedule(ctx context.Context, snapshot []byte) error
}

// ContactServiceOptions carries optional collaborators and behaviour switches.
type ContactServiceOptions struct {
	// RejectUnknownID turns an update for a missing student into a 404
	// instead of a successful no-op.
	RejectUnknownID bool
	Cache           *CacheService
	CacheTTL        time.Duration
	Metrics         *MetricsService
	Backups         backupScheduler
}

// StoreSnapshot is the serialized store together with its revision.
type StoreSnapshot struct {
	Raw      []byte
	Revision string
	Cached   bool
}

// UpdateResult describes a completed update.
type UpdateResult struct {
	Message  string
	Mode     string
	Changed  bool
	Revision string
}

// ContactService implements reads and updates of the contact store.
type ContactService struct {
	store     contactStore
	validator *validator.Validate
	logger    *zap.Logger
	opts      ContactServiceOptions

	// mu serializes read-modify-write cycles on the store.
	mu sync.Mutex
}

// NewContactService constructs the contact service.
func NewContactService(store contactStore, validate *validator.Validate, logger *zap.Logger, opts ContactServiceOptions) *ContactService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContactService{store: store, validator: validate, logger: logger, opts: opts}
}

// Revision returns the opaque revision of a serialized store.
func Revision(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// RevisionMatches compares an If-Match header value with a revision. Quoted,
// weak and wildcard forms are accepted.
func RevisionMatches(ifMatch, revision string) bool {
	for _, candidate := range strings.Split(ifMatch, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" {
			return true
		}
		candidate = strings.TrimPrefix(candidate, "W/")
		if strings.Trim(candidate, `"`) == revision {
			return true
		}
	}
	return false
}

// Snapshot returns the serialized store, served from cache when possible.
func (s *ContactService) Snapshot(ctx context.Context) (*StoreSnapshot, error) {
	if raw, hit := s.opts.Cache.Get(ctx, contactCacheKey); hit {
		return &StoreSnapshot{Raw: raw, Revision: Revision(raw), Cached: true}, nil
	}
	raw, err := s.readRaw(ctx)
	if err != nil {
		return nil, appErrors.ErrInternal.Because(err, "failed to read contacts")
	}
	s.opts.Cache.Set(ctx, contactCacheKey, raw, s.opts.CacheTTL)
	return &StoreSnapshot{Raw: raw, Revision: Revision(raw)}, nil
}

// List returns every contact in store order with the store revision.
func (s *ContactService) List(ctx context.Context) ([]models.Contact, string, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, "", err
	}
	contacts, err := models.UnmarshalContacts(snap.Raw)
	if err != nil {
		return nil, "", appErrors.ErrInternal.Because(err, "failed to parse contacts")
	}
	s.opts.Metrics.SetStoreSize(len(contacts))
	return contacts, snap.Revision, nil
}

// Search filters and paginates contacts.
func (s *ContactService) Search(ctx context.Context, query models.ContactQuery) ([]models.Contact, *models.Pagination, error) {
	contacts, _, err := s.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	page, meta := models.Paginate(models.FilterContacts(contacts, query.Search), query.Page, query.PageSize)
	return page, &meta, nil
}

// Get returns the contact with the given student id.
func (s *ContactService) Get(ctx context.Context, no int) (*models.Contact, error) {
	contacts, _, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	idx := models.IndexOf(contacts, no)
	if idx < 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("Student %d not found", no))
	}
	contact := contacts[idx]
	return &contact, nil
}

// Apply dispatches an update request: a bulk replace when updateAll is set
// with a list, otherwise a single-record patch when studentId is set.
func (s *ContactService) Apply(ctx context.Context, req dto.UpdateContactsRequest, ifMatch string) (*UpdateResult, error) {
	switch {
	case req.IsBulk():
		return s.ReplaceAll(ctx, req.AllStudents, ifMatch)
	case req.IsSingle():
		var result *UpdateResult
		var err error
		if req.StudentRef != "" {
			result, err = s.patchNothing(ctx, req.Student(), ifMatch)
		} else {
			result, err = s.UpdateOne(ctx, req.StudentID, req.ContactNo, req.FBLink, ifMatch)
		}
		if err != nil {
			return nil, err
		}
		if req.UpdateAll {
			result.Message = msgAllUpdated
		}
		return result, nil
	default:
		return nil, appErrors.ErrInvalidRequest
	}
}

// UpdateOne replaces the phone and facebook link of one student. Other
// records are written back unchanged.
func (s *ContactService) UpdateOne(ctx context.Context, no int, contactNo, fbLink, ifMatch string) (*UpdateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, contacts, err := s.loadForWrite(ctx, ModeSingle, ifMatch)
	if err != nil {
		return nil, err
	}

	if models.IndexOf(contacts, no) < 0 {
		return s.unmatched(strconv.Itoa(no), Revision(raw))
	}
	for i := range contacts {
		if contacts[i].No == no {
			contacts[i].SetContactInfo(contactNo, fbLink)
		}
	}

	revision, err := s.write(ctx, ModeSingle, raw, contacts)
	if err != nil {
		return nil, err
	}
	s.logger.Info("contact updated", zap.Int("student_id", no))
	return &UpdateResult{Message: fmt.Sprintf(msgOneUpdated, strconv.Itoa(no)), Mode: ModeSingle, Changed: true, Revision: revision}, nil
}

// patchNothing answers a single-record patch whose studentId no record can carry.
func (s *ContactService) patchNothing(ctx context.Context, student, ifMatch string) (*UpdateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, _, err := s.loadForWrite(ctx, ModeSingle, ifMatch)
	if err != nil {
		return nil, err
	}
	return s.unmatched(student, Revision(raw))
}

func (s *ContactService) unmatched(student, revision string) (*UpdateResult, error) {
	if s.opts.RejectUnknownID {
		s.opts.Metrics.RecordContactUpdate(ModeSingle, OutcomeRejected)
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("Student %s not found", student))
	}
	s.logger.Info("contact update for unknown student ignored", zap.String("student_id", student))
	s.opts.Metrics.RecordContactUpdate(ModeSingle, OutcomeNoop)
	return &UpdateResult{Message: fmt.Sprintf(msgOneUpdated, student), Mode: ModeSingle, Revision: revision}, nil
}

// ReplaceAll overwrites the store with contacts, in the given order.
func (s *ContactService) ReplaceAll(ctx context.Context, contacts []models.Contact, ifMatch string) (*UpdateResult, error) {
	if err := s.validateAll(contacts); err != nil {
		s.opts.Metrics.RecordContactUpdate(ModeBulk, OutcomeRejected)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	raw, _, err := s.loadForWrite(ctx, ModeBulk, ifMatch)
	if err != nil {
		return nil, err
	}
	revision, err := s.write(ctx, ModeBulk, raw, contacts)
	if err != nil {
		return nil, err
	}
	s.logger.Info("contact store replaced", zap.Int("records", len(contacts)))
	return &UpdateResult{Message: msgAllUpdated, Mode: ModeBulk, Changed: true, Revision: revision}, nil
}

// Invalidate drops cached store snapshots.
func (s *ContactService) Invalidate(ctx context.Context) {
	s.opts.Cache.Invalidate(ctx, contactCachePattern)
}

// Validate checks a full contact list the way a bulk update would.
func (s *ContactService) Validate(contacts []models.Contact) error {
	return s.validateAll(contacts)
}

func (s *ContactService) validateAll(contacts []models.Contact) error {
	seen := make(map[int]struct{}, len(contacts))
	for i, c := range contacts {
		if err := s.validator.Struct(c); err != nil {
			return appErrors.Invalid("record %d: invalid student id %d", i, c.No)
		}
		if _, dup := seen[c.No]; dup {
			return appErrors.Invalid("record %d: duplicate student id %d", i, c.No)
		}
		seen[c.No] = struct{}{}
	}
	return nil
}

func (s *ContactService) loadForWrite(ctx context.Context, mode, ifMatch string) ([]byte, []models.Contact, error) {
	raw, err := s.readRaw(ctx)
	if err != nil {
		return nil, nil, s.updateFailed(mode, err)
	}
	if ifMatch != "" && !RevisionMatches(ifMatch, Revision(raw)) {
		s.opts.Metrics.RecordContactUpdate(mode, OutcomeConflict)
		return nil, nil, appErrors.ErrPreconditionFailed
	}
	contacts, err := models.UnmarshalContacts(raw)
	if err != nil {
		return nil, nil, s.updateFailed(mode, err)
	}
	return raw, contacts, nil
}

func (s *ContactService) write(ctx context.Context, mode string, previous []byte, contacts []models.Contact) (string, error) {
	if s.opts.Backups != nil {
		if err := s.opts.Backups.Schedule(ctx, previous); err != nil {
			s.logger.Warn("contact backup not scheduled", zap.Error(err))
		}
	}

	start := time.Now()
	err := s.store.Replace(ctx, contacts)
	s.opts.Metrics.ObserveStoreOp("write", time.Since(start))
	if err != nil {
		return "", s.updateFailed(mode, err)
	}
	s.Invalidate(ctx)
	s.opts.Metrics.RecordContactUpdate(mode, OutcomeSuccess)
	s.opts.Metrics.SetStoreSize(len(contacts))

	written, err := models.MarshalContacts(contacts)
	if err != nil {
		s.logger.Warn("revision of written store unavailable", zap.Error(err))
		return "", nil
	}
	return Revision(written), nil
}

func (s *ContactService) readRaw(ctx context.Context) ([]byte, error) {
	start := time.Now()
	raw, err := s.store.Raw(ctx)
	s.opts.Metrics.ObserveStoreOp("read", time.Since(start))
	return raw, err
}

func (s *ContactService) updateFailed(mode string, err error) error {
	s.logger.Error("contact update failed", zap.String("mode", mode), zap.Error(err))
	s.opts.Metrics.RecordContactUpdate(mode, OutcomeFailure)
	return appErrors.ErrUpdateFailed.Because(err, "")
}
