package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/eeeflix-contacts/internal/models"
	appErrors "github.com/noah-isme/eeeflix-contacts/pkg/errors"
	"github.com/noah-isme/eeeflix-contacts/pkg/export"
	"github.com/noah-isme/eeeflix-contacts/pkg/storage"
)

// Export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

type contactLister interface {
	List(ctx context.Context) ([]models.Contact, string, error)
}

type exportStorage interface {
	Save(name string, data []byte) (string, error)
	Path(name string) (string, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type urlSigner interface {
	Sign(name string) (string, time.Time, error)
	Verify(token string) (string, time.Time, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult describes a rendered export.
type ExportResult struct {
	Name      string
	Token     string
	URL       string
	Format    string
	Records   int
	ExpiresAt time.Time
}

// ExportFile locates a rendered export for download.
type ExportFile struct {
	Path        string
	Name        string
	ContentType string
}

// ExportService renders the contact directory to CSV or PDF.
type ExportService struct {
	contacts  contactLister
	storage   exportStorage
	signer    urlSigner
	renderers map[string]export.Renderer
	logger    *zap.Logger
	cfg       ExportConfig
	now       func() time.Time
}

// NewExportService constructs an ExportService with the CSV and PDF renderers.
func NewExportService(contacts contactLister, store exportStorage, signer urlSigner, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = time.Hour
	}
	return &ExportService{
		contacts: contacts,
		storage:  store,
		signer:   signer,
		renderers: map[string]export.Renderer{
			ExportFormatCSV: export.NewCSVExporter(),
			ExportFormatPDF: export.NewPDFExporter(30, 60, 100),
		},
		logger: logger,
		cfg:    cfg,
		now:    time.Now,
	}
}

// Generate renders every contact in the requested format and returns a signed download link.
func (s *ExportService) Generate(ctx context.Context, format string) (*ExportResult, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	contacts, _, err := s.contacts.List(ctx)
	if err != nil {
		return nil, err
	}
	payload, err := renderer.Render(contactDataset(contacts))
	if err != nil {
		return nil, appErrors.ErrInternal.Because(err, "failed to render export")
	}

	name := fmt.Sprintf("contacts_%s.%s", s.now().UTC().Format("20060102T150405.000"), renderer.Extension())
	if _, err := s.storage.Save(name, payload); err != nil {
		return nil, appErrors.ErrInternal.Because(err, "failed to store export")
	}
	token, expiresAt, err := s.signer.Sign(name)
	if err != nil {
		return nil, appErrors.ErrInternal.Because(err, "failed to sign export")
	}

	s.logger.Info("contact export generated", zap.String("file", name), zap.String("format", format), zap.Int("records", len(contacts)))
	return &ExportResult{
		Name:      name,
		Token:     token,
		URL:       fmt.Sprintf("%s/exports/%s", strings.TrimRight(s.cfg.APIPrefix, "/"), token),
		Format:    format,
		Records:   len(contacts),
		ExpiresAt: expiresAt,
	}, nil
}

// Resolve verifies a download token and locates the file it names.
func (s *ExportService) Resolve(token string) (*ExportFile, error) {
	name, _, err := s.signer.Verify(token)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, appErrors.ErrNotFound.Because(err, "export link expired")
		}
		return nil, appErrors.ErrForbidden.Because(err, "invalid export link")
	}
	path, err := s.storage.Path(name)
	if err != nil {
		return nil, appErrors.ErrForbidden.Because(err, "invalid export link")
	}
	contentType := "application/octet-stream"
	for _, r := range s.renderers {
		if strings.HasSuffix(name, "."+r.Extension()) {
			contentType = r.ContentType()
		}
	}
	return &ExportFile{Path: path, Name: name, ContentType: contentType}, nil
}

// Cleanup removes exports older than the result TTL.
func (s *ExportService) Cleanup() (int, error) {
	deleted, err := s.storage.CleanupOlderThan(s.cfg.ResultTTL)
	if err != nil {
		return 0, err
	}
	if len(deleted) > 0 {
		s.logger.Info("expired exports removed", zap.Int("count", len(deleted)))
	}
	return len(deleted), nil
}

func contactDataset(contacts []models.Contact) export.Dataset {
	rows := make([][]string, 0, len(contacts))
	for _, c := range contacts {
		rows = append(rows, []string{strconv.Itoa(c.No), c.ContactNo, c.FBLink})
	}
	return export.Dataset{
		Title:   "EEEFLIX Student Contacts",
		Headers: []string{models.ContactFieldNo, models.ContactFieldPhone, models.ContactFieldFBLink},
		Rows:    rows,
	}
}
