package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/imdcare/ward/internal/platform/blobstore"
	"github.com/imdcare/ward/internal/platform/notification"
	"github.com/imdcare/ward/internal/report"
)

// ArchivePrefix is the key prefix for archived exports.
const ArchivePrefix = "reports/"

var (
	ErrGenerate            = errors.New("failed to generate PDF report")
	ErrGenerateSpreadsheet = errors.New("failed to generate spreadsheet report")
	ErrArchiveDisabled     = errors.New("export archive is not configured")
)

// Result is a rendered export.
type Result struct {
	FileName    string
	ContentType string
	Data        []byte
	Archived    *blobstore.ObjectInfo
}

type Exporter struct {
	title    string
	archive  blobstore.Store
	bucket   string
	notifier notification.Notifier
	logger   zerolog.Logger
	now      func() time.Time
	render   map[Format]func(io.Writer, Document) error
}

func NewExporter(title string, logger zerolog.Logger) *Exporter {
	return &Exporter{
		title:    title,
		notifier: notification.Nop{},
		logger:   logger.With().Str("component", "export").Logger(),
		now:      time.Now,
		render: map[Format]func(io.Writer, Document) error{
			FormatPDF:  RenderPDF,
			FormatXLSX: RenderXLSX,
		},
	}
}

// SetArchive stores every successful export under ArchivePrefix. bucket is
// only used to label notices.
func (e *Exporter) SetArchive(store blobstore.Store, bucket string) {
	e.archive = store
	e.bucket = bucket
}

func (e *Exporter) SetNotifier(n notification.Notifier) {
	e.notifier = n
}

// Export renders res fully in memory. Archiving and notification failures
// are logged and do not fail the export.
func (e *Exporter) Export(ctx context.Context, res report.Filtered, format Format) (*Result, error) {
	now := e.now()
	doc := NewDocument(e.title, res, now)

	render, ok := e.render[format]
	if !ok {
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
	var buf bytes.Buffer
	if err := render(&buf, doc); err != nil {
		e.logger.Error().Err(err).
			Str("format", string(format)).
			Str("period", res.Filter.Range.String()).
			Msg("export failed")
		if format == FormatXLSX {
			return nil, fmt.Errorf("%w: %v", ErrGenerateSpreadsheet, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrGenerate, err)
	}

	out := &Result{
		FileName:    FileName(format, now),
		ContentType: format.ContentType(),
		Data:        buf.Bytes(),
	}
	e.logger.Info().
		Str("file", out.FileName).
		Str("tab", string(res.Filter.Tab)).
		Str("period", res.Filter.Range.String()).
		Int("bytes", len(out.Data)).
		Msg("report exported")

	if e.archive != nil {
		e.store(ctx, out, format, res.Filter.Range)
	}
	return out, nil
}

func (e *Exporter) store(ctx context.Context, out *Result, format Format, r report.DateRange) {
	key := ArchivePrefix + out.FileName
	info, err := e.archive.Put(ctx, key, out.ContentType, out.Data)
	if err != nil {
		e.logger.Error().Err(err).Str("key", key).Msg("archive export failed")
		return
	}
	out.Archived = info

	n := notification.Notice{
		Bucket:     e.bucket,
		Key:        key,
		Format:     string(format),
		Period:     r.String(),
		UploadedAt: info.CreatedAt,
	}
	if err := e.notifier.Notify(ctx, n); err != nil {
		e.logger.Warn().Err(err).Str("key", key).Msg("export notice failed")
	}
}

// Archived lists archived exports, newest first.
func (e *Exporter) Archived(ctx context.Context) ([]*blobstore.ObjectInfo, error) {
	if e.archive == nil {
		return nil, ErrArchiveDisabled
	}
	return e.archive.List(ctx, ArchivePrefix)
}

// Open returns an archived export by file name.
func (e *Exporter) Open(ctx context.Context, name string) (io.ReadCloser, *blobstore.ObjectInfo, error) {
	if e.archive == nil {
		return nil, nil, ErrArchiveDisabled
	}
	return e.archive.Get(ctx, ArchivePrefix+name)
}
