package submission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"viralpik/internal/catalog"
	"viralpik/internal/models"
	"viralpik/internal/observability"
)

// DefaultNotifyTimeout bounds the enrichment call made after a submission.
const DefaultNotifyTimeout = 10 * time.Second

// UploadResult is the URL pair returned by object storage.
type UploadResult struct {
	AssetURL     string `json:"assetUrl"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

// ProgressFunc receives bytes sent so far and the total.
type ProgressFunc func(sent, total int64)

// Uploader stores one file.
type Uploader interface {
	Upload(ctx context.Context, f *File, progress ProgressFunc) (UploadResult, error)
}

// AssetWriter inserts the asset row.
type AssetWriter interface {
	CreateAsset(ctx context.Context, asset *models.Asset) (*models.Asset, error)
}

// Notifier asks for background enrichment of a stored asset.
type Notifier interface {
	Enrich(ctx context.Context, assetID uint) error
}

// Actor is the signed-in user submitting the asset.
type Actor struct {
	UserID  uint
	IsAdmin bool
}

// InitialStatus is approved for admins when self-approval is enabled and
// pending for everyone else.
func InitialStatus(isAdmin, selfApproval bool) models.AssetStatus {
	if isAdmin && selfApproval {
		return models.AssetStatusApproved
	}
	return models.AssetStatusPending
}

// Flow runs submission attempts. A Flow holds the state of the most recent
// attempt and is safe for use by one caller at a time.
type Flow struct {
	uploader Uploader
	writer   AssetWriter
	notifier Notifier
	catalog  *catalog.Catalog

	selfApproval  bool
	notifyTimeout time.Duration

	// OnState, when set, observes every transition.
	OnState func(State)
	// OnProgress, when set, receives upload progress for the main file and the preview.
	OnProgress func(file string, sent, total int64)

	mu    sync.Mutex
	state State
	gate  string
}

// Option configures a Flow.
type Option func(*Flow)

// WithCatalog validates platform and asset type and supplies default dimensions.
func WithCatalog(c *catalog.Catalog) Option {
	return func(f *Flow) { f.catalog = c }
}

// WithSelfApproval controls whether admin uploads skip moderation.
func WithSelfApproval(enabled bool) Option {
	return func(f *Flow) { f.selfApproval = enabled }
}

// WithNotifyTimeout bounds the best-effort enrichment call.
func WithNotifyTimeout(d time.Duration) Option {
	return func(f *Flow) { f.notifyTimeout = d }
}

// NewFlow builds a Flow. notifier may be nil.
func NewFlow(uploader Uploader, writer AssetWriter, notifier Notifier, opts ...Option) *Flow {
	f := &Flow{
		uploader:      uploader,
		writer:        writer,
		notifier:      notifier,
		catalog:       catalog.Default(),
		selfApproval:  true,
		notifyTimeout: DefaultNotifyTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// State returns the state reached by the last attempt.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// GateReason returns the user-visible reason of a Rejected or Blocked attempt.
func (f *Flow) GateReason() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gate
}

func (f *Flow) set(s State) {
	f.mu.Lock()
	f.state = s
	f.mu.Unlock()
	if f.OnState != nil {
		f.OnState(s)
	}
}

func (f *Flow) setGate(reason string) {
	f.mu.Lock()
	f.gate = reason
	f.mu.Unlock()
}

func (f *Flow) fail(ctx context.Context, step string, err error) error {
	f.set(Failed)
	observability.AssetSubmissions.WithLabelValues("failed").Inc()
	observability.GlobalLogger.WarnContext(ctx, "asset submission failed", slog.String("step", step), slog.String("error", err.Error()))
	// Objects uploaded before the failure stay in storage.
	return fmt.Errorf("%s: %w", step, err)
}

// Submit validates d, uploads its files, inserts the asset and fires the
// enrichment notification. Validation failures return *RejectedError or
// *BlockedError without any remote call.
func (f *Flow) Submit(ctx context.Context, actor Actor, d Draft) (*models.Asset, error) {
	f.setGate("")
	f.set(Idle)
	if actor.UserID == 0 {
		return nil, errors.New("submission requires a signed-in creator")
	}
	if d.Main != nil {
		f.set(FileSelected)
	}

	plan, err := Validate(d, f.catalog)
	if err != nil {
		var rejected *RejectedError
		var blocked *BlockedError
		switch {
		case errors.As(err, &rejected):
			f.setGate(rejected.Reason)
			f.set(Rejected)
			observability.AssetSubmissions.WithLabelValues("rejected").Inc()
		case errors.As(err, &blocked):
			f.setGate(blocked.Reason)
			f.set(Blocked)
			observability.AssetSubmissions.WithLabelValues("blocked").Inc()
		}
		return nil, err
	}
	f.set(Validated)

	f.set(UploadingMain)
	main, err := f.uploader.Upload(ctx, d.Main, f.progress(d.Main.Name))
	if err != nil {
		return nil, f.fail(ctx, "upload file", err)
	}
	previewURL := main.ThumbnailURL
	if plan.PreviewDataURL != "" {
		previewURL = plan.PreviewDataURL
	}

	if d.Preview != nil && len(d.Preview.Data) > 0 {
		f.set(UploadingPreview)
		pv, err := f.uploader.Upload(ctx, d.Preview, f.progress(d.Preview.Name))
		if err != nil {
			return nil, f.fail(ctx, "upload preview", err)
		}
		previewURL = pv.AssetURL
	}

	f.set(Persisting)
	asset := &models.Asset{
		Title:       d.Title,
		Description: d.Description,
		Platform:    d.Platform,
		AssetType:   d.AssetType,
		Tags:        plan.Tags,
		FileURL:     main.AssetURL,
		PreviewURL:  previewURL,
		FileSize:    d.Main.Size(),
		Format:      plan.Format,
		Status:      InitialStatus(actor.IsAdmin, f.selfApproval),
		Price:       plan.Price,
		IsPremium:   plan.IsPremium,
		IsPack:      plan.IsPack,
		CreatorID:   actor.UserID,
	}
	if dims, ok := InferDimensions(d, f.catalog); ok {
		asset.SetDimensions(dims)
	}

	created, err := f.writer.CreateAsset(ctx, asset)
	if err != nil {
		return nil, f.fail(ctx, "save asset", err)
	}
	f.set(Succeeded)
	observability.AssetSubmissions.WithLabelValues(string(created.Status)).Inc()

	BestEffortNotify(ctx, f.notifier, created.ID, f.notifyTimeout)
	return created, nil
}

func (f *Flow) progress(name string) ProgressFunc {
	if f.OnProgress == nil {
		return nil
	}
	return func(sent, total int64) { f.OnProgress(name, sent, total) }
}

// BestEffortNotify requests enrichment on a detached goroutine. It returns
// immediately; the outcome is logged and counted only.
func BestEffortNotify(ctx context.Context, n Notifier, assetID uint, timeout time.Duration) {
	if n == nil || assetID == 0 {
		return
	}
	if timeout <= 0 {
		timeout = DefaultNotifyTimeout
	}
	observability.RunBestEffort(ctx, "enrich_notify", timeout,
		map[string]interface{}{"asset_id": assetID},
		func(ctx context.Context) error { return n.Enrich(ctx, assetID) })
}
