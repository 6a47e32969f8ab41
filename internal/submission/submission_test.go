package submission

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"viralpik/internal/catalog"
	"viralpik/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	mu    sync.Mutex
	calls []string
	err   error
	errOn string
}

func (u *fakeUploader) Upload(_ context.Context, f *File, progress ProgressFunc) (UploadResult, error) {
	u.mu.Lock()
	u.calls = append(u.calls, f.Name)
	u.mu.Unlock()
	if u.err != nil && (u.errOn == "" || u.errOn == f.Name) {
		return UploadResult{}, u.err
	}
	if progress != nil {
		total := int64(len(f.Data))
		progress(total/2, total)
		progress(total, total)
	}
	return UploadResult{
		AssetURL:     "https://cdn.test/" + f.Name,
		ThumbnailURL: "https://cdn.test/thumb/" + f.Name,
	}, nil
}

type fakeWriter struct {
	created []*models.Asset
	err     error
}

func (w *fakeWriter) CreateAsset(_ context.Context, a *models.Asset) (*models.Asset, error) {
	if w.err != nil {
		return nil, w.err
	}
	a.ID = uint(len(w.created) + 1)
	w.created = append(w.created, a)
	return a, nil
}

type fakeNotifier struct {
	calls atomic.Int32
	block chan struct{}
	err   error
	panic bool
}

func (n *fakeNotifier) Enrich(ctx context.Context, _ uint) error {
	n.calls.Add(1)
	if n.panic {
		panic("enrichment exploded")
	}
	if n.block != nil {
		select {
		case <-n.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return n.err
}

func tags(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = "tag" + string(rune('a'+i))
	}
	return out
}

func pngFile(t *testing.T, name string, w, h int) *File {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return &File{Name: name, ContentType: "image/png", Data: buf.Bytes()}
}

func baseDraft(name string) Draft {
	return Draft{
		Title:     "Neon thumbnail",
		Platform:  models.PlatformYouTube,
		AssetType: "thumbnail",
		Tags:      tags(6),
		IsFree:    true,
		Main:      &File{Name: name, Data: []byte("content")},
	}
}

func newTestFlow(up *fakeUploader, w *fakeWriter, n Notifier) *Flow {
	return NewFlow(up, w, n, WithCatalog(catalog.Default()))
}

func TestValidate_ExtensionGate(t *testing.T) {
	for _, name := range []string{"a.jpg", "a.PNG", "a.gif", "a.webp", "a.txt", "noext", "a.zip.exe"} {
		t.Run(name, func(t *testing.T) {
			up, w := &fakeUploader{}, &fakeWriter{}
			flow := newTestFlow(up, w, nil)

			_, err := flow.Submit(context.Background(), Actor{UserID: 1}, baseDraft(name))
			var rejected *RejectedError
			require.ErrorAs(t, err, &rejected)
			assert.Equal(t, ReasonUnsupportedType, rejected.Reason)
			assert.Equal(t, Rejected, flow.State())
			assert.Empty(t, up.calls)
			assert.Empty(t, w.created)
		})
	}

	for _, name := range []string{"a.psd", "a.SVG", "a.mp4", "a.zip"} {
		_, err := CheckFile(&File{Name: name, Data: []byte("x")})
		assert.NoError(t, err, name)
	}
}

func TestValidate_TagCount(t *testing.T) {
	tests := []struct {
		n     int
		valid bool
	}{{4, false}, {5, true}, {10, true}, {11, false}}
	for _, tt := range tests {
		d := baseDraft("a.mp4")
		d.Tags = tags(tt.n)
		_, err := Validate(d, catalog.Default())
		if tt.valid {
			assert.NoError(t, err, "%d tags", tt.n)
			continue
		}
		var blocked *BlockedError
		require.ErrorAs(t, err, &blocked, "%d tags", tt.n)
		assert.Equal(t, ReasonTagCount, blocked.Reason)
	}
}

func TestNormalizeTags(t *testing.T) {
	got := NormalizeTags([]string{" Gaming", "gaming", "NEON ", "", "retro"})
	assert.Equal(t, models.Tags{"gaming", "neon", "retro"}, got)

	// duplicates do not count toward the minimum
	d := baseDraft("a.mp4")
	d.Tags = []string{"a", "A", "b", "c", "d", "d "}
	_, err := Validate(d, nil)
	var blocked *BlockedError
	assert.ErrorAs(t, err, &blocked)
}

func TestValidate_PackPrice(t *testing.T) {
	tests := []struct {
		price float64
		valid bool
	}{{3.99, false}, {4, true}, {10, true}, {50, true}, {50.01, false}}
	for _, tt := range tests {
		d := baseDraft("pack.zip")
		d.IsFree = false
		d.PackPrice = tt.price
		plan, err := Validate(d, nil)
		if !tt.valid {
			var blocked *BlockedError
			require.ErrorAs(t, err, &blocked, "price %v", tt.price)
			assert.Equal(t, ReasonPackPrice, blocked.Reason)
			continue
		}
		require.NoError(t, err, "price %v", tt.price)
		assert.True(t, plan.IsPack)
		assert.True(t, plan.IsPremium)
		assert.Equal(t, tt.price, plan.Price)
	}

	d := baseDraft("pack.zip")
	d.PackPrice = 999
	plan, err := Validate(d, nil)
	require.NoError(t, err, "free packs ignore the price")
	assert.False(t, plan.IsPremium)
	assert.Zero(t, plan.Price)
}

func TestValidate_RequiredFields(t *testing.T) {
	cases := map[string]func(*Draft){
		ReasonTitleRequired: func(d *Draft) { d.Title = "  " },
		ReasonPlatform:      func(d *Draft) { d.Platform = "" },
		ReasonAssetType:     func(d *Draft) { d.AssetType = "" },
		ReasonUnknownType:   func(d *Draft) { d.AssetType = "sound_effect" },
	}
	for reason, mutate := range cases {
		d := baseDraft("a.mp4")
		mutate(&d)
		_, err := Validate(d, catalog.Default())
		var blocked *BlockedError
		require.ErrorAs(t, err, &blocked, reason)
		assert.Equal(t, reason, blocked.Reason)
	}
}

func TestSubmit_PSDWithoutPreviewIsBlocked(t *testing.T) {
	up, w := &fakeUploader{}, &fakeWriter{}
	flow := newTestFlow(up, w, nil)

	_, err := flow.Submit(context.Background(), Actor{UserID: 3}, baseDraft("layered.psd"))
	var blocked *BlockedError
	require.ErrorAs(t, err, &blocked)
	assert.Equal(t, ReasonPreviewRequired, blocked.Reason)
	assert.Equal(t, Blocked, flow.State())
	assert.Equal(t, ReasonPreviewRequired, flow.GateReason())
	assert.Empty(t, up.calls)
	assert.Empty(t, w.created)
}

func TestSubmit_PSDWithPreview(t *testing.T) {
	up, w := &fakeUploader{}, &fakeWriter{}
	flow := newTestFlow(up, w, nil)

	var states []State
	flow.OnState = func(s State) { states = append(states, s) }
	var progress []string
	flow.OnProgress = func(name string, sent, total int64) {
		progress = append(progress, name)
	}

	d := baseDraft("layered.psd")
	d.Preview = pngFile(t, "preview.png", 640, 360)
	asset, err := flow.Submit(context.Background(), Actor{UserID: 3}, d)
	require.NoError(t, err)

	assert.Equal(t, []string{"layered.psd", "preview.png"}, up.calls)
	assert.Equal(t, "https://cdn.test/preview.png", asset.PreviewURL, "preview upload overrides the thumbnail")
	assert.Equal(t, "https://cdn.test/layered.psd", asset.FileURL)
	assert.Equal(t, "psd", asset.Format)
	dims, ok := asset.Dimensions()
	require.True(t, ok)
	assert.Equal(t, models.Dimensions{Width: 640, Height: 360}, dims)

	assert.Equal(t, []State{Idle, FileSelected, Validated, UploadingMain, UploadingPreview, Persisting, Succeeded}, states)
	assert.Equal(t, []string{"layered.psd", "layered.psd", "preview.png", "preview.png"}, progress)
}

func TestSubmit_SVGPreviewsItself(t *testing.T) {
	up, w := &fakeUploader{}, &fakeWriter{}
	flow := newTestFlow(up, w, nil)

	d := baseDraft("logo.svg")
	d.Main.Data = []byte(`<?xml version="1.0"?><svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 300 150"></svg>`)
	asset, err := flow.Submit(context.Background(), Actor{UserID: 3}, d)
	require.NoError(t, err)

	assert.Equal(t, []string{"logo.svg"}, up.calls, "no preview upload for svg")
	assert.True(t, strings.HasPrefix(asset.PreviewURL, "data:image/svg+xml;base64,"))
	dims, ok := asset.Dimensions()
	require.True(t, ok)
	assert.Equal(t, models.Dimensions{Width: 300, Height: 150}, dims)
}

func TestSubmit_ZipPackEndToEnd(t *testing.T) {
	for _, tc := range []struct {
		name   string
		actor  Actor
		status models.AssetStatus
	}{
		{"creator", Actor{UserID: 5}, models.AssetStatusPending},
		{"admin", Actor{UserID: 1, IsAdmin: true}, models.AssetStatusApproved},
	} {
		t.Run(tc.name, func(t *testing.T) {
			up, w := &fakeUploader{}, &fakeWriter{}
			flow := newTestFlow(up, w, nil)

			d := baseDraft("bundle.zip")
			d.Platform = models.PlatformFX
			d.AssetType = "vfx_pack"
			d.IsFree = false
			d.PackPrice = 10
			asset, err := flow.Submit(context.Background(), tc.actor, d)
			require.NoError(t, err)

			require.Len(t, w.created, 1)
			assert.True(t, asset.IsPack)
			assert.True(t, asset.IsPremium)
			assert.Equal(t, 10.0, asset.Price)
			assert.Equal(t, tc.status, asset.Status)
			assert.Equal(t, tc.actor.UserID, asset.CreatorID)
			assert.Equal(t, "https://cdn.test/thumb/bundle.zip", asset.PreviewURL)
			_, ok := asset.Dimensions()
			assert.False(t, ok, "fx packs have no default size")
		})
	}
}

func TestSubmit_SelfApprovalDisabled(t *testing.T) {
	w := &fakeWriter{}
	flow := NewFlow(&fakeUploader{}, w, nil, WithSelfApproval(false))

	asset, err := flow.Submit(context.Background(), Actor{UserID: 1, IsAdmin: true}, baseDraft("clip.mp4"))
	require.NoError(t, err)
	assert.Equal(t, models.AssetStatusPending, asset.Status)
}

func TestSubmit_CatalogDefaultDimensions(t *testing.T) {
	flow := newTestFlow(&fakeUploader{}, &fakeWriter{}, nil)

	asset, err := flow.Submit(context.Background(), Actor{UserID: 2}, baseDraft("clip.mp4"))
	require.NoError(t, err)
	dims, ok := asset.Dimensions()
	require.True(t, ok)
	assert.Equal(t, models.Dimensions{Width: 1280, Height: 720}, dims)
}

func TestSubmit_Failures(t *testing.T) {
	boom := errors.New("boom")

	t.Run("main upload", func(t *testing.T) {
		up, w := &fakeUploader{err: boom}, &fakeWriter{}
		flow := newTestFlow(up, w, nil)
		_, err := flow.Submit(context.Background(), Actor{UserID: 2}, baseDraft("clip.mp4"))
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, Failed, flow.State())
		assert.Empty(t, w.created)
	})

	t.Run("preview upload", func(t *testing.T) {
		up, w := &fakeUploader{err: boom, errOn: "p.png"}, &fakeWriter{}
		flow := newTestFlow(up, w, nil)
		d := baseDraft("a.psd")
		d.Preview = pngFile(t, "p.png", 10, 10)
		_, err := flow.Submit(context.Background(), Actor{UserID: 2}, d)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, Failed, flow.State())
		assert.Equal(t, []string{"a.psd", "p.png"}, up.calls, "main upload is left in place")
	})

	t.Run("insert", func(t *testing.T) {
		n := &fakeNotifier{}
		flow := newTestFlow(&fakeUploader{}, &fakeWriter{err: boom}, n)
		_, err := flow.Submit(context.Background(), Actor{UserID: 2}, baseDraft("clip.mp4"))
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, Failed, flow.State())
		time.Sleep(20 * time.Millisecond)
		assert.Zero(t, n.calls.Load(), "nothing to enrich")
	})

	t.Run("anonymous", func(t *testing.T) {
		up := &fakeUploader{}
		flow := newTestFlow(up, &fakeWriter{}, nil)
		_, err := flow.Submit(context.Background(), Actor{}, baseDraft("clip.mp4"))
		assert.Error(t, err)
		assert.Empty(t, up.calls)
	})
}

func TestBestEffortNotify_NeverBlocksOrFails(t *testing.T) {
	for name, n := range map[string]*fakeNotifier{
		"blocking": {block: make(chan struct{})},
		"error":    {err: errors.New("enrich down")},
		"panic":    {panic: true},
	} {
		t.Run(name, func(t *testing.T) {
			if n.block != nil {
				t.Cleanup(func() { close(n.block) })
			}
			flow := NewFlow(&fakeUploader{}, &fakeWriter{}, n, WithNotifyTimeout(5*time.Second))

			start := time.Now()
			asset, err := flow.Submit(context.Background(), Actor{UserID: 2}, baseDraft("clip.mp4"))
			require.NoError(t, err)
			assert.NotZero(t, asset.ID)
			assert.Less(t, time.Since(start), time.Second)
			assert.Equal(t, Succeeded, flow.State())

			require.Eventually(t, func() bool { return n.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
		})
	}
}

func TestBestEffortNotify_NilNotifier(t *testing.T) {
	assert.NotPanics(t, func() { BestEffortNotify(context.Background(), nil, 1, time.Second) })
}

func TestSVGSize(t *testing.T) {
	tests := []struct {
		svg  string
		want models.Dimensions
		ok   bool
	}{
		{`<svg width="120px" height="80"></svg>`, models.Dimensions{Width: 120, Height: 80}, true},
		{`<svg width="100%" viewBox="0,0,64,32"></svg>`, models.Dimensions{Width: 64, Height: 32}, true},
		{`<!-- c --><svg viewBox="0 0 10.4 20.6"/>`, models.Dimensions{Width: 10, Height: 21}, true},
		{`<html></html>`, models.Dimensions{}, false},
		{`not xml`, models.Dimensions{}, false},
	}
	for _, tt := range tests {
		got, ok := SVGSize([]byte(tt.svg))
		assert.Equal(t, tt.ok, ok, tt.svg)
		assert.Equal(t, tt.want, got, tt.svg)
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "uploading_preview", UploadingPreview.String())
	assert.True(t, Blocked.Terminal())
	assert.False(t, Persisting.Terminal())
	assert.Equal(t, "state(42)", State(42).String())
}
