// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"viralpik/internal/catalog"
	"viralpik/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password every seeded account gets.
const DefaultPassword = "Viralpik!Seed1"

var formatsByType = map[string][]string{
	"intro":      {"mp4"},
	"transition": {"mp4"},
	"sfx":        {"mp3", "wav"},
	"overlay":    {"png", "mp4"},
}

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by the seeder and tests.
type Factory struct {
	db      *gorm.DB
	opts    Options
	catalog *catalog.Catalog
	rng     *rand.Rand
	hashed  string
	// synthetic ID counter when running in DryRun mode
	nextID uint
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gofakeit.Seed(seed)
	//nolint:gosec // Weak random number generator is fine for seeding
	return &Factory{
		db:      db,
		opts:    opts,
		catalog: catalog.Default(),
		rng:     rand.New(rand.NewSource(seed)),
		nextID:  1000,
	}
}

func (f *Factory) password() string {
	if f.opts.SkipBcrypt {
		return DefaultPassword
	}
	if f.hashed == "" {
		h, _ := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
		f.hashed = string(h)
	}
	return f.hashed
}

func (f *Factory) createdAt() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	back := time.Duration(f.rng.Intn(maxDays))*24*time.Hour +
		time.Duration(f.rng.Intn(24))*time.Hour +
		time.Duration(f.rng.Intn(60))*time.Minute
	return time.Now().Add(-back)
}

func (f *Factory) username() string {
	base := strings.ToLower(gofakeit.Username())
	var sb strings.Builder
	for _, r := range base {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			sb.WriteRune(r)
		}
	}
	name := sb.String()
	if len(name) > 14 {
		name = name[:14]
	}
	if len(name) < 3 {
		name = "user"
	}
	return fmt.Sprintf("%s_%d", name, gofakeit.Number(1000, 99999))
}

// CreateProfile constructs and persists a sample profile.
// Optional override functions may modify the generated profile before saving.
func (f *Factory) CreateProfile(overrides ...func(*models.Profile)) (*models.Profile, error) {
	username := f.username()
	profile := &models.Profile{
		Username:    username,
		Email:       username + "@example.com",
		Password:    f.password(),
		DisplayName: gofakeit.Name(),
		Bio:         gofakeit.Sentence(10),
		AvatarURL:   fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
		Tier:        models.TierFree,
	}

	for _, override := range overrides {
		override(profile)
	}

	if f.opts.DryRun {
		f.nextID++
		profile.ID = f.nextID
		log.Printf("[dry-run] CreateProfile: %s", profile.Username)
		return profile, nil
	}
	if err := f.db.Create(profile).Error; err != nil {
		return nil, err
	}
	return profile, nil
}

// CreateCreator creates an approved creator who can earn.
func (f *Factory) CreateCreator(overrides ...func(*models.Profile)) (*models.Profile, error) {
	base := func(p *models.Profile) {
		p.IsCreator = true
		p.IsApproved = true
		p.CanEarn = f.rng.Float32() < 0.5
		p.Website = gofakeit.URL()
		p.YouTubeURL = "https://youtube.com/@" + p.Username
	}
	return f.CreateProfile(append([]func(*models.Profile){base}, overrides...)...)
}

func (f *Factory) tags() models.Tags {
	n := models.MinTags + f.rng.Intn(models.MaxTags-models.MinTags+1)
	pool := f.catalog.TagPool
	seen := make(map[string]bool, n)
	out := make(models.Tags, 0, n)
	for len(out) < n {
		var tag string
		if len(pool) > 0 && f.rng.Float32() < 0.7 {
			tag = pool[f.rng.Intn(len(pool))]
		} else {
			tag = strings.ToLower(gofakeit.Adjective())
		}
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

// BuildAsset constructs an asset for a random catalog entry but does not
// persist it. Useful for batching.
func (f *Factory) BuildAsset(creator *models.Profile, status models.AssetStatus, overrides ...func(*models.Asset)) *models.Asset {
	platform := f.catalog.Platforms[f.rng.Intn(len(f.catalog.Platforms))]
	assetType := platform.AssetTypes[f.rng.Intn(len(platform.AssetTypes))]

	format := "png"
	if formats, ok := formatsByType[assetType.ID]; ok {
		format = formats[f.rng.Intn(len(formats))]
	} else if f.rng.Float32() < 0.15 {
		format = "zip"
	}

	seed := gofakeit.UUID()
	asset := &models.Asset{
		Title:       strings.TrimSuffix(gofakeit.Sentence(4), "."),
		Description: gofakeit.Paragraph(1, 2, 12, " "),
		Platform:    platform.ID,
		AssetType:   assetType.ID,
		Tags:        f.tags(),
		FileURL:     fmt.Sprintf("https://cdn.viralpik.dev/assets/%d/%s.%s", creator.ID, seed, format),
		PreviewURL:  fmt.Sprintf("https://picsum.photos/seed/%s/640/360", seed),
		FileSize:    int64(gofakeit.Number(40_000, 40_000_000)),
		Format:      format,
		Status:      status,
		CreatorID:   creator.ID,
		ViewCount:   int64(f.rng.Intn(5000)),
	}
	if format == "zip" {
		asset.IsPack = true
		if f.rng.Float32() < 0.5 {
			asset.IsPremium = true
			asset.Price = float64(models.MinPackPrice) + float64(f.rng.Intn(int(models.MaxPackPrice-models.MinPackPrice)))
		}
	}
	if status == models.AssetStatusRejected {
		asset.RejectionReason = "Preview does not match the uploaded file"
	}
	if d, ok := assetType.DefaultDimensions(); ok {
		asset.SetDimensions(d)
	}
	asset.CreatedAt = f.createdAt()
	asset.UpdatedAt = asset.CreatedAt

	for _, override := range overrides {
		override(asset)
	}
	return asset
}

// CreateAssetsBatch persists multiple assets in a single DB call when possible.
func (f *Factory) CreateAssetsBatch(assets []*models.Asset) error {
	if len(assets) == 0 {
		return nil
	}
	if f.opts.DryRun {
		for _, a := range assets {
			f.nextID++
			a.ID = f.nextID
		}
		log.Printf("[dry-run] CreateAssetsBatch: %d assets (no DB write)", len(assets))
		return nil
	}
	batch := f.opts.BatchSize
	if batch <= 0 {
		batch = 100
	}
	return f.db.CreateInBatches(assets, batch).Error
}

// CreateComment persists a comment by user on asset.
func (f *Factory) CreateComment(user *models.Profile, asset *models.Asset) (*models.Comment, error) {
	comment := &models.Comment{
		AssetID: asset.ID,
		UserID:  user.ID,
		Content: gofakeit.Sentence(8),
	}
	if f.opts.DryRun {
		f.nextID++
		comment.ID = f.nextID
		return comment, nil
	}
	if err := f.db.Omit("User").Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateFollow records follower -> following. Counters are reconciled later.
func (f *Factory) CreateFollow(follower, following *models.Profile) error {
	if f.opts.DryRun || follower.ID == following.ID {
		return nil
	}
	return f.db.Omit("Follower", "Following").Create(&models.Follow{
		FollowerID:  follower.ID,
		FollowingID: following.ID,
	}).Error
}

// CreateLike records a like. Counters are reconciled later.
func (f *Factory) CreateLike(user *models.Profile, asset *models.Asset) error {
	if f.opts.DryRun {
		return nil
	}
	return f.db.Create(&models.Like{UserID: user.ID, AssetID: asset.ID}).Error
}

// CreateDownload records a download in the audit table.
func (f *Factory) CreateDownload(user *models.Profile, asset *models.Asset) error {
	if f.opts.DryRun {
		return nil
	}
	return f.db.Create(&models.Download{
		UserID:    user.ID,
		AssetID:   asset.ID,
		Tier:      user.EffectiveTier(),
		CreatedAt: f.createdAt(),
	}).Error
}
