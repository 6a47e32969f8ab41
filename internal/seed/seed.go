package seed

import (
	"errors"
	"fmt"
	"log"

	"viralpik/internal/models"

	"gorm.io/gorm"
)

// Options configure the seeder.
type Options struct {
	NumCreators      int
	NumFans          int
	AssetsPerCreator int
	SkipBcrypt       bool
	DryRun           bool
	MaxDays          int
	BatchSize        int
	RandSeed         int64
}

// StatusDistribution is the percentage of seeded assets per non-approved
// moderation status. The remainder is approved.
type StatusDistribution struct {
	PendingPct  int
	RejectedPct int
}

var defaultDistribution = StatusDistribution{PendingPct: 15, RejectedPct: 5}

// computeCounts splits n across statuses. Rounding leftovers go to approved.
func computeCounts(n int, d StatusDistribution) (approved, pending, rejected int) {
	pending = n * d.PendingPct / 100
	rejected = n * d.RejectedPct / 100
	approved = n - pending - rejected
	if approved < 0 {
		approved = 0
	}
	return approved, pending, rejected
}

// Result summarizes what a seeding run created.
type Result struct {
	Creators []*models.Profile
	Fans     []*models.Profile
	Assets   []*models.Asset
}

// Seeder populates a database with demo marketplace data.
type Seeder struct {
	db      *gorm.DB
	opts    Options
	factory *Factory
}

func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{db: db, opts: opts, factory: NewFactory(db, opts)}
}

// ClearAll removes all marketplace rows.
func (s *Seeder) ClearAll() error {
	log.Println("Clearing existing data...")
	if s.db.Dialector.Name() == "postgres" {
		return s.db.Exec(`TRUNCATE TABLE collection_assets, collections, comments, downloads, saves, likes,
			follows, assets, support_tickets, user_preferences, profiles RESTART IDENTITY CASCADE`).Error
	}
	tables := []string{
		"collection_assets", "collections", "comments", "downloads", "saves", "likes",
		"follows", "assets", "support_tickets", "user_preferences", "profiles",
	}
	for _, t := range tables {
		if err := s.db.Exec("DELETE FROM " + t).Error; err != nil {
			return fmt.Errorf("clear %s: %w", t, err)
		}
	}
	return nil
}

// Run creates creators, fans, their assets and the engagement between them.
func (s *Seeder) Run() (*Result, error) {
	res := &Result{}
	for i := 0; i < s.opts.NumCreators; i++ {
		p, err := s.factory.CreateCreator()
		if err != nil {
			return nil, fmt.Errorf("create creator: %w", err)
		}
		res.Creators = append(res.Creators, p)
	}
	log.Printf("✓ %d creators created", len(res.Creators))

	tiers := []models.Tier{models.TierFree, models.TierFree, models.TierFree, models.TierPro, models.TierBusiness}
	for i := 0; i < s.opts.NumFans; i++ {
		tier := tiers[i%len(tiers)]
		p, err := s.factory.CreateProfile(func(p *models.Profile) { p.Tier = tier })
		if err != nil {
			return nil, fmt.Errorf("create fan: %w", err)
		}
		res.Fans = append(res.Fans, p)
	}
	log.Printf("✓ %d fans created", len(res.Fans))

	for _, creator := range res.Creators {
		approved, pending, rejected := computeCounts(s.opts.AssetsPerCreator, defaultDistribution)
		batch := make([]*models.Asset, 0, s.opts.AssetsPerCreator)
		for status, n := range map[models.AssetStatus]int{
			models.AssetStatusApproved: approved,
			models.AssetStatusPending:  pending,
			models.AssetStatusRejected: rejected,
		} {
			for i := 0; i < n; i++ {
				batch = append(batch, s.factory.BuildAsset(creator, status))
			}
		}
		if err := s.factory.CreateAssetsBatch(batch); err != nil {
			return nil, fmt.Errorf("create assets: %w", err)
		}
		res.Assets = append(res.Assets, batch...)
	}
	log.Printf("✓ %d assets created", len(res.Assets))

	if err := s.seedEngagement(res); err != nil {
		return nil, err
	}
	if err := s.reconcileCounters(); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Seeder) seedEngagement(res *Result) error {
	rng := s.factory.rng
	var approved []*models.Asset
	for _, a := range res.Assets {
		if a.Status == models.AssetStatusApproved {
			approved = append(approved, a)
		}
	}

	for _, fan := range res.Fans {
		for _, creator := range res.Creators {
			if rng.Float32() < 0.4 {
				if err := s.factory.CreateFollow(fan, creator); err != nil {
					return fmt.Errorf("create follow: %w", err)
				}
			}
		}
		if len(approved) == 0 {
			continue
		}
		for _, idx := range rng.Perm(len(approved))[:min(len(approved), 6)] {
			a := approved[idx]
			if err := s.factory.CreateLike(fan, a); err != nil {
				return fmt.Errorf("create like: %w", err)
			}
			if rng.Float32() < 0.5 {
				if err := s.factory.CreateDownload(fan, a); err != nil {
					return fmt.Errorf("create download: %w", err)
				}
			}
			if rng.Float32() < 0.25 {
				if _, err := s.factory.CreateComment(fan, a); err != nil {
					return fmt.Errorf("create comment: %w", err)
				}
			}
		}
	}
	return nil
}

// reconcileCounters recomputes denormalized counters from the relation tables.
func (s *Seeder) reconcileCounters() error {
	if s.opts.DryRun {
		return nil
	}
	stmts := []string{
		`UPDATE assets SET like_count = (SELECT COUNT(*) FROM likes WHERE likes.asset_id = assets.id)`,
		`UPDATE assets SET download_count = (SELECT COUNT(*) FROM downloads WHERE downloads.asset_id = assets.id)`,
		`UPDATE profiles SET follower_count = (SELECT COUNT(*) FROM follows WHERE follows.following_id = profiles.id)`,
		`UPDATE profiles SET following_count = (SELECT COUNT(*) FROM follows WHERE follows.follower_id = profiles.id)`,
	}
	for _, stmt := range stmts {
		if err := s.db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("reconcile counters: %w", err)
		}
	}
	return nil
}

// StaffPicks ensures the built-in public collections exist, owned by owner.
func StaffPicks(db *gorm.DB, owner *models.Profile) error {
	if owner == nil {
		return errors.New("staff picks need an owner")
	}
	for _, b := range BuiltInCollections {
		var c models.Collection
		err := db.Where(models.Collection{OwnerID: owner.ID, Name: b.Name}).
			Attrs(models.Collection{Description: b.Description, IsPublic: true}).
			FirstOrCreate(&c).Error
		if err != nil {
			return fmt.Errorf("staff pick %q: %w", b.Name, err)
		}
	}
	return nil
}

// BuiltInCollection is a curated public collection.
type BuiltInCollection struct {
	Name        string
	Description string
}

// BuiltInCollections are created for the admin account on seed.
var BuiltInCollections = []BuiltInCollection{
	{Name: "Staff Picks", Description: "Hand-picked assets from the ViralPik team."},
	{Name: "Thumbnail Starter Kit", Description: "Bold YouTube thumbnails that get clicks."},
	{Name: "Stream Essentials", Description: "Overlays, alerts and panels for Twitch streams."},
	{Name: "Short-Form Hooks", Description: "Covers and transitions for TikTok and Reels."},
}
