// Package interaction holds the optimistic like, save and follow state of
// one asset card.
package interaction

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"viralpik/internal/client"
	"viralpik/internal/models"
)

var (
	// ErrAuthRequired is returned instead of contacting the server when no
	// one is signed in. Callers show the sign-in prompt.
	ErrAuthRequired = errors.New("sign in required")
	// ErrSelfFollow is returned when the viewer is the asset's creator.
	ErrSelfFollow = errors.New("you cannot follow yourself")
)

// UpgradeRequiredError means the viewer's tier has no downloads left today.
type UpgradeRequiredError struct {
	Tier  models.Tier
	Limit int
}

func (e *UpgradeRequiredError) Error() string {
	return fmt.Sprintf("daily download limit of %d reached on the %s plan", e.Limit, e.Tier)
}

// Gateway is the part of the API a card talks to. *client.Gateway implements it.
type Gateway interface {
	SetLiked(ctx context.Context, assetID uint, liked bool) error
	SetSaved(ctx context.Context, assetID uint, saved bool) error
	SetFollowing(ctx context.Context, userID uint, following bool) error
	AuthorizeDownload(ctx context.Context, assetID uint) (*client.DownloadGrant, error)
	Fetch(ctx context.Context, url string) (io.ReadCloser, error)
}

// State is a snapshot of the card.
type State struct {
	Liked     bool
	Saved     bool
	Following bool
	LikeCount int64
}

// Card applies every toggle locally first, then writes it through the
// gateway, and applies the inverse if the write fails.
type Card struct {
	session   *client.Session
	gw        Gateway
	assetID   uint
	creatorID uint

	// op serializes toggles so an inverse never races another mutation.
	op sync.Mutex
	mu sync.Mutex
	st State
}

// NewCard seeds the card from a loaded asset. following is whether the viewer
// already follows the creator.
func NewCard(session *client.Session, gw Gateway, asset *models.Asset, following bool) *Card {
	return &Card{
		session:   session,
		gw:        gw,
		assetID:   asset.ID,
		creatorID: asset.CreatorID,
		st: State{
			Liked:     asset.Liked,
			Saved:     asset.Saved,
			Following: following,
			LikeCount: asset.LikeCount,
		},
	}
}

// State returns the current, possibly optimistic, state.
func (c *Card) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st
}

func (c *Card) apply(m func(*State)) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	m(&c.st)
	return c.st
}

// mutate is the shared optimistic pattern. forward returns the new target
// value; inverse undoes forward.
func (c *Card) mutate(ctx context.Context, forward func(*State) bool, inverse func(*State), write func(context.Context, bool) error) error {
	if !c.session.Authenticated() {
		return ErrAuthRequired
	}
	c.op.Lock()
	defer c.op.Unlock()

	var target bool
	c.apply(func(s *State) { target = forward(s) })
	if err := write(ctx, target); err != nil {
		c.apply(inverse)
		return err
	}
	return nil
}

func flipLike(s *State) bool {
	s.Liked = !s.Liked
	if s.Liked {
		s.LikeCount++
	} else if s.LikeCount > 0 {
		s.LikeCount--
	}
	return s.Liked
}

func (c *Card) ToggleLike(ctx context.Context) error {
	var before State
	return c.mutate(ctx,
		func(s *State) bool { before = *s; return flipLike(s) },
		func(s *State) { s.Liked, s.LikeCount = before.Liked, before.LikeCount },
		func(ctx context.Context, on bool) error { return c.gw.SetLiked(ctx, c.assetID, on) },
	)
}

func (c *Card) ToggleSave(ctx context.Context) error {
	return c.mutate(ctx,
		func(s *State) bool { s.Saved = !s.Saved; return s.Saved },
		func(s *State) { s.Saved = !s.Saved },
		func(ctx context.Context, on bool) error { return c.gw.SetSaved(ctx, c.assetID, on) },
	)
}

func (c *Card) ToggleFollow(ctx context.Context) error {
	u, ok := c.session.User()
	if !ok {
		return ErrAuthRequired
	}
	if u.ID == c.creatorID {
		return ErrSelfFollow
	}
	return c.mutate(ctx,
		func(s *State) bool { s.Following = !s.Following; return s.Following },
		func(s *State) { s.Following = !s.Following },
		func(ctx context.Context, on bool) error { return c.gw.SetFollowing(ctx, c.creatorID, on) },
	)
}

// Download authorizes the download and then streams the file into sink.
// A tier limit becomes *UpgradeRequiredError.
func (c *Card) Download(ctx context.Context, sink io.Writer) (*client.DownloadGrant, error) {
	if !c.session.Authenticated() {
		return nil, ErrAuthRequired
	}
	grant, err := c.gw.AuthorizeDownload(ctx, c.assetID)
	if err != nil {
		var rl *models.RateLimitError
		if errors.As(err, &rl) {
			return nil, &UpgradeRequiredError{Tier: rl.Tier, Limit: rl.Limit}
		}
		return nil, err
	}

	body, err := c.gw.Fetch(ctx, grant.DownloadURL)
	if err != nil {
		return nil, err
	}
	defer func() { _ = body.Close() }()
	if _, err := io.Copy(sink, body); err != nil {
		return nil, fmt.Errorf("save download: %w", err)
	}
	return grant, nil
}

// ShareURL is the canonical public link of an asset. Sharing records nothing.
func ShareURL(baseURL string, assetID uint) string {
	return strings.TrimRight(baseURL, "/") + "/asset/" + strconv.FormatUint(uint64(assetID), 10)
}
