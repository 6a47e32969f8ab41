// Package feed arranges assets into the masonry grid and interleaves
// promotional tag cards.
package feed

import (
	"math/rand/v2"

	"viralpik/internal/models"
)

// TagOffsets are indices into the asset sequence before which a tag card is shown.
var TagOffsets = []int{7, 15, 23, 35, 47}

// Display counts shown on tag cards are drawn from [MinTagCount, MaxTagCount).
const (
	MinTagCount = 100
	MaxTagCount = 10000
)

// Kind distinguishes feed items.
type Kind string

const (
	KindAsset Kind = "asset"
	KindTag   Kind = "tag"
)

// Item is one cell of the feed.
type Item struct {
	Kind  Kind          `json:"kind"`
	Asset *models.Asset `json:"asset,omitempty"`
	Tag   string        `json:"tag,omitempty"`
	Count int           `json:"count,omitempty"`
}

// Rand is the randomness used for tag card counts. *rand.Rand satisfies it.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Compose interleaves tag cards into assets starting at the top of the feed.
func Compose(assets []models.Asset, tags []string, rng Rand) []Item {
	return ComposeFrom(assets, 0, tags, rng)
}

// ComposeFrom composes one page whose first asset sits at index start of the
// whole feed, so pages fetched separately place tag cards where a single
// composition would. Asset order is never changed. Tags are used round-robin
// and each is shown at most once.
func ComposeFrom(assets []models.Asset, start int, tags []string, rng Rand) []Item {
	if rng == nil {
		rng = globalRand{}
	}
	out := make([]Item, 0, len(assets)+len(TagOffsets))
	for i := range assets {
		if k := offsetRank(start + i); k >= 0 && k < len(tags) {
			out = append(out, Item{
				Kind:  KindTag,
				Tag:   tags[k%len(tags)],
				Count: MinTagCount + rng.IntN(MaxTagCount-MinTagCount),
			})
		}
		out = append(out, Item{Kind: KindAsset, Asset: &assets[i]})
	}
	return out
}

// offsetRank returns the position of idx in TagOffsets, or -1.
func offsetRank(idx int) int {
	for k, p := range TagOffsets {
		if p == idx {
			return k
		}
	}
	return -1
}
