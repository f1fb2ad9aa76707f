// Package gacha provides the coin counter and capsule state machine.
package gacha

import (
	"context"
	"math/rand"

	"github.com/labstack/gommon/log"
)

// DefaultGiftNames is the gift set used when storage has no gift list.
var DefaultGiftNames = []string{"bell", "socks", "hat", "snowflake", "elf", "santa"}

// Gift is one prize a capsule can contain.
type Gift struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	Caption string `json:"caption,omitempty"`
}

// GiftLister lists gift images from asset storage.
type GiftLister interface {
	ListGifts(ctx context.Context) ([]string, error)
	GiftURL(name string) string
}

// Catalog is a fixed set of gifts.
type Catalog struct {
	gifts []Gift
}

// NewCatalog creates a catalog. An empty list falls back to the default set.
func NewCatalog(gifts []Gift) *Catalog {
	if len(gifts) == 0 {
		gifts = defaultGifts()
	}
	return &Catalog{gifts: gifts}
}

// LoadCatalog builds the catalog from storage, falling back to the default
// gift set with local asset paths.
func LoadCatalog(ctx context.Context, lister GiftLister, logger *log.Logger) *Catalog {
	if lister == nil {
		return NewCatalog(nil)
	}

	names, err := lister.ListGifts(ctx)
	if err != nil || len(names) == 0 {
		if logger != nil {
			logger.Warnf("gift list unavailable, using defaults: %v", err)
		}
		return NewCatalog(nil)
	}

	gifts := make([]Gift, 0, len(names))
	for _, name := range names {
		gifts = append(gifts, Gift{Name: name, URL: lister.GiftURL(name)})
	}
	return NewCatalog(gifts)
}

func defaultGifts() []Gift {
	gifts := make([]Gift, 0, len(DefaultGiftNames))
	for _, name := range DefaultGiftNames {
		gifts = append(gifts, Gift{Name: name, URL: "asset/" + name + ".png"})
	}
	return gifts
}

// Gifts returns a copy of the catalog.
func (c *Catalog) Gifts() []Gift {
	out := make([]Gift, len(c.gifts))
	copy(out, c.gifts)
	return out
}

// Len returns the number of gifts.
func (c *Catalog) Len() int {
	return len(c.gifts)
}

// Pick selects a gift uniformly at random.
func (c *Catalog) Pick(rng *rand.Rand) Gift {
	return c.gifts[rng.Intn(len(c.gifts))]
}
