package gacha

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/labstack/gommon/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLister struct {
	names []string
	err   error
}

func (s *stubLister) ListGifts(ctx context.Context) ([]string, error) {
	return s.names, s.err
}

func (s *stubLister) GiftURL(name string) string {
	return "https://cdn.example.com/gifts/" + name + ".png"
}

func TestLoadCatalog(t *testing.T) {
	logger := log.New("gacha-test")
	logger.SetLevel(log.OFF)

	tests := []struct {
		name      string
		lister    GiftLister
		wantNames []string
		wantURL   string
	}{
		{
			name:      "正常系: ストレージの一覧を使う",
			lister:    &stubLister{names: []string{"candy", "tree"}},
			wantNames: []string{"candy", "tree"},
			wantURL:   "https://cdn.example.com/gifts/candy.png",
		},
		{
			name:      "異常系: 一覧エラーでデフォルト",
			lister:    &stubLister{err: errors.New("access denied")},
			wantNames: DefaultGiftNames,
			wantURL:   "asset/bell.png",
		},
		{
			name:      "異常系: 空の一覧でデフォルト",
			lister:    &stubLister{},
			wantNames: DefaultGiftNames,
			wantURL:   "asset/bell.png",
		},
		{
			name:      "正常系: ストレージなし",
			lister:    nil,
			wantNames: DefaultGiftNames,
			wantURL:   "asset/bell.png",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := LoadCatalog(context.Background(), tt.lister, logger)

			gifts := c.Gifts()
			require.Len(t, gifts, len(tt.wantNames))
			assert.Equal(t, len(tt.wantNames), c.Len())
			for i, g := range gifts {
				assert.Equal(t, tt.wantNames[i], g.Name)
			}
			assert.Equal(t, tt.wantURL, gifts[0].URL)
		})
	}
}

func TestCatalog_GiftsIsCopy(t *testing.T) {
	c := NewCatalog(nil)

	gifts := c.Gifts()
	gifts[0].Name = "coal"

	assert.Equal(t, "bell", c.Gifts()[0].Name)
}

func TestCatalog_Pick(t *testing.T) {
	c := NewCatalog([]Gift{{Name: "only"}})
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 10; i++ {
		assert.Equal(t, "only", c.Pick(rng).Name)
	}
}
