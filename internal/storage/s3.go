// Package storage provides S3 asset storage integration.
package storage

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
)

// Asset key layout in the bucket.
const (
	CoinImageKey = "asset/coin.png"
	giftPrefix   = "gifts/"
)

// giftExtensions are the image types listed as gifts.
var giftExtensions = []string{".png", ".webp", ".jpg"}

// S3ClientInterface defines the interface for S3 operations.
type S3ClientInterface interface {
	GetObject(ctx context.Context, key string) ([]byte, error)
	ListObjects(ctx context.Context, prefix string) ([]string, error)
}

// AssetStore serves game assets from S3 behind CloudFront.
type AssetStore struct {
	client        S3ClientInterface
	bucket        string
	cloudfrontURL string
	giftKeys      map[string]string
}

// NewAssetStore creates a new AssetStore.
func NewAssetStore(client S3ClientInterface, bucket string, cloudfrontURL string) *AssetStore {
	return &AssetStore{
		client:        client,
		bucket:        bucket,
		cloudfrontURL: strings.TrimSuffix(cloudfrontURL, "/"),
		giftKeys:      make(map[string]string),
	}
}

// GetObject returns the raw bytes of an asset.
func (s *AssetStore) GetObject(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.GetObject(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to get asset %s: %w", key, err)
	}
	return data, nil
}

// ListGifts returns the gift names available in storage, sorted.
func (s *AssetStore) ListGifts(ctx context.Context) ([]string, error) {
	keys, err := s.client.ListObjects(ctx, giftPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list gift images: %w", err)
	}

	names := make([]string, 0, len(keys))
	for _, key := range keys {
		// Extract gift name from key (e.g., "gifts/santa.png" -> "santa")
		ext := path.Ext(key)
		if !isGiftImage(ext) {
			continue
		}
		name := strings.TrimSuffix(strings.TrimPrefix(key, giftPrefix), ext)
		if name == "" || strings.Contains(name, "/") {
			continue
		}
		if _, dup := s.giftKeys[name]; !dup {
			names = append(names, name)
		}
		s.giftKeys[name] = key
	}

	sort.Strings(names)
	return names, nil
}

// GiftURL returns the CloudFront URL for a gift image.
func (s *AssetStore) GiftURL(name string) string {
	key, ok := s.giftKeys[name]
	if !ok {
		key = giftPrefix + name + ".png"
	}
	return fmt.Sprintf("%s/%s", s.cloudfrontURL, key)
}

func isGiftImage(ext string) bool {
	for _, e := range giftExtensions {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}
