package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"golang.org/x/image/draw"

	"github.com/tmarkhart/stacks/internal/domain"
)

// Display dimensions of a scaled cover bitmap.
const (
	CoverWidth  = 200
	CoverHeight = 300
)

// maxCoverBytes caps how much of a remote image is read.
const maxCoverBytes = 10 * 1024 * 1024 // 10MB

// CoverService fetches remote cover images, rescales them for display,
// and caches the result. Every fetch carries a generation token; the
// caller bumps the generation when the selected book changes, and any
// result whose token is no longer current is discarded instead of
// landing on the wrong view.
type CoverService struct {
	cache  domain.CoverCache
	client *http.Client
	gen    atomic.Int64
}

// NewCoverService creates a CoverService. A nil client gets a default
// with a request timeout.
func NewCoverService(cache domain.CoverCache, client *http.Client) *CoverService {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &CoverService{cache: cache, client: client}
}

// Bump marks a selection change: it invalidates all in-flight fetches
// and returns the generation token for the new selection.
func (s *CoverService) Bump() int64 {
	return s.gen.Add(1)
}

// Generation returns the current generation token.
func (s *CoverService) Generation() int64 {
	return s.gen.Load()
}

// Fetch returns the book's cover as a 200x300 PNG, from cache when
// present. Fetch or decode failures return domain.ErrCoverUnavailable;
// a result arriving after the generation moved on returns
// domain.ErrStale.
func (s *CoverService) Fetch(ctx context.Context, gen int64, book *domain.Book) ([]byte, error) {
	if book.ImagePath == "" {
		return nil, fmt.Errorf("%w: book has no cover image", domain.ErrCoverUnavailable)
	}

	if s.cache != nil {
		if data, err := s.cache.Get(ctx, book.ID); err == nil {
			return data, nil
		} else if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}

	data, err := s.fetchAndScale(ctx, book.ImagePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCoverUnavailable, err)
	}

	// The bitmap is valid regardless of staleness, so cache it before
	// deciding whether to deliver it.
	if s.cache != nil {
		if err := s.cache.Save(ctx, book.ID, data); err != nil {
			return nil, err
		}
	}

	if s.gen.Load() != gen {
		return nil, domain.ErrStale
	}
	return data, nil
}

func (s *CoverService) fetchAndScale(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch image: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxCoverBytes))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	src, _, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, CoverWidth, CoverHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
