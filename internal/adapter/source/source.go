package source

import (
	"fmt"
	"log/slog"

	"github.com/mmcdole/reel/internal/adapter"
	"github.com/mmcdole/reel/internal/adapter/source/picsum"
	"github.com/mmcdole/reel/internal/domain"
)

// StorySource combines the interfaces an upstream backend must implement:
// the catalog listing and the image probe used by the viewer.
type StorySource interface {
	domain.CatalogSource
	domain.ImageProber
}

// NewClientFromConfig creates a StorySource from the application config
func NewClientFromConfig(cfg *adapter.Config, logger *slog.Logger) (StorySource, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if cfg.Upstream.BaseURL == "" {
		return nil, fmt.Errorf("upstream base URL is required")
	}

	loc := picsum.Locator{
		BaseURL:     cfg.ImageBase(),
		FullSize:    cfg.Upstream.FullSize,
		PreviewSize: cfg.Upstream.PreviewSize,
	}
	return picsum.NewClient(cfg.Upstream.BaseURL, loc, cfg.Upstream.Timeout, logger), nil
}
