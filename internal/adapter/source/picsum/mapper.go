package picsum

import (
	"fmt"
	"strings"

	"github.com/mmcdole/reel/internal/domain"
)

// Locator builds image URLs from an identifier template: <base>/id/<id>/<w>/<h>
type Locator struct {
	BaseURL     string
	FullSize    int
	PreviewSize int
}

// Full returns the full-resolution image URL for id
func (l Locator) Full(id string) string {
	return l.url(id, l.FullSize)
}

// Preview returns the thumbnail URL for id
func (l Locator) Preview(id string) string {
	return l.url(id, l.PreviewSize)
}

func (l Locator) url(id string, size int) string {
	return fmt.Sprintf("%s/id/%s/%d/%d", strings.TrimRight(l.BaseURL, "/"), id, size, size)
}

// MapStories converts listing records to domain stories, preserving order
func MapStories(images []Image, loc Locator) []domain.Story {
	stories := make([]domain.Story, 0, len(images))
	for _, img := range images {
		if img.ID == "" {
			continue
		}
		stories = append(stories, mapStory(img, loc))
	}
	return stories
}

// mapStory converts a single listing record to a domain story
func mapStory(img Image, loc Locator) domain.Story {
	id := string(img.ID)
	return domain.Story{
		ID:              id,
		Title:           fmt.Sprintf("Photo by %s", img.Author),
		ImageURL:        loc.Full(id),
		PreviewImageURL: loc.Preview(id),
		AltText:         fmt.Sprintf("Photograph by %s, dimensions: %dx%d", img.Author, img.Width, img.Height),
		Hint:            img.Author,
		Author:          img.Author,
		Width:           img.Width,
		Height:          img.Height,
		SourceURL:       img.URL,
	}
}
