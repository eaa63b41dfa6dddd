package domain

import "fmt"

// Story is a single entry in the catalog
type Story struct {
	ID              string // Upstream identifier, unique within a snapshot
	Title           string // Display title
	ImageURL        string // Full-resolution image locator
	PreviewImageURL string // Thumbnail locator for feed cards
	AltText         string // Accessibility description
	Hint            string // Auxiliary metadata, opaque to the core

	// Upstream attribution
	Author    string
	Width     int
	Height    int
	SourceURL string // Original photo page
}

// Dimensions returns the source dimensions (e.g., "5000x3333")
func (s Story) Dimensions() string {
	if s.Width <= 0 || s.Height <= 0 {
		return ""
	}
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Orientation returns "landscape", "portrait" or "square" based on source dimensions
func (s Story) Orientation() string {
	switch {
	case s.Width <= 0 || s.Height <= 0:
		return ""
	case s.Width > s.Height:
		return "landscape"
	case s.Height > s.Width:
		return "portrait"
	default:
		return "square"
	}
}

// Direction selects which neighbor to resolve
type Direction int

const (
	Forward Direction = iota
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}
