package domain

// Snapshot is one immutable fetched ordering of stories.
// Order defines navigation adjacency; ids are unique.
type Snapshot struct {
	stories []Story
	index   map[string]int
}

// NewSnapshot builds a snapshot, dropping stories with an empty id and
// keeping only the first occurrence of a repeated id.
func NewSnapshot(stories []Story) Snapshot {
	s := Snapshot{
		stories: make([]Story, 0, len(stories)),
		index:   make(map[string]int, len(stories)),
	}
	for _, story := range stories {
		if story.ID == "" {
			continue
		}
		if _, dup := s.index[story.ID]; dup {
			continue
		}
		s.index[story.ID] = len(s.stories)
		s.stories = append(s.stories, story)
	}
	return s
}

// Len returns the number of stories
func (s Snapshot) Len() int {
	return len(s.stories)
}

// IsEmpty reports whether the snapshot has no stories
func (s Snapshot) IsEmpty() bool {
	return len(s.stories) == 0
}

// At returns the story at position i
func (s Snapshot) At(i int) (Story, bool) {
	if i < 0 || i >= len(s.stories) {
		return Story{}, false
	}
	return s.stories[i], true
}

// Stories returns a copy of the ordered stories
func (s Snapshot) Stories() []Story {
	out := make([]Story, len(s.stories))
	copy(out, s.stories)
	return out
}

// IDs returns the ids in snapshot order
func (s Snapshot) IDs() []string {
	ids := make([]string, len(s.stories))
	for i, story := range s.stories {
		ids[i] = story.ID
	}
	return ids
}

// IndexOf returns the position of id, or -1 if absent
func (s Snapshot) IndexOf(id string) int {
	if i, ok := s.index[id]; ok {
		return i
	}
	return -1
}

// Find returns the story with the given id
func (s Snapshot) Find(id string) (Story, bool) {
	i := s.IndexOf(id)
	if i < 0 {
		return Story{}, false
	}
	return s.stories[i], true
}

// Neighbor returns the id adjacent to id, wrapping at both ends.
// Returns false when the snapshot is empty or id is absent.
func (s Snapshot) Neighbor(id string, dir Direction) (string, bool) {
	n := len(s.stories)
	if n == 0 {
		return "", false
	}
	i := s.IndexOf(id)
	if i < 0 {
		return "", false
	}
	if dir == Backward {
		return s.stories[(i-1+n)%n].ID, true
	}
	return s.stories[(i+1)%n].ID, true
}
