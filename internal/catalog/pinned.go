package catalog

import (
	"context"

	"github.com/mmcdole/reel/internal/domain"
)

// Pinned navigates one fixed snapshot for the lifetime of a viewer session.
// Refreshes of the shared cache do not affect it.
type Pinned struct {
	snapshot domain.Snapshot
}

func NewPinned(snap domain.Snapshot) *Pinned {
	return &Pinned{snapshot: snap}
}

func (p *Pinned) Snapshot() domain.Snapshot { return p.snapshot }

func (p *Pinned) FindByID(_ context.Context, id string) (domain.Story, error) {
	return findByID(p.snapshot, id)
}

func (p *Pinned) Neighbor(_ context.Context, id string, dir domain.Direction) (string, error) {
	return neighbor(p.snapshot, id, dir)
}

func (p *Pinned) Position(_ context.Context, id string) (int, int, bool) {
	return position(p.snapshot, id)
}

func (p *Pinned) Head(_ context.Context) (domain.Story, error) {
	return head(p.snapshot)
}

// Lookup is the read surface shared by Provider and Pinned
type Lookup interface {
	domain.Navigator
	FindByID(ctx context.Context, id string) (domain.Story, error)
	Position(ctx context.Context, id string) (int, int, bool)
	Head(ctx context.Context) (domain.Story, error)
}

var (
	_ Lookup = (*Provider)(nil)
	_ Lookup = (*Pinned)(nil)
)
