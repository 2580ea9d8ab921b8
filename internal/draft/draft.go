package draft

import (
	"strings"
	"sync"
	"time"

	"curately/catalogservice/internal/domain"
)

// Draft accumulates items selected during one list-creation session. Items
// are kept in insertion order and are unique by ID: selecting an
// already-selected ID removes it, and selecting it again afterwards appends
// it at the end.
type Draft struct {
	mu    sync.Mutex
	items []domain.DraftItem
	now   func() time.Time
}

func New() *Draft {
	return &Draft{now: time.Now}
}

// Toggle adds the item when its ID is absent and removes it when present.
// It reports whether the item is selected after the call.
func (d *Draft) Toggle(item domain.CatalogItem) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, existing := range d.items {
		if existing.ID == item.ID {
			d.items = append(d.items[:i], d.items[i+1:]...)
			return false
		}
	}
	d.items = append(d.items, domain.DraftItem{
		CatalogItem: item,
		AddedAt:     d.now(),
	})
	return true
}

// Remove deletes the item with the given ID; absent IDs are a no-op.
func (d *Draft) Remove(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, existing := range d.items {
		if existing.ID == id {
			d.items = append(d.items[:i], d.items[i+1:]...)
			return true
		}
	}
	return false
}

// Items returns the current selection in insertion order.
func (d *Draft) Items() []domain.DraftItem {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]domain.DraftItem(nil), d.items...)
}

// Len reports the current selection size.
func (d *Draft) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.items)
}

// Commit validates the draft and freezes it into a submission: positions are
// assigned as the contiguous 1-based sequence of the current insertion order.
// The draft itself is left untouched; callers discard it after a successful
// persist.
func (d *Draft) Commit(meta domain.ListMeta) (domain.ListSubmission, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.items) == 0 {
		return domain.ListSubmission{}, domain.ErrEmptyDraft
	}
	if strings.TrimSpace(meta.Title) == "" {
		return domain.ListSubmission{}, domain.ErrEmptyTitle
	}

	items := make([]domain.DraftItem, len(d.items))
	copy(items, d.items)
	for i := range items {
		items[i].Position = i + 1
	}
	return domain.ListSubmission{Meta: meta, Items: items}, nil
}
