package mongo

import (
	"reflect"
	"testing"
	"time"

	"curately/catalogservice/internal/domain"
)

func TestListDocRoundtrip(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	record := domain.ListRecord{
		ID:      "list-1",
		OwnerID: "user-7",
		Meta: domain.ListMeta{
			Title:         "Rainy day movies",
			Description:   "Comfort watches",
			Category:      domain.CategoryMovies,
			Visibility:    domain.ListVisibilityFriends,
			Collaborative: true,
			Ranked:        true,
			Tags:          []string{"cozy", "rewatch"},
		},
		ItemCount: 3,
		CreatedAt: now,
		UpdatedAt: now.Add(time.Minute),
	}

	got := fromListDoc(toListDoc(record))

	if got.ID != record.ID || got.OwnerID != record.OwnerID {
		t.Errorf("identity: got %q/%q, want %q/%q", got.ID, got.OwnerID, record.ID, record.OwnerID)
	}
	if !reflect.DeepEqual(got.Meta, record.Meta) {
		t.Errorf("meta: got %+v, want %+v", got.Meta, record.Meta)
	}
	if got.ItemCount != record.ItemCount {
		t.Errorf("itemCount: got %d, want %d", got.ItemCount, record.ItemCount)
	}
	// Time loses sub-second precision through Unix conversion.
	if got.CreatedAt.Unix() != record.CreatedAt.Unix() {
		t.Errorf("createdAt: got %v, want %v", got.CreatedAt, record.CreatedAt)
	}
	if got.UpdatedAt.Unix() != record.UpdatedAt.Unix() {
		t.Errorf("updatedAt: got %v, want %v", got.UpdatedAt, record.UpdatedAt)
	}
}

func TestListItemDocRoundtrip(t *testing.T) {
	record := domain.ListItemRecord{
		ID:          "item-1",
		ListID:      "list-1",
		Position:    2,
		ContentType: domain.ContentTypeBook,
		ContentID:   "B1a2C3",
		Title:       "Dune",
		Subtitle:    "Frank Herbert",
		ImageURL:    "https://books.google.com/books/content?id=B1a2C3",
		Raw:         []byte(`{"id":"B1a2C3"}`),
	}

	got := fromListItemDoc(listItemDoc{
		ID:          record.ID,
		ListID:      record.ListID,
		Position:    record.Position,
		ContentType: string(record.ContentType),
		ContentID:   record.ContentID,
		Title:       record.Title,
		Subtitle:    record.Subtitle,
		ImageURL:    record.ImageURL,
		Raw:         record.Raw,
	})

	if got.ContentType != domain.ContentTypeBook || got.Position != 2 {
		t.Errorf("unexpected mapping: %+v", got)
	}
	if string(got.Raw) != string(record.Raw) {
		t.Errorf("raw payload: got %s, want %s", got.Raw, record.Raw)
	}
}

func TestUserDocRoundtrip(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	record := domain.UserRecord{
		ID:          "user-1",
		Username:    "ana.lists",
		DisplayName: "Ana Moreira",
		AvatarURL:   "https://cdn.curately.app/avatars/user-1.png",
		Bio:         "Top 10s of everything",
		CreatedAt:   now,
	}

	got := fromUserDoc(toUserDoc(record))
	if got.Username != record.Username || got.DisplayName != record.DisplayName || got.Bio != record.Bio {
		t.Errorf("unexpected mapping: %+v", got)
	}
	if got.CreatedAt.Unix() != record.CreatedAt.Unix() {
		t.Errorf("createdAt: got %v, want %v", got.CreatedAt, record.CreatedAt)
	}
}
