package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"curately/catalogservice/internal/domain"
)

// Repository persists committed lists and their ordered items, and serves the
// member directory backing the users adapter. Lists and items live in
// separate collections; a commit is two writes, not a transaction (see
// SaveList).
type Repository struct {
	lists *mongo.Collection
	items *mongo.Collection
	users *mongo.Collection
}

type listDoc struct {
	ID            string   `bson:"_id"`
	OwnerID       string   `bson:"ownerId,omitempty"`
	Title         string   `bson:"title"`
	Description   string   `bson:"description,omitempty"`
	Category      string   `bson:"category,omitempty"`
	Visibility    string   `bson:"visibility,omitempty"`
	Collaborative bool     `bson:"collaborative,omitempty"`
	Ranked        bool     `bson:"ranked,omitempty"`
	Tags          []string `bson:"tags,omitempty"`
	ItemCount     int      `bson:"itemCount"`
	CreatedAt     int64    `bson:"createdAt"`
	UpdatedAt     int64    `bson:"updatedAt"`
}

type listItemDoc struct {
	ID          string `bson:"_id"`
	ListID      string `bson:"listId"`
	Position    int    `bson:"position"`
	ContentType string `bson:"contentType"`
	ContentID   string `bson:"contentId"`
	Title       string `bson:"title"`
	Subtitle    string `bson:"subtitle,omitempty"`
	ImageURL    string `bson:"imageUrl,omitempty"`
	Raw         []byte `bson:"raw,omitempty"`
}

type userDoc struct {
	ID          string `bson:"_id"`
	Username    string `bson:"username"`
	DisplayName string `bson:"displayName"`
	AvatarURL   string `bson:"avatarUrl,omitempty"`
	Bio         string `bson:"bio,omitempty"`
	CreatedAt   int64  `bson:"createdAt"`
}

func NewRepository(client *mongo.Client, dbName string) *Repository {
	db := client.Database(dbName)
	return &Repository{
		lists: db.Collection("lists"),
		items: db.Collection("list_items"),
		users: db.Collection("users"),
	}
}

func Connect(ctx context.Context, uri string, extra ...*options.ClientOptions) (*mongo.Client, error) {
	opts := append([]*options.ClientOptions{options.Client().ApplyURI(uri)}, extra...)
	client, err := mongo.Connect(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (r *Repository) EnsureIndexes(ctx context.Context) error {
	if r == nil {
		return nil
	}
	if _, err := r.lists.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "ownerId", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	}); err != nil {
		return err
	}
	if _, err := r.items.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "listId", Value: 1}, {Key: "position", Value: 1}}},
	}); err != nil {
		return err
	}
	_, err := r.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "displayName", Value: 1}}},
	})
	return err
}

// SaveList persists one submission as a list document followed by its item
// documents. The two writes are not atomic: when the second write fails the
// list document is removed best-effort and domain.ErrPartialWrite is
// returned, so the caller can tell a half-persisted commit from a clean
// failure.
func (r *Repository) SaveList(ctx context.Context, owner domain.SessionContext, submission domain.ListSubmission) (domain.ListRecord, error) {
	if len(submission.Items) == 0 {
		return domain.ListRecord{}, domain.ErrEmptyDraft
	}

	now := time.Now().UTC()
	record := domain.ListRecord{
		ID:        uuid.NewString(),
		OwnerID:   owner.UserID,
		Meta:      submission.Meta,
		ItemCount: len(submission.Items),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := r.lists.InsertOne(ctx, toListDoc(record)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ListRecord{}, domain.ErrAlreadyExists
		}
		return domain.ListRecord{}, err
	}

	docs := make([]interface{}, 0, len(submission.Items))
	for _, item := range submission.Items {
		docs = append(docs, listItemDoc{
			ID:          uuid.NewString(),
			ListID:      record.ID,
			Position:    item.Position,
			ContentType: string(item.ContentType),
			ContentID:   item.ContentID,
			Title:       item.Title,
			Subtitle:    item.Subtitle,
			ImageURL:    item.ImageURL,
			Raw:         item.Raw,
		})
	}
	if _, err := r.items.InsertMany(ctx, docs); err != nil {
		if _, delErr := r.lists.DeleteOne(ctx, bson.M{"_id": record.ID}); delErr != nil {
			slog.Error("compensating list delete failed",
				slog.String("listId", record.ID),
				slog.String("error", delErr.Error()),
			)
		}
		return domain.ListRecord{}, fmt.Errorf("%w: %s", domain.ErrPartialWrite, err.Error())
	}
	return record, nil
}

func (r *Repository) GetList(ctx context.Context, id string) (domain.ListRecord, []domain.ListItemRecord, error) {
	var doc listDoc
	if err := r.lists.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.ListRecord{}, nil, domain.ErrNotFound
		}
		return domain.ListRecord{}, nil, err
	}

	cursor, err := r.items.Find(ctx, bson.M{"listId": id},
		options.Find().SetSort(bson.D{{Key: "position", Value: 1}}))
	if err != nil {
		return domain.ListRecord{}, nil, err
	}
	defer cursor.Close(ctx)

	items := make([]domain.ListItemRecord, 0, doc.ItemCount)
	for cursor.Next(ctx) {
		var itemDoc listItemDoc
		if err := cursor.Decode(&itemDoc); err != nil {
			return domain.ListRecord{}, nil, err
		}
		items = append(items, fromListItemDoc(itemDoc))
	}
	if err := cursor.Err(); err != nil {
		return domain.ListRecord{}, nil, err
	}
	return fromListDoc(doc), items, nil
}

// SearchUsers implements the users adapter's Directory interface: substring
// match on display name or username, case-insensitive.
func (r *Repository) SearchUsers(ctx context.Context, query string, limit int) ([]domain.UserRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	pattern := regexp.QuoteMeta(strings.TrimSpace(query))
	filter := bson.M{"$or": bson.A{
		bson.M{"displayName": bson.M{"$regex": pattern, "$options": "i"}},
		bson.M{"username": bson.M{"$regex": pattern, "$options": "i"}},
	}}

	cursor, err := r.users.Find(ctx, filter,
		options.Find().SetLimit(int64(limit)).SetSort(bson.D{{Key: "displayName", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	records := make([]domain.UserRecord, 0, limit)
	for cursor.Next(ctx) {
		var doc userDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		records = append(records, fromUserDoc(doc))
	}
	return records, cursor.Err()
}

// UpsertUser seeds or updates one directory member.
func (r *Repository) UpsertUser(ctx context.Context, record domain.UserRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	_, err := r.users.UpdateOne(ctx,
		bson.M{"_id": record.ID},
		bson.M{"$set": toUserDoc(record)},
		options.Update().SetUpsert(true),
	)
	return err
}

func toListDoc(record domain.ListRecord) listDoc {
	return listDoc{
		ID:            record.ID,
		OwnerID:       record.OwnerID,
		Title:         record.Meta.Title,
		Description:   record.Meta.Description,
		Category:      string(record.Meta.Category),
		Visibility:    string(record.Meta.Visibility),
		Collaborative: record.Meta.Collaborative,
		Ranked:        record.Meta.Ranked,
		Tags:          record.Meta.Tags,
		ItemCount:     record.ItemCount,
		CreatedAt:     record.CreatedAt.Unix(),
		UpdatedAt:     record.UpdatedAt.Unix(),
	}
}

func fromListDoc(doc listDoc) domain.ListRecord {
	return domain.ListRecord{
		ID:      doc.ID,
		OwnerID: doc.OwnerID,
		Meta: domain.ListMeta{
			Title:         doc.Title,
			Description:   doc.Description,
			Category:      domain.CategoryKey(doc.Category),
			Visibility:    domain.ListVisibility(doc.Visibility),
			Collaborative: doc.Collaborative,
			Ranked:        doc.Ranked,
			Tags:          doc.Tags,
		},
		ItemCount: doc.ItemCount,
		CreatedAt: time.Unix(doc.CreatedAt, 0).UTC(),
		UpdatedAt: time.Unix(doc.UpdatedAt, 0).UTC(),
	}
}

func fromListItemDoc(doc listItemDoc) domain.ListItemRecord {
	return domain.ListItemRecord{
		ID:          doc.ID,
		ListID:      doc.ListID,
		Position:    doc.Position,
		ContentType: domain.ContentType(doc.ContentType),
		ContentID:   doc.ContentID,
		Title:       doc.Title,
		Subtitle:    doc.Subtitle,
		ImageURL:    doc.ImageURL,
		Raw:         doc.Raw,
	}
}

func toUserDoc(record domain.UserRecord) userDoc {
	return userDoc{
		ID:          record.ID,
		Username:    record.Username,
		DisplayName: record.DisplayName,
		AvatarURL:   record.AvatarURL,
		Bio:         record.Bio,
		CreatedAt:   record.CreatedAt.Unix(),
	}
}

func fromUserDoc(doc userDoc) domain.UserRecord {
	return domain.UserRecord{
		ID:          doc.ID,
		Username:    doc.Username,
		DisplayName: doc.DisplayName,
		AvatarURL:   doc.AvatarURL,
		Bio:         doc.Bio,
		CreatedAt:   time.Unix(doc.CreatedAt, 0).UTC(),
	}
}
