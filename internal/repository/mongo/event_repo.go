package mongo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/vedran77/glamplanner/internal/domain"
	"github.com/vedran77/glamplanner/internal/repository"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type EventRepo struct {
	coll *mongo.Collection
}

func NewEventRepo(db *mongo.Database) *EventRepo {
	return &EventRepo{coll: db.Collection(eventsCollection)}
}

func (r *EventRepo) Create(ctx context.Context, e *domain.Event) error {
	urls := e.ContentImageURLs
	if urls == nil {
		urls = []string{}
	}
	_, err := r.coll.InsertOne(ctx, eventDoc{
		ID:               e.ID.String(),
		Title:            e.Title,
		Description:      e.Description,
		ImageURL:         e.ImageURL,
		ContentImageURLs: urls,
		CreatedBy:        e.CreatedBy.String(),
		CreatedAt:        e.CreatedAt,
	})
	return err
}

func (r *EventRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	var doc eventDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	e := doc.toDomain()
	return &e, nil
}

func (r *EventRepo) List(ctx context.Context) ([]domain.Event, error) {
	cursor, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	var docs []eventDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	events := make([]domain.Event, len(docs))
	for i, d := range docs {
		events[i] = d.toDomain()
	}
	return events, nil
}

func (r *EventRepo) Update(ctx context.Context, id uuid.UUID, patch domain.EventPatch) error {
	set := bson.M{}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.ImageURL != nil {
		set["image_url"] = *patch.ImageURL
	}

	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(patch.NewContentImages) > 0 {
		update["$addToSet"] = bson.M{"content_image_urls": bson.M{"$each": patch.NewContentImages}}
	}

	if len(update) == 0 {
		n, err := r.coll.CountDocuments(ctx, bson.M{"_id": id.String()})
		if err != nil {
			return err
		}
		if n == 0 {
			return repository.ErrNotFound
		}
		return nil
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id.String()}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *EventRepo) PullContentImage(ctx context.Context, id uuid.UUID, url string) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id.String()}, bson.M{
		"$pull": bson.M{"content_image_urls": url},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *EventRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
