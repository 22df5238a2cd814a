package mongo

import (
	"context"

	"github.com/google/uuid"
	"github.com/vedran77/glamplanner/internal/domain"
	"github.com/vedran77/glamplanner/internal/repository"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type GalleryRepo struct {
	coll *mongo.Collection
}

func NewGalleryRepo(db *mongo.Database) *GalleryRepo {
	return &GalleryRepo{coll: db.Collection(galleryCollection)}
}

func (r *GalleryRepo) Create(ctx context.Context, img *domain.GalleryImage) error {
	_, err := r.coll.InsertOne(ctx, galleryDoc{
		ID:        img.ID.String(),
		URL:       img.URL,
		Desc:      img.Desc,
		User:      img.User,
		CreatedAt: img.CreatedAt,
	})
	return err
}

func (r *GalleryRepo) List(ctx context.Context) ([]domain.GalleryImage, error) {
	cursor, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	var docs []galleryDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	images := make([]domain.GalleryImage, len(docs))
	for i, d := range docs {
		images[i] = domain.GalleryImage{
			ID:        uuid.MustParse(d.ID),
			URL:       d.URL,
			Desc:      d.Desc,
			User:      d.User,
			CreatedAt: d.CreatedAt,
		}
	}
	return images, nil
}

func (r *GalleryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
