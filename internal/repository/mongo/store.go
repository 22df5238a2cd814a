package mongo

import (
	"context"

	"github.com/vedran77/glamplanner/internal/repository"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

const (
	usersCollection   = "users"
	plansCollection   = "plans"
	galleryCollection = "gallery"
	eventsCollection  = "events"
)

func NewStore(client *mongo.Client, db *mongo.Database) *repository.Store {
	return &repository.Store{
		Users:   NewUserRepo(db),
		Plans:   NewPlanRepo(db),
		Gallery: NewGalleryRepo(db),
		Events:  NewEventRepo(db),
		Ping:    func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) },
		Close:   func() { _ = client.Disconnect(context.Background()) },
	}
}
