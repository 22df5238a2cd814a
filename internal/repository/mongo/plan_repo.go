package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/glamplanner/internal/domain"
	"github.com/vedran77/glamplanner/internal/repository"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type PlanRepo struct {
	coll *mongo.Collection
}

func NewPlanRepo(db *mongo.Database) *PlanRepo {
	return &PlanRepo{coll: db.Collection(plansCollection)}
}

func (r *PlanRepo) Create(ctx context.Context, t *domain.PlanThread) error {
	_, err := r.coll.InsertOne(ctx, toPlanDoc(t))
	return err
}

func (r *PlanRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.PlanThread, error) {
	var doc planDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	t := doc.toDomain()
	return &t, nil
}

func (r *PlanRepo) ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]domain.PlanThread, error) {
	id := requesterID.String()
	return r.list(ctx, bson.M{"requester_id": id, "hidden_by": bson.M{"$ne": id}})
}

func (r *PlanRepo) ListByResponder(ctx context.Context, responderID uuid.UUID) ([]domain.PlanThread, error) {
	id := responderID.String()
	return r.list(ctx, bson.M{"responder_id": id, "hidden_by": bson.M{"$ne": id}})
}

func (r *PlanRepo) PushReply(ctx context.Context, threadID uuid.UUID, reply domain.Reply, at time.Time) error {
	return r.updateOne(ctx, bson.M{"_id": threadID.String()}, bson.M{
		"$push": bson.M{"replies": toReplyDoc(reply)},
		"$set":  bson.M{"updated_at": at},
	})
}

func (r *PlanRepo) PullReply(ctx context.Context, threadID, replyID uuid.UUID, at time.Time) error {
	return r.updateOne(ctx, bson.M{"_id": threadID.String()}, bson.M{
		"$pull": bson.M{"replies": bson.M{"_id": replyID.String()}},
		"$set":  bson.M{"updated_at": at},
	})
}

func (r *PlanRepo) AddThreadHiddenBy(ctx context.Context, threadID, actorID uuid.UUID, at time.Time) error {
	return r.updateOne(ctx, bson.M{"_id": threadID.String()}, bson.M{
		"$addToSet": bson.M{"hidden_by": actorID.String()},
		"$set":      bson.M{"updated_at": at},
	})
}

func (r *PlanRepo) AddReplyHiddenBy(ctx context.Context, threadID, replyID, actorID uuid.UUID, at time.Time) error {
	return r.updateOne(ctx,
		bson.M{"_id": threadID.String(), "replies._id": replyID.String()},
		bson.M{
			"$addToSet": bson.M{"replies.$.hidden_by": actorID.String()},
			"$set":      bson.M{"updated_at": at},
		})
}

func (r *PlanRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *PlanRepo) updateOne(ctx context.Context, filter, update bson.M) error {
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *PlanRepo) list(ctx context.Context, filter bson.M) ([]domain.PlanThread, error) {
	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	var docs []planDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	threads := make([]domain.PlanThread, len(docs))
	for i, d := range docs {
		threads[i] = d.toDomain()
	}
	return threads, nil
}
