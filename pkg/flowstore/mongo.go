package flowstore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/userflow/pkg/userflow"
)

// Mongo stores one document per flow, keyed by the flow id.
type Mongo struct {
	coll *mongo.Collection
}

var _ userflow.SnapshotStore = (*Mongo)(nil)

func NewMongo(coll *mongo.Collection) *Mongo {
	return &Mongo{coll: coll}
}

// NewMongoFromConfig uses the database and collection named in cfg.
func NewMongoFromConfig(client *mongo.Client, cfg MongoConfig) *Mongo {
	return NewMongo(client.Database(cfg.Database).Collection(cfg.Collection))
}

// ConnectMongo creates a client and pings the primary, retrying RetryAttempts times.
func ConnectMongo(ctx context.Context, cfg MongoConfig) (*mongo.Client, error) {
	var lastErr error
	for range cfg.RetryAttempts {
		client, err := mongo.Connect(
			options.Client().
				ApplyURI(cfg.ConnectionURL).
				SetConnectTimeout(cfg.ConnectTimeout).
				SetMaxPoolSize(cfg.MaxPoolSize).
				SetMinPoolSize(cfg.MinPoolSize).
				SetMaxConnIdleTime(cfg.MaxConnIdleTime).
				SetRetryWrites(cfg.RetryWrites).
				SetRetryReads(cfg.RetryReads),
		)
		if err == nil {
			if err = client.Ping(ctx, nil); err == nil {
				return client, nil
			}
			_ = client.Disconnect(ctx)
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrFailedToConnectToMongo, ctx.Err())
		case <-time.After(cfg.RetryInterval):
		}
	}

	return nil, errors.Join(ErrFailedToConnectToMongo, lastErr)
}

type snapshotDocument struct {
	FlowID    string           `bson:"_id"`
	State     string           `bson:"state"`
	UserID    string           `bson:"user_id"`
	Email     string           `bson:"email,omitempty"`
	ProductID string           `bson:"product_id,omitempty"`
	Receipt   *receiptDocument `bson:"receipt,omitempty"`
	Version   int64            `bson:"version"`
	UpdatedAt time.Time        `bson:"updated_at"`
}

type receiptDocument struct {
	ID        string    `bson:"id"`
	ProductID string    `bson:"product_id"`
	ChargedAt time.Time `bson:"charged_at"`
}

// EnsureIndexes creates the user_id index used to look up a user's flows.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	_, err := m.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}},
	})
	return err
}

// Save upserts the document only when the stored version is lower. When a newer
// document exists the filter misses, the upsert collides on _id and the
// duplicate key error is reported as ErrStaleSnapshot.
func (m *Mongo) Save(ctx context.Context, snap userflow.Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}

	doc := toDocument(snap)
	filter := bson.D{
		{Key: "_id", Value: doc.FlowID},
		{Key: "version", Value: bson.D{{Key: "$lt", Value: doc.Version}}},
	}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "state", Value: doc.State},
		{Key: "user_id", Value: doc.UserID},
		{Key: "email", Value: doc.Email},
		{Key: "product_id", Value: doc.ProductID},
		{Key: "receipt", Value: doc.Receipt},
		{Key: "version", Value: doc.Version},
		{Key: "updated_at", Value: doc.UpdatedAt},
	}}}

	_, err := m.coll.UpdateOne(ctx, filter, update, options.UpdateOne().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrStaleSnapshot
		}
		return err
	}
	return nil
}

func (m *Mongo) Load(ctx context.Context, flowID uuid.UUID) (userflow.Snapshot, error) {
	var doc snapshotDocument
	if err := m.coll.FindOne(ctx, bson.D{{Key: "_id", Value: flowID.String()}}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return userflow.Snapshot{}, ErrNotFound
		}
		return userflow.Snapshot{}, errors.Join(ErrDecodeSnapshot, err)
	}
	return fromDocument(doc)
}

func (m *Mongo) Delete(ctx context.Context, flowID uuid.UUID) error {
	_, err := m.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: flowID.String()}})
	return err
}

// Healthcheck pings the deployment.
func (m *Mongo) Healthcheck(ctx context.Context) error {
	if err := m.coll.Database().Client().Ping(ctx, nil); err != nil {
		return errors.Join(ErrHealthcheckFailed, err)
	}
	return nil
}

func toDocument(s userflow.Snapshot) snapshotDocument {
	doc := snapshotDocument{
		FlowID:    s.FlowID.String(),
		State:     string(s.State),
		UserID:    s.Subject.UserID,
		Email:     s.Subject.Email,
		ProductID: s.Subject.ProductID,
		Version:   int64(s.Version),
		UpdatedAt: s.UpdatedAt.UTC(),
	}
	if s.Receipt != nil {
		doc.Receipt = &receiptDocument{
			ID:        s.Receipt.ID,
			ProductID: s.Receipt.ProductID,
			ChargedAt: s.Receipt.ChargedAt.UTC(),
		}
	}
	return doc
}

func fromDocument(doc snapshotDocument) (userflow.Snapshot, error) {
	id, err := uuid.Parse(doc.FlowID)
	if err != nil {
		return userflow.Snapshot{}, errors.Join(ErrDecodeSnapshot, err)
	}
	snap := userflow.Snapshot{
		FlowID: id,
		State:  userflow.StateID(doc.State),
		Subject: userflow.Subject{
			UserID:    doc.UserID,
			Email:     doc.Email,
			ProductID: doc.ProductID,
		},
		Version:   uint64(doc.Version),
		UpdatedAt: doc.UpdatedAt,
	}
	if doc.Receipt != nil {
		snap.Receipt = &userflow.Receipt{
			ID:        doc.Receipt.ID,
			ProductID: doc.Receipt.ProductID,
			ChargedAt: doc.Receipt.ChargedAt,
		}
	}
	return snap, nil
}
