package storage

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoCollection = "cart_slots"

type mongoSlot struct {
	Key       string    `bson:"_id"`
	Value     string    `bson:"value"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// Mongo keeps the slot as one document keyed by _id.
type Mongo struct {
	collection *mongo.Collection
	key        string
}

func NewMongo(collection *mongo.Collection, key string) *Mongo {
	return &Mongo{collection: collection, key: key}
}

func (m *Mongo) Load(ctx context.Context) (string, error) {
	var slot mongoSlot
	err := m.collection.FindOne(ctx, bson.M{"_id": m.key}).Decode(&slot)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", ErrNotFound
		}
		return "", errors.Wrap(err, "failed to get cart slot")
	}
	return slot.Value, nil
}

func (m *Mongo) Save(ctx context.Context, value string) error {
	filter := bson.M{"_id": m.key}
	update := bson.M{"$set": bson.M{"value": value, "updated_at": time.Now()}}
	opts := options.Update().SetUpsert(true)

	if _, err := m.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return errors.Wrap(err, "failed to upsert cart slot")
	}
	return nil
}

func MongoFactory(db *mongo.Database) Factory {
	collection := db.Collection(mongoCollection)
	return func(key string) Storage {
		return NewMongo(collection, key)
	}
}

func ConnectMongoDB(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to MongoDB")
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, errors.Wrap(err, "failed to ping MongoDB")
	}

	return client.Database(database), nil
}
