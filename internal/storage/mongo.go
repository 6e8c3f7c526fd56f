package storage

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/starford/lucid/internal/apperr"
)

// objectID wraps primitive.ObjectID so that String yields the bare hex form.
type objectID primitive.ObjectID

func (id objectID) String() string {
	return primitive.ObjectID(id).Hex()
}

// foreignID holds an _id of any other type, as found on documents written
// by other tools. Such ids are listed but cannot be looked up via ParseID.
type foreignID struct {
	v any
}

func (id foreignID) String() string {
	return fmt.Sprint(id.v)
}

// Mongo stores entries as native documents in a MongoDB collection.
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
}

var _ Provider = (*Mongo)(nil)

// OpenMongo connects to uri, verifies the connection and ensures the
// listing indexes exist on database.collection.
func OpenMongo(ctx context.Context, uri, database, collection string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("storage: connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("storage: ping mongo: %w", err)
	}

	coll := client.Database(database).Collection(collection)
	_, err = coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: FieldCreatedAt, Value: -1}}},
		{Keys: bson.D{{Key: FieldUser, Value: 1}, {Key: FieldCreatedAt, Value: -1}}},
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("storage: create mongo indexes: %w", err)
	}

	s := NewMongo(coll)
	s.client = client
	return s, nil
}

// NewMongo wraps an existing collection. Close is a no-op for stores
// built this way since the caller owns the client.
func NewMongo(coll *mongo.Collection) *Mongo {
	return &Mongo{coll: coll}
}

// ParseID decodes a 24-character hex ObjectID.
func (s *Mongo) ParseID(id string) (ID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", apperr.ErrInvalidID, id)
	}
	return objectID(oid), nil
}

// Insert stores doc and returns the ObjectID the driver assigned.
func (s *Mongo) Insert(ctx context.Context, doc Document) (ID, error) {
	res, err := s.coll.InsertOne(ctx, bson.M(doc))
	if err != nil {
		return nil, fmt.Errorf("storage: insert entry: %w", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("storage: unexpected inserted id type %T", res.InsertedID)
	}
	return objectID(oid), nil
}

// FindOne returns the document with the given ObjectID.
func (s *Mongo) FindOne(ctx context.Context, id ID) (*Record, error) {
	oid, ok := id.(objectID)
	if !ok {
		return nil, fmt.Errorf("%w: foreign identifier %v", apperr.ErrInvalidID, id)
	}
	var raw bson.M
	err := s.coll.FindOne(ctx, bson.M{"_id": primitive.ObjectID(oid)}).Decode(&raw)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("storage: find entry: %w", err)
	}
	return mongoRecord(raw)
}

// Find lists documents sorted by created_at descending.
func (s *Mongo) Find(ctx context.Context, q Query) ([]Record, error) {
	filter := bson.M{}
	if q.User != "" {
		filter[FieldUser] = q.User
	}
	opts := options.Find().SetSort(bson.D{{Key: FieldCreatedAt, Value: -1}})
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("storage: list entries: %w", err)
	}
	var raws []bson.M
	if err := cur.All(ctx, &raws); err != nil {
		return nil, fmt.Errorf("storage: decode entries: %w", err)
	}

	out := make([]Record, 0, len(raws))
	for _, raw := range raws {
		rec, err := mongoRecord(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, nil
}

// Ping checks the server connection.
func (s *Mongo) Ping(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client opened by OpenMongo.
func (s *Mongo) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

func mongoRecord(raw bson.M) (*Record, error) {
	var id ID
	switch v := raw["_id"].(type) {
	case primitive.ObjectID:
		id = objectID(v)
	default:
		id = foreignID{v: fromBSON(v)}
	}
	doc := make(Document, len(raw))
	for k, v := range raw {
		if k == "_id" {
			continue
		}
		doc[k] = fromBSON(v)
	}
	return &Record{ID: id, Fields: doc}, nil
}

// fromBSON converts driver-specific values into plain Go values.
func fromBSON(v any) any {
	switch t := v.(type) {
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = fromBSON(e)
		}
		return out
	case bson.M:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = fromBSON(e)
		}
		return out
	case primitive.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = fromBSON(e.Value)
		}
		return out
	default:
		return v
	}
}
