package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/starford/lucid/internal/apperr"
)

func namespace(mt *mtest.T) string {
	return mt.Coll.Database().Name() + "." + mt.Coll.Name()
}

func TestMongo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("insert returns object id", func(mt *mtest.T) {
		s := NewMongo(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		id, err := s.Insert(ctx, Document{FieldUser: "ann", FieldTitle: "t"})
		require.NoError(mt, err)
		_, err = primitive.ObjectIDFromHex(id.String())
		assert.NoError(mt, err)
	})

	mt.Run("insert failure propagates", func(mt *mtest.T) {
		s := NewMongo(mt.Coll)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		_, err := s.Insert(ctx, Document{FieldUser: "ann"})
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "insert entry")
	})

	mt.Run("find one converts bson values", func(mt *mtest.T) {
		s := NewMongo(mt.Coll)
		oid := primitive.NewObjectID()
		created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, bson.D{
			{Key: "_id", Value: oid},
			{Key: FieldUser, Value: "ann"},
			{Key: FieldTags, Value: bson.A{"lucid", "flight"}},
			{Key: FieldCreatedAt, Value: primitive.NewDateTimeFromTime(created)},
		}))

		rec, err := s.FindOne(ctx, objectID(oid))
		require.NoError(mt, err)
		assert.Equal(mt, oid.Hex(), rec.ID.String())
		assert.Equal(mt, "ann", rec.Fields[FieldUser])
		assert.Equal(mt, []any{"lucid", "flight"}, rec.Fields[FieldTags])
		got, ok := rec.Fields[FieldCreatedAt].(time.Time)
		require.True(mt, ok)
		assert.True(mt, got.Equal(created))
		_, hasID := rec.Fields["_id"]
		assert.False(mt, hasID)
	})

	mt.Run("find one missing", func(mt *mtest.T) {
		s := NewMongo(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch))

		_, err := s.FindOne(ctx, objectID(primitive.NewObjectID()))
		assert.ErrorIs(mt, err, apperr.ErrNotFound)
	})

	mt.Run("find keeps server order", func(mt *mtest.T) {
		s := NewMongo(mt.Coll)
		first, second := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch,
			bson.D{{Key: "_id", Value: second}, {Key: FieldUser, Value: "ann"}},
			bson.D{{Key: "_id", Value: first}, {Key: FieldUser, Value: "ann"}},
		))

		recs, err := s.Find(ctx, Query{User: "ann", Limit: 2})
		require.NoError(mt, err)
		require.Len(mt, recs, 2)
		assert.Equal(mt, second.Hex(), recs[0].ID.String())
		assert.Equal(mt, first.Hex(), recs[1].ID.String())
	})

	mt.Run("find tolerates non object id", func(mt *mtest.T) {
		s := NewMongo(mt.Coll)
		oid := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch,
			bson.D{{Key: "_id", Value: oid}, {Key: FieldUser, Value: "ann"}},
			bson.D{{Key: "_id", Value: "legacy-1"}, {Key: FieldUser, Value: "bob"}},
			bson.D{{Key: "_id", Value: int32(7)}, {Key: FieldUser, Value: "cid"}},
		))

		recs, err := s.Find(ctx, Query{Limit: 10})
		require.NoError(mt, err)
		require.Len(mt, recs, 3)
		assert.Equal(mt, oid.Hex(), recs[0].ID.String())
		assert.Equal(mt, "legacy-1", recs[1].ID.String())
		assert.Equal(mt, "bob", recs[1].Fields[FieldUser])
		assert.Equal(mt, "7", recs[2].ID.String())
	})

	mt.Run("find failure propagates", func(mt *mtest.T) {
		s := NewMongo(mt.Coll)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Name:    "BadValue",
			Message: "bad sort",
		}))

		_, err := s.Find(ctx, Query{})
		require.Error(mt, err)
	})
}

func TestMongoParseID(t *testing.T) {
	s := NewMongo(nil)

	_, err := s.ParseID("not-an-id")
	assert.ErrorIs(t, err, apperr.ErrInvalidID)

	oid := primitive.NewObjectID()
	id, err := s.ParseID(oid.Hex())
	require.NoError(t, err)
	assert.Equal(t, oid.Hex(), id.String())
}

func TestMongoFindOneForeignID(t *testing.T) {
	s := NewMongo(nil)
	_, err := s.FindOne(context.Background(), newUUIDID())
	assert.ErrorIs(t, err, apperr.ErrInvalidID)
}
