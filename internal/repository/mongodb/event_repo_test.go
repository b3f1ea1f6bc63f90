package mongodb

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"collegeevents/internal/domain"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

var (
	testCreated = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	testDate    = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
)

func namespace(mt *mtest.T) string {
	return mt.Coll.Database().Name() + "." + mt.Coll.Name()
}

func eventDoc(id primitive.ObjectID, title string, date time.Time) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "title", Value: title},
		{Key: "description", Value: "Annual fest"},
		{Key: "eventType", Value: "Technical"},
		{Key: "date", Value: primitive.NewDateTimeFromTime(date)},
		{Key: "location", Value: "Main Hall"},
		{Key: "image", Value: "uploads/1.png"},
		{Key: "createdAt", Value: primitive.NewDateTimeFromTime(testCreated)},
		{Key: "updatedAt", Value: primitive.NewDateTimeFromTime(testCreated)},
	}
}

func newTestEvent() *domain.Event {
	return domain.NewEvent("Tech Fest", "Annual fest", "Technical", testDate, "Main Hall", "uploads/1.png", testCreated, testCreated)
}

func TestEventRepository_Create(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("success assigns object id", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		event := newTestEvent()

		err := NewEventRepository(mt.Coll).Create(ctx, event)
		require.NoError(mt, err)
		_, err = primitive.ObjectIDFromHex(event.ID)
		require.NoError(mt, err)
	})

	mt.Run("validation rejection", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    121,
			Message: "Document failed validation",
		}))
		event := newTestEvent()

		err := NewEventRepository(mt.Coll).Create(ctx, event)
		require.ErrorIs(mt, err, domain.ErrPersistence)
		require.Empty(mt, event.ID)
	})

	mt.Run("command error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    91,
			Message: "shutdown in progress",
		}))

		err := NewEventRepository(mt.Coll).Create(ctx, newTestEvent())
		require.Error(mt, err)
		require.NotErrorIs(mt, err, domain.ErrPersistence)
	})
}

func TestEventRepository_CreateThenGetReturnsSameRecord(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("sub-millisecond local times", func(mt *mtest.T) {
		ist := time.FixedZone("IST", 5*3600+1800)
		created := time.Date(2024, 3, 1, 12, 0, 0, 123456789, ist)
		date := time.Date(2024, 3, 15, 9, 30, 0, 987654321, ist)
		event := domain.NewEvent("Tech Fest", "Annual fest", "Technical", date, "Main Hall", "uploads/1.png", created, created)
		repo := NewEventRepository(mt.Coll)

		mt.AddMockResponses(mtest.CreateSuccessResponse())
		require.NoError(mt, repo.Create(ctx, event))
		createResponse, err := json.Marshal(event)
		require.NoError(mt, err)

		// Serve back exactly what the insert wrote.
		inserted := mt.GetStartedEvent().Command.Lookup("documents").Array().Index(0).Value().Document()
		var stored bson.D
		require.NoError(mt, bson.Unmarshal(inserted, &stored))
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, stored))

		got, err := repo.GetByID(ctx, event.ID)
		require.NoError(mt, err)
		getResponse, err := json.Marshal(got)
		require.NoError(mt, err)

		require.JSONEq(mt, string(createResponse), string(getResponse))
		require.Equal(mt, "2024-03-01T06:30:00.123Z", got.CreatedAt.Format(time.RFC3339Nano))
	})
}

func TestEventRepository_GetByID(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("success", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, eventDoc(id, "Tech Fest", testDate)))

		got, err := NewEventRepository(mt.Coll).GetByID(ctx, id.Hex())
		require.NoError(mt, err)
		require.Equal(mt, id.Hex(), got.ID)
		require.Equal(mt, "Tech Fest", got.Title)
		require.Equal(mt, "Technical", got.EventType)
		require.Equal(mt, "Main Hall", got.Location)
		require.Equal(mt, "uploads/1.png", got.Image)
		require.True(mt, testDate.Equal(got.Date))
		require.True(mt, testCreated.Equal(got.UpdatedAt))
	})

	mt.Run("not found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch))

		got, err := NewEventRepository(mt.Coll).GetByID(ctx, primitive.NewObjectID().Hex())
		require.ErrorIs(mt, err, domain.ErrNotFound)
		require.Nil(mt, got)
	})

	mt.Run("malformed id", func(mt *mtest.T) {
		got, err := NewEventRepository(mt.Coll).GetByID(ctx, "nope")
		require.ErrorIs(mt, err, domain.ErrNotFound)
		require.Nil(mt, got)
	})
}

func TestEventRepository_List(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("decodes every document and sorts by date desc", func(mt *mtest.T) {
		newer, older := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch,
			eventDoc(newer, "Sports Day", testDate.AddDate(0, 2, 0)),
			eventDoc(older, "Tech Fest", testDate),
		))

		got, err := NewEventRepository(mt.Coll).List(ctx)
		require.NoError(mt, err)
		require.Len(mt, got, 2)
		require.Equal(mt, newer.Hex(), got[0].ID)
		require.Equal(mt, older.Hex(), got[1].ID)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		require.Equal(mt, "find", started.CommandName)
		sort := started.Command.Lookup("sort").Document()
		require.Equal(mt, int32(-1), sort.Lookup("date").Int32())
		require.Equal(mt, int32(-1), sort.Lookup("createdAt").Int32())
	})

	mt.Run("empty collection", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch))

		got, err := NewEventRepository(mt.Coll).List(ctx)
		require.NoError(mt, err)
		require.NotNil(mt, got)
		require.Empty(mt, got)
	})
}

func TestEventRepository_Save(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("replaces matched document", func(mt *mtest.T) {
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 1}, {Key: "nModified", Value: 1}})
		event := newTestEvent()
		event.ID = primitive.NewObjectID().Hex()

		require.NoError(mt, NewEventRepository(mt.Coll).Save(ctx, event))
	})

	mt.Run("no match is not found", func(mt *mtest.T) {
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 0}, {Key: "nModified", Value: 0}})
		event := newTestEvent()
		event.ID = primitive.NewObjectID().Hex()

		require.ErrorIs(mt, NewEventRepository(mt.Coll).Save(ctx, event), domain.ErrNotFound)
	})

	mt.Run("malformed id", func(mt *mtest.T) {
		event := newTestEvent()
		event.ID = "xyz"

		require.ErrorIs(mt, NewEventRepository(mt.Coll).Save(ctx, event), domain.ErrNotFound)
	})
}

func TestEventRepository_Delete(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("deleted", func(mt *mtest.T) {
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 1}})

		require.NoError(mt, NewEventRepository(mt.Coll).Delete(ctx, primitive.NewObjectID().Hex()))
	})

	mt.Run("nothing matched", func(mt *mtest.T) {
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 0}})

		require.ErrorIs(mt, NewEventRepository(mt.Coll).Delete(ctx, primitive.NewObjectID().Hex()), domain.ErrNotFound)
	})
}

func TestEventRepository_PingAndIndexes(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("ping", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		require.NoError(mt, NewEventRepository(mt.Coll).Ping(ctx))
	})

	mt.Run("ensure indexes", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		require.NoError(mt, EnsureIndexes(ctx, mt.Coll))
	})
}
