package mongo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/comandaclub/comanda/internal/comanda"
	"github.com/comandaclub/comanda/pkg/enums/orderstatus"
)

type OrderRepo struct {
	collection *mongo.Collection
	aggregates *mongo.Collection
}

func NewOrderRepo(db *mongo.Database) *OrderRepo {
	return &OrderRepo{
		collection: db.Collection("orders"),
		aggregates: db.Collection("aggregates"),
	}
}

// EnsureIndexes creates the lookup indexes and seeds the order number
// counter from the highest number already on record, so restarting
// against an existing database never reissues a live number.
func (r *OrderRepo) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "number", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: 1}}},
	}
	if _, err := r.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("cannot create order indexes: %w", err)
	}

	max, err := r.MaxNumber(ctx)
	if err != nil {
		return err
	}

	_, err = r.aggregates.UpdateOne(ctx,
		bson.M{"_id": countersDocID},
		bson.M{"$max": bson.M{"order_number": max}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("cannot seed order number counter: %w", err)
	}
	return nil
}

func (r *OrderRepo) Create(ctx context.Context, o *comanda.Order) error {
	if o == nil {
		return fmt.Errorf("order is nil")
	}

	if _, err := r.collection.InsertOne(ctx, o); err != nil {
		return fmt.Errorf("cannot create order: %w", err)
	}

	return nil
}

func (r *OrderRepo) Get(ctx context.Context, id uuid.UUID) (*comanda.Order, error) {
	var o comanda.Order
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&o)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get order: %w", err)
	}
	return &o, nil
}

func (r *OrderRepo) FindActiveByNumber(ctx context.Context, number int) (*comanda.Order, error) {
	filter := bson.M{
		"number": number,
		"status": bson.M{"$ne": orderstatus.Statuses.Delivered.Code()},
	}

	var o comanda.Order
	err := r.collection.FindOne(ctx, filter).Decode(&o)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get order by number: %w", err)
	}
	return &o, nil
}

func (r *OrderRepo) List(ctx context.Context, filter comanda.OrderFilter) ([]*comanda.Order, error) {
	query := bson.M{}
	if filter.Status != nil {
		query["status"] = *filter.Status
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	if filter.Offset > 0 {
		opts.SetSkip(int64(filter.Offset))
	}

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot list orders: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*comanda.Order
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode orders: %w", err)
	}

	return result, nil
}

func (r *OrderRepo) MaxNumber(ctx context.Context) (int, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "number", Value: -1}})

	var o comanda.Order
	err := r.collection.FindOne(ctx, bson.M{}, opts).Decode(&o)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, nil
		}
		return 0, fmt.Errorf("cannot find max order number: %w", err)
	}
	return o.Number, nil
}

// NextNumber atomically reserves the next sequential order number. The
// counter lives in its own document so two concurrent creations can
// never observe the same value.
func (r *OrderRepo) NextNumber(ctx context.Context) (int, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc struct {
		OrderNumber int `bson:"order_number"`
	}
	err := r.aggregates.FindOneAndUpdate(ctx,
		bson.M{"_id": countersDocID},
		bson.M{"$inc": bson.M{"order_number": 1}},
		opts,
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("cannot reserve order number: %w", err)
	}

	return doc.OrderNumber, nil
}

func (r *OrderRepo) Save(ctx context.Context, o *comanda.Order) error {
	if o == nil {
		return fmt.Errorf("order is nil")
	}

	filter := bson.M{"_id": o.ID}
	update := bson.M{"$set": o}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("cannot update order: %w", err)
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("order not found")
	}

	return nil
}

func (r *OrderRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("cannot delete order: %w", err)
	}

	if result.DeletedCount == 0 {
		return fmt.Errorf("order not found")
	}

	return nil
}

func (r *OrderRepo) DeleteAll(ctx context.Context) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("cannot delete orders: %w", err)
	}
	return result.DeletedCount, nil
}
