package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/comandaclub/comanda/internal/comanda"
)

const (
	salesReportDocID = "sales_report"
	countersDocID    = "counters"
)

// ReportRepo keeps the sales aggregates in two well-known documents of
// the aggregates collection: per-item sold counts under "sales_report"
// and the served-orders counter under "counters". All mutations are
// single-document $inc updates, so concurrent order operations never
// lose a count.
type ReportRepo struct {
	collection *mongo.Collection
}

func NewReportRepo(db *mongo.Database) *ReportRepo {
	return &ReportRepo{
		collection: db.Collection("aggregates"),
	}
}

func (r *ReportRepo) RecordSale(ctx context.Context, items []comanda.LineItem) error {
	return r.adjustCounts(ctx, items, 1)
}

func (r *ReportRepo) ReverseSale(ctx context.Context, items []comanda.LineItem) error {
	return r.adjustCounts(ctx, items, -1)
}

func (r *ReportRepo) adjustCounts(ctx context.Context, items []comanda.LineItem, sign int) error {
	if len(items) == 0 {
		return nil
	}

	inc := bson.M{}
	for _, item := range items {
		if item.Name == "" || item.Quantity < 1 {
			continue
		}
		inc["per_item_count."+item.Name] = sign * item.Quantity
	}
	if len(inc) == 0 {
		return nil
	}

	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": salesReportDocID},
		bson.M{"$inc": inc},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("cannot adjust sales counters: %w", err)
	}
	return nil
}

func (r *ReportRepo) PerItemCount(ctx context.Context) (map[string]int, error) {
	var doc struct {
		PerItemCount map[string]int `bson:"per_item_count"`
	}
	err := r.collection.FindOne(ctx, bson.M{"_id": salesReportDocID}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return map[string]int{}, nil
		}
		return nil, fmt.Errorf("cannot get sales counters: %w", err)
	}
	if doc.PerItemCount == nil {
		doc.PerItemCount = map[string]int{}
	}
	return doc.PerItemCount, nil
}

func (r *ReportRepo) ClearReport(ctx context.Context) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": salesReportDocID},
		bson.M{"$set": bson.M{"per_item_count": bson.M{}}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("cannot clear sales counters: %w", err)
	}
	return nil
}

func (r *ReportRepo) IncrementOrdersServed(ctx context.Context) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": countersDocID},
		bson.M{"$inc": bson.M{"orders_served_count": 1}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("cannot increment orders served: %w", err)
	}
	return nil
}

// DecrementOrdersServed lowers the counter without ever pushing it
// below zero, which a plain $inc of -1 could do on a fresh document.
func (r *ReportRepo) DecrementOrdersServed(ctx context.Context) error {
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"orders_served_count": bson.M{
				"$max": bson.A{0, bson.M{
					"$subtract": bson.A{
						bson.M{"$ifNull": bson.A{"$orders_served_count", 0}},
						1,
					},
				}},
			},
		}}},
	}

	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": countersDocID},
		pipeline,
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("cannot decrement orders served: %w", err)
	}
	return nil
}

func (r *ReportRepo) OrdersServed(ctx context.Context) (int, error) {
	var doc struct {
		OrdersServedCount int `bson:"orders_served_count"`
	}
	err := r.collection.FindOne(ctx, bson.M{"_id": countersDocID}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, nil
		}
		return 0, fmt.Errorf("cannot get orders served: %w", err)
	}
	return doc.OrdersServedCount, nil
}
