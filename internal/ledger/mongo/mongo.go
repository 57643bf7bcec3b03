// Package mongo reads transactions from a MongoDB collection. Dates are
// stored as ISO strings so range filters compare lexicographically, and
// amounts as Decimal128.
package mongo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"saldo/internal/core"
	"saldo/internal/ledger"
)

// Finder is the part of *mongo.Collection the source needs.
type Finder interface {
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
}

// Document is the stored shape of a transaction.
type Document struct {
	ObjectID    primitive.ObjectID   `bson:"_id,omitempty"`
	AccountID   string               `bson:"account_id"`
	ID          string               `bson:"id"`
	Date        string               `bson:"date"`
	Description string               `bson:"description"`
	Category    string               `bson:"category"`
	Kind        string               `bson:"kind"`
	Status      string               `bson:"status,omitempty"`
	Amount      primitive.Decimal128 `bson:"amount"`
}

type Source struct {
	coll   Finder
	client *mongo.Client
}

func New(coll Finder) *Source {
	return &Source{coll: coll}
}

// Connect opens a client on uri and reads from database.collection.
func Connect(ctx context.Context, uri, database, collection string) (*Source, error) {
	slog.DebugContext(ctx, "Connecting to MongoDB", "database", database, "collection", collection)
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return &Source{coll: client.Database(database).Collection(collection), client: client}, nil
}

func (s *Source) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(context.Background())
}

// Filter selects an account's documents dated inside r.
func Filter(accountID string, r core.DateRange) bson.M {
	return bson.M{
		"account_id": accountID,
		"date":       bson.M{"$gte": r.Start.String(), "$lte": r.End.String()},
	}
}

func (s *Source) FetchTransactions(ctx context.Context, accountID string, r core.DateRange) ([]core.Transaction, error) {
	// ObjectIDs grow with insertion time.
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.coll.Find(ctx, Filter(accountID, r), opts)
	if err != nil {
		return nil, fmt.Errorf("find transactions: %w", err)
	}
	defer cur.Close(ctx)

	var out []core.Transaction
	for cur.Next(ctx) {
		var doc Document
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode transaction: %w", err)
		}
		tx, err := doc.Transaction()
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// Transaction converts the document to the core model.
func (d Document) Transaction() (core.Transaction, error) {
	date, err := core.ParseDate(d.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", d.ID, err)
	}
	kind, err := core.ParseKind(d.Kind)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", d.ID, err)
	}
	status, err := core.ParseStatus(d.Status)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", d.ID, err)
	}
	amount, err := decimal.NewFromString(d.Amount.String())
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w: %v", d.ID, core.ErrInvalidAmount, err)
	}
	return core.Transaction{
		ID:          d.ID,
		Description: d.Description,
		Amount:      amount,
		Kind:        kind,
		Date:        date,
		Category:    d.Category,
		Status:      status,
	}, nil
}

var _ ledger.TransactionSource = (*Source)(nil)
