// Package mongo provides a MongoDB store implementation. The bank aggregate
// lives in one document and every balance change is a single conditional
// update, so concurrent writers serialize on the database, not in process.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	treasury "github.com/xraph/treasury"
	"github.com/xraph/treasury/bank"
	"github.com/xraph/treasury/id"
	treasurystore "github.com/xraph/treasury/store"
	"github.com/xraph/treasury/transaction"
	"github.com/xraph/treasury/types"
)

// Collection name constants.
const (
	colTransactions = "treasury_transactions"
	colBank         = "treasury_bank"
)

// compile-time interface check
var _ treasurystore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB.
type Store struct {
	db       *mongo.Database
	currency string
}

// New creates a new MongoDB store. The currency seeds the bank document on
// first use.
func New(db *mongo.Database, currency string) *Store {
	return &Store{db: db, currency: currency}
}

// DB returns the underlying database for direct access.
func (s *Store) DB() *mongo.Database { return s.db }

// Migrate creates indexes for all treasury collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.db.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("treasury/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, nil)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Client().Disconnect(context.Background())
}

// ==================== Transaction log ====================

func (s *Store) AppendTransaction(ctx context.Context, t *transaction.Transaction) error {
	m := toTransactionModel(t)
	_, err := s.db.Collection(colTransactions).InsertOne(ctx, m)
	if err != nil {
		return fmt.Errorf("treasury/mongo: append transaction: %w", err)
	}
	return nil
}

func (s *Store) GetTransaction(ctx context.Context, txnID id.TransactionID) (*transaction.Transaction, error) {
	var m transactionModel
	err := s.db.Collection(colTransactions).
		FindOne(ctx, bson.M{"_id": txnID.String()}).
		Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, treasury.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("treasury/mongo: get transaction: %w", err)
	}
	return fromTransactionModel(&m)
}

func (s *Store) ListTransactions(ctx context.Context, opts transaction.ListOpts) (*transaction.Page, error) {
	filter := listFilter(opts)
	col := s.db.Collection(colTransactions)

	total, err := col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("treasury/mongo: count transactions: %w", err)
	}

	findOpts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}})
	if opts.Limit > 0 {
		findOpts = findOpts.SetLimit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		findOpts = findOpts.SetSkip(int64(opts.Offset))
	}

	cursor, err := col.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("treasury/mongo: list transactions: %w", err)
	}

	var models []transactionModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("treasury/mongo: decode transactions: %w", err)
	}

	items := make([]*transaction.Transaction, len(models))
	for i := range models {
		t, err := fromTransactionModel(&models[i])
		if err != nil {
			return nil, err
		}
		items[i] = t
	}

	return &transaction.Page{
		Items:  items,
		Total:  total,
		Limit:  opts.Limit,
		Offset: opts.Offset,
	}, nil
}

func listFilter(opts transaction.ListOpts) bson.M {
	filter := bson.M{}
	if opts.Period != "" {
		filter["period"] = opts.Period.String()
	}
	if opts.Direction != "" {
		filter["direction"] = string(opts.Direction)
	}
	if opts.Origin != "" {
		filter["origin"] = string(opts.Origin)
	}
	if opts.State != "" {
		filter["state"] = string(opts.State)
	}
	if opts.OwnerRef != "" {
		filter["owner_ref"] = opts.OwnerRef
	}
	if opts.Reference != "" {
		filter["reference"] = opts.Reference
	}
	createdRange := bson.M{}
	if !opts.CreatedFrom.IsZero() {
		createdRange["$gte"] = opts.CreatedFrom
	}
	if !opts.CreatedTo.IsZero() {
		createdRange["$lte"] = opts.CreatedTo
	}
	if len(createdRange) > 0 {
		filter["created_at"] = createdRange
	}
	return filter
}

func (s *Store) SummarizePeriod(ctx context.Context, period types.Period) (*transaction.Summary, error) {
	cursor, err := s.db.Collection(colTransactions).
		Find(ctx, bson.M{"period": period.String()})
	if err != nil {
		return nil, fmt.Errorf("treasury/mongo: summarize period: %w", err)
	}

	summary := transaction.NewSummary(period, s.currency)
	for cursor.Next(ctx) {
		var m transactionModel
		if err := cursor.Decode(&m); err != nil {
			return nil, fmt.Errorf("treasury/mongo: decode transaction: %w", err)
		}
		t, err := fromTransactionModel(&m)
		if err != nil {
			return nil, err
		}
		summary.Accumulate(t)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("treasury/mongo: summarize period: %w", err)
	}
	return summary, nil
}

func (s *Store) MarkConsolidated(ctx context.Context, period types.Period, actor string, at time.Time) (int64, error) {
	res, err := s.db.Collection(colTransactions).UpdateMany(ctx,
		bson.M{
			"period": period.String(),
			"state":  string(transaction.StateInFlight),
		},
		bson.M{"$set": bson.M{
			"state":           string(transaction.StateConsolidated),
			"consolidated_at": at,
			"consolidated_by": actor,
			"updated_at":      at,
		}},
	)
	if err != nil {
		return 0, fmt.Errorf("treasury/mongo: mark consolidated: %w", err)
	}
	return res.ModifiedCount, nil
}

func (s *Store) MarkReverted(ctx context.Context, txnID, compensating id.TransactionID, reason, actor string, at time.Time) error {
	// The state guard in the filter makes the transition race-free: only
	// one of two concurrent reverts matches the in-flight document.
	res, err := s.db.Collection(colTransactions).UpdateOne(ctx,
		bson.M{
			"_id":   txnID.String(),
			"state": string(transaction.StateInFlight),
		},
		bson.M{"$set": bson.M{
			"state":         string(transaction.StateReverted),
			"reverted_at":   at,
			"revert_reason": reason,
			"reverted_by":   compensating.String(),
			"actor":         actor,
			"updated_at":    at,
		}},
	)
	if err != nil {
		return fmt.Errorf("treasury/mongo: mark reverted: %w", err)
	}
	if res.MatchedCount == 0 {
		return s.revertConflict(ctx, txnID)
	}
	return nil
}

// revertConflict distinguishes why a guarded revert update matched nothing.
func (s *Store) revertConflict(ctx context.Context, txnID id.TransactionID) error {
	t, err := s.GetTransaction(ctx, txnID)
	if err != nil {
		return err
	}
	switch t.State {
	case transaction.StateConsolidated:
		return treasury.ErrAlreadyConsolidated
	case transaction.StateReverted:
		return treasury.ErrAlreadyReverted
	}
	return treasury.ErrTransactionNotFound
}

// ==================== Bank aggregate ====================

func (s *Store) GetBank(ctx context.Context) (*bank.Bank, error) {
	var m bankModel
	err := s.db.Collection(colBank).
		FindOne(ctx, bson.M{"_id": bank.SingletonKey}).
		Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, treasury.ErrBankNotFound
		}
		return nil, fmt.Errorf("treasury/mongo: get bank: %w", err)
	}
	return fromBankModel(&m), nil
}

func (s *Store) AdjustInFlight(ctx context.Context, delta types.Money, period types.Period) (*bank.Bank, error) {
	t := now()

	var m bankModel
	err := s.db.Collection(colBank).FindOneAndUpdate(ctx,
		bson.M{"_id": bank.SingletonKey},
		bson.M{
			"$inc": bson.M{
				"in_flight_scaled": delta.Amount,
				"movement_count":   int64(1),
			},
			"$set": bson.M{
				"current_period": period.String(),
				"updated_at":     t,
			},
			"$setOnInsert": bson.M{
				"currency":             s.currency,
				"consolidated_scaled":  int64(0),
				"simulated_scaled":     int64(0),
				"periods_consolidated": int64(0),
				"created_at":           t,
			},
		},
		options.FindOneAndUpdate().
			SetUpsert(true).
			SetReturnDocument(options.After),
	).Decode(&m)
	if err != nil {
		return nil, fmt.Errorf("treasury/mongo: adjust in-flight: %w", err)
	}
	return fromBankModel(&m), nil
}

func (s *Store) AdjustSimulated(ctx context.Context, delta types.Money) (*bank.Bank, error) {
	t := now()

	var m bankModel
	err := s.db.Collection(colBank).FindOneAndUpdate(ctx,
		bson.M{"_id": bank.SingletonKey},
		bson.M{
			"$inc": bson.M{"simulated_scaled": delta.Amount},
			"$set": bson.M{"updated_at": t},
			"$setOnInsert": bson.M{
				"currency":             s.currency,
				"consolidated_scaled":  int64(0),
				"in_flight_scaled":     int64(0),
				"periods_consolidated": int64(0),
				"movement_count":       int64(0),
				"created_at":           t,
			},
		},
		options.FindOneAndUpdate().
			SetUpsert(true).
			SetReturnDocument(options.After),
	).Decode(&m)
	if err != nil {
		return nil, fmt.Errorf("treasury/mongo: adjust simulated: %w", err)
	}
	return fromBankModel(&m), nil
}

func (s *Store) ResetSimulated(ctx context.Context) (*bank.Bank, error) {
	var m bankModel
	err := s.db.Collection(colBank).FindOneAndUpdate(ctx,
		bson.M{"_id": bank.SingletonKey},
		bson.M{"$set": bson.M{
			"simulated_scaled": int64(0),
			"updated_at":       now(),
		}},
		options.FindOneAndUpdate().
			SetReturnDocument(options.Before),
	).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			// No document means nothing was ever simulated.
			return bank.ZeroBank(s.currency), nil
		}
		return nil, fmt.Errorf("treasury/mongo: reset simulated: %w", err)
	}
	return fromBankModel(&m), nil
}

func (s *Store) ConsolidateBank(ctx context.Context, period types.Period, at time.Time) (*bank.Bank, error) {
	// Pipeline update so in_flight moves into consolidated atomically: the
	// read of in_flight_scaled and the write happen inside one document
	// update on the server.
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"consolidated_scaled":  bson.M{"$add": bson.A{"$consolidated_scaled", "$in_flight_scaled"}},
			"in_flight_scaled":     int64(0),
			"periods_consolidated": bson.M{"$add": bson.A{"$periods_consolidated", 1}},
			"last_consolidated_at": at,
			"current_period":       period.Next().String(),
			"updated_at":           at,
		}}},
	}

	var m bankModel
	err := s.db.Collection(colBank).FindOneAndUpdate(ctx,
		bson.M{"_id": bank.SingletonKey},
		pipeline,
		options.FindOneAndUpdate().
			SetReturnDocument(options.After),
	).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, treasury.ErrBankNotFound
		}
		return nil, fmt.Errorf("treasury/mongo: consolidate bank: %w", err)
	}
	return fromBankModel(&m), nil
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all treasury collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colTransactions: {
			{Keys: bson.D{{Key: "period", Value: 1}, {Key: "state", Value: 1}}},
			{Keys: bson.D{{Key: "period", Value: 1}, {Key: "origin", Value: 1}}},
			{Keys: bson.D{{Key: "state", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "owner_ref", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "reference", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		},
		colBank: {},
	}
}
