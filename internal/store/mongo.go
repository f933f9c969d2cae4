package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/harentsoaR/medadmin-api/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const AccountsCollection = "users"

// MongoAccountStore keeps accounts in the users collection.
type MongoAccountStore struct {
	coll *mongo.Collection
}

func NewMongo(db *mongo.Database) *MongoAccountStore {
	return &MongoAccountStore{coll: db.Collection(AccountsCollection)}
}

// Collection exposes the underlying collection for change streams.
func (s *MongoAccountStore) Collection() *mongo.Collection { return s.coll }

func (s *MongoAccountStore) Get(ctx context.Context, id string) (*models.Account, error) {
	var a models.Account
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find account %s: %w", id, err)
	}
	return &a, nil
}

func (s *MongoAccountStore) List(ctx context.Context, q Query) ([]models.Account, error) {
	filter := bson.M{}
	for _, c := range q.Conditions {
		filter[c.Field] = c.Value
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}})
	cursor, err := s.coll.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer cursor.Close(ctx)

	var accounts []models.Account
	if err := cursor.All(ctx, &accounts); err != nil {
		return nil, fmt.Errorf("decode accounts: %w", err)
	}
	if accounts == nil {
		accounts = make([]models.Account, 0)
	}
	return accounts, nil
}

func (s *MongoAccountStore) Create(ctx context.Context, a *models.Account) error {
	_, err := s.coll.InsertOne(ctx, a)
	if mongo.IsDuplicateKeyError(err) {
		return ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (s *MongoAccountStore) Update(ctx context.Context, id string, fields models.Fields) error {
	if len(fields) == 0 {
		return ErrEmptyUpdate
	}
	result, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M(fields)})
	if err != nil {
		return fmt.Errorf("update account %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoAccountStore) Delete(ctx context.Context, id string) error {
	result, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete account %s: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// EnsureIndexes creates the indexes the dashboard queries rely on.
func (s *MongoAccountStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}},
		{Keys: bson.D{{Key: "role", Value: 1}, {Key: "verified", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create account indexes: %w", err)
	}
	return nil
}

var _ AccountStore = (*MongoAccountStore)(nil)
