package auth

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CredentialsCollection = "credentials"

type MongoCredentials struct {
	coll *mongo.Collection
}

func NewMongoCredentials(db *mongo.Database) *MongoCredentials {
	return &MongoCredentials{coll: db.Collection(CredentialsCollection)}
}

func (s *MongoCredentials) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create credential index: %w", err)
	}
	return nil
}

func (s *MongoCredentials) FindByEmail(ctx context.Context, email string) (*Credential, error) {
	var c Credential
	err := s.coll.FindOne(ctx, bson.M{"email": normalizeEmail(email)}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find credential: %w", err)
	}
	return &c, nil
}

func (s *MongoCredentials) Create(ctx context.Context, c *Credential) error {
	doc := *c
	doc.Email = normalizeEmail(c.Email)
	_, err := s.coll.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("insert credential: %w", err)
	}
	return nil
}

func (s *MongoCredentials) UpdatePassword(ctx context.Context, id, hash string) error {
	result, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"password": hash}})
	if err != nil {
		return fmt.Errorf("update credential: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

var _ CredentialRepository = (*MongoCredentials)(nil)
