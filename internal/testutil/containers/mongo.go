//go:build integration

package containers

import (
	"context"
	"testing"

	tcmongo "github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoContainer struct {
	Container *tcmongo.MongoDBContainer
	Client    *mongo.Client
	DB        *mongo.Database
}

func NewMongoContainer(t *testing.T) *MongoContainer {
	t.Helper()
	ctx := context.Background()

	container, err := tcmongo.Run(ctx, "mongo:7")
	if err != nil {
		t.Fatalf("failed to start mongo container: %v", err)
	}
	uri, err := container.ConnectionString(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get mongo connection string: %v", err)
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to connect to mongo: %v", err)
	}

	t.Cleanup(func() {
		_ = client.Disconnect(context.Background())
		_ = container.Terminate(context.Background())
	})
	return &MongoContainer{Container: container, Client: client, DB: client.Database("medadmin_test")}
}

// Drop removes every collection in the test database.
func (m *MongoContainer) Drop(ctx context.Context) error {
	return m.DB.Drop(ctx)
}
