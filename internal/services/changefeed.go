package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ChangeStream is the subset of *mongo.ChangeStream the feed consumes.
type ChangeStream interface {
	Next(ctx context.Context) bool
	Decode(val interface{}) error
	Err() error
	Close(ctx context.Context) error
}

type changeEvent struct {
	OperationType string `bson:"operationType"`
	DocumentKey   struct {
		ID string `bson:"_id"`
	} `bson:"documentKey"`
}

// ChangeFeed refreshes live subscribers when the users collection changes
// outside this service, e.g. a doctor registering from the mobile app.
// It needs MongoDB running as a replica set.
type ChangeFeed struct {
	open   func(ctx context.Context) (ChangeStream, error)
	hub    Refresher
	logger *logrus.Logger
	retry  time.Duration
}

func NewChangeFeed(coll *mongo.Collection, hub Refresher, logger *logrus.Logger) *ChangeFeed {
	return &ChangeFeed{
		open: func(ctx context.Context) (ChangeStream, error) {
			return coll.Watch(ctx, mongo.Pipeline{}, options.ChangeStream().SetMaxAwaitTime(5*time.Second))
		},
		hub:    hub,
		logger: logger,
		retry:  5 * time.Second,
	}
}

// Run watches until ctx is done, reopening the stream after failures.
func (f *ChangeFeed) Run(ctx context.Context) {
	for {
		err := f.watchOnce(ctx)
		if ctx.Err() != nil {
			return
		}
		f.logger.WithError(err).Warn("change stream stopped, reopening")
		select {
		case <-ctx.Done():
			return
		case <-time.After(f.retry):
		}
	}
}

func (f *ChangeFeed) watchOnce(ctx context.Context) error {
	cs, err := f.open(ctx)
	if err != nil {
		return fmt.Errorf("open change stream: %w", err)
	}
	defer cs.Close(context.WithoutCancel(ctx))
	return f.consume(ctx, cs)
}

func (f *ChangeFeed) consume(ctx context.Context, cs ChangeStream) error {
	for cs.Next(ctx) {
		var ev changeEvent
		if err := cs.Decode(&ev); err != nil {
			f.logger.WithError(err).Warn("undecodable change event")
			continue
		}
		f.logger.WithFields(logrus.Fields{
			"operation":  ev.OperationType,
			"account_id": ev.DocumentKey.ID,
		}).Debug("users collection changed")

		if err := f.hub.Refresh(ctx); err != nil {
			f.logger.WithError(err).Warn("live refresh after change failed")
		}
	}
	if err := cs.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return errors.New("change stream closed")
}
