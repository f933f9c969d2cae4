package services

import (
	"errors"

	"github.com/harentsoaR/medadmin-api/internal/models"
	"github.com/harentsoaR/medadmin-api/internal/store"
)

// Projection names a derived view of the users collection.
type Projection string

const (
	ProjectionPendingDoctors  Projection = "pending-doctors"
	ProjectionVerifiedDoctors Projection = "verified-doctors"
	ProjectionDoctors         Projection = "doctors"
	ProjectionAccounts        Projection = "accounts"
)

var ErrUnknownProjection = errors.New("unknown projection")

var projections = map[Projection]store.Query{
	ProjectionPendingDoctors:  store.Where(store.Eq("role", models.RoleDoctor), store.Eq("verified", false)),
	ProjectionVerifiedDoctors: store.Where(store.Eq("role", models.RoleDoctor), store.Eq("verified", true)),
	ProjectionDoctors:         store.Where(store.Eq("role", models.RoleDoctor)),
	ProjectionAccounts:        {},
}

func ParseProjection(name string) (Projection, error) {
	p := Projection(name)
	if _, ok := projections[p]; !ok {
		return "", ErrUnknownProjection
	}
	return p, nil
}

// Query returns the document store query backing p.
func (p Projection) Query() store.Query {
	return projections[p]
}
