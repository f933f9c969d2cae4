package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/harentsoaR/medadmin-api/internal/models"
	"github.com/harentsoaR/medadmin-api/internal/store"
	"github.com/harentsoaR/medadmin-api/internal/utils"
	"github.com/harentsoaR/medadmin-api/internal/watch"
)

type countingRefresher struct {
	mu    sync.Mutex
	calls int
}

func (r *countingRefresher) Refresh(context.Context) error {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	return nil
}

func (r *countingRefresher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type failingStore struct {
	store.AccountStore
	err error
}

func (f failingStore) Update(context.Context, string, models.Fields) error { return f.err }

type AccountServiceSuite struct {
	suite.Suite
	ctx     context.Context
	store   *store.InMemoryAccountStore
	hub     *countingRefresher
	service *AccountService
}

func TestAccountServiceSuite(t *testing.T) {
	suite.Run(t, new(AccountServiceSuite))
}

func (s *AccountServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = store.NewInMemory(
		models.Account{ID: "admin", Role: models.RoleAdmin, Verified: true},
		models.Account{ID: "pending", Role: models.RoleDoctor},
		models.Account{ID: "verified", Role: models.RoleDoctor, Verified: true},
		models.Account{ID: "rejected", Role: models.RoleDoctor, Rejected: true},
		models.Account{ID: "patient", Role: models.RolePatient},
	)
	s.hub = &countingRefresher{}
	s.service = NewAccountService(s.store, s.hub, utils.NewNopLogger(), nil)
}

func (s *AccountServiceSuite) account(id string) *models.Account {
	a, err := s.store.Get(s.ctx, id)
	s.Require().NoError(err)
	return a
}

func (s *AccountServiceSuite) TestVerify() {
	s.Run("pending becomes verified", func() {
		s.Require().NoError(s.service.Verify(s.ctx, "pending"))
		a := s.account("pending")
		s.True(a.Verified)
		s.False(a.Rejected)
	})

	s.Run("rejected becomes verified and rejected is cleared", func() {
		s.Require().NoError(s.service.Verify(s.ctx, "rejected"))
		a := s.account("rejected")
		s.Equal(models.StateVerified, a.Verification())
		s.False(a.Rejected)
	})

	s.Run("verifying a verified doctor is a no-op write", func() {
		s.Require().NoError(s.service.Verify(s.ctx, "verified"))
		s.True(s.account("verified").Verified)
	})

	s.Run("non-doctor is refused", func() {
		before := s.hub.count()
		s.ErrorIs(s.service.Verify(s.ctx, "patient"), ErrNotDoctor)
		s.False(s.account("patient").Verified)
		s.Equal(before, s.hub.count())
	})

	s.Run("unknown account", func() {
		s.ErrorIs(s.service.Verify(s.ctx, "ghost"), ErrNotFound)
	})
}

func (s *AccountServiceSuite) TestReject() {
	s.Require().NoError(s.service.Reject(s.ctx, "pending"))
	a := s.account("pending")
	s.False(a.Verified)
	s.True(a.Rejected)

	s.Require().NoError(s.service.Reject(s.ctx, "verified"))
	s.Equal(models.StateRejected, s.account("verified").Verification())

	s.Require().NoError(s.service.Reject(s.ctx, "pending"), "rejecting twice is idempotent")
	s.Equal(models.StateRejected, s.account("pending").Verification())

	s.ErrorIs(s.service.Reject(s.ctx, "admin"), ErrNotDoctor)
}

func (s *AccountServiceSuite) TestToggleVerified() {
	s.Run("on clears rejected", func() {
		got, err := s.service.ToggleVerified(s.ctx, "rejected", false)
		s.Require().NoError(err)
		s.True(got)
		a := s.account("rejected")
		s.True(a.Verified)
		s.False(a.Rejected)
	})

	s.Run("off leaves rejected untouched", func() {
		s.Require().NoError(s.store.Update(s.ctx, "verified", models.Fields{"rejected": true}))
		got, err := s.service.ToggleVerified(s.ctx, "verified", true)
		s.Require().NoError(err)
		s.False(got)
		a := s.account("verified")
		s.False(a.Verified)
		s.True(a.Rejected)
	})

	s.Run("writes the transition target", func() {
		st := &recordingStore{AccountStore: s.store}
		svc := NewAccountService(st, s.hub, utils.NewNopLogger(), nil)

		_, err := svc.ToggleVerified(s.ctx, "patient", false)
		s.Require().NoError(err)
		_, err = svc.ToggleVerified(s.ctx, "patient", true)
		s.Require().NoError(err)

		s.Equal([]models.Fields{models.StateVerified.Fields(), models.StatePending.Fields()}, st.writes)
	})

	s.Run("works for any role", func() {
		got, err := s.service.ToggleVerified(s.ctx, "patient", false)
		s.Require().NoError(err)
		s.True(got)
	})

	s.Run("unknown account", func() {
		got, err := s.service.ToggleVerified(s.ctx, "ghost", true)
		s.ErrorIs(err, ErrNotFound)
		s.True(got)
	})
}

func (s *AccountServiceSuite) TestSuccessfulWritesRefresh() {
	s.Require().NoError(s.service.Verify(s.ctx, "pending"))
	_, err := s.service.ToggleVerified(s.ctx, "patient", false)
	s.Require().NoError(err)
	name := "Ana"
	s.Require().NoError(s.service.UpdateProfile(s.ctx, "patient", models.ProfileUpdate{Name: &name}))
	s.Require().NoError(s.service.Delete(s.ctx, "admin"))
	s.Equal(4, s.hub.count())
}

func (s *AccountServiceSuite) TestFailedWriteDoesNotRefresh() {
	boom := errors.New("write rejected")
	svc := NewAccountService(failingStore{AccountStore: s.store, err: boom}, s.hub, utils.NewNopLogger(), nil)

	s.ErrorIs(svc.Verify(s.ctx, "pending"), boom)
	_, err := svc.ToggleVerified(s.ctx, "pending", false)
	s.ErrorIs(err, boom)
	s.Equal(0, s.hub.count())
	s.False(s.account("pending").Verified)
}

func (s *AccountServiceSuite) TestUpdateProfile() {
	s.ErrorIs(s.service.UpdateProfile(s.ctx, "patient", models.ProfileUpdate{}), ErrNoChanges)

	phone := "+1 555 0100"
	s.Require().NoError(s.service.UpdateProfile(s.ctx, "patient", models.ProfileUpdate{Phone: &phone}))
	a := s.account("patient")
	s.Equal(phone, a.Phone)
	s.Equal(models.RolePatient, a.Role)
}

func (s *AccountServiceSuite) TestDelete() {
	s.Require().NoError(s.service.Delete(s.ctx, "patient"))
	_, err := s.store.Get(s.ctx, "patient")
	s.ErrorIs(err, store.ErrNotFound)
	s.ErrorIs(s.service.Delete(s.ctx, "patient"), ErrNotFound)
}

func (s *AccountServiceSuite) TestStats() {
	st, err := s.service.Stats(s.ctx)
	s.Require().NoError(err)
	s.Equal(Stats{
		TotalUsers:       5,
		TotalDoctors:     3,
		VerifiedDoctors:  1,
		PendingDoctors:   2,
		VerificationRate: 33,
		DoctorShare:      60,
	}, st)
}

func TestComputeStats_Empty(t *testing.T) {
	assert.Equal(t, Stats{}, ComputeStats(nil))
}

func TestProjections(t *testing.T) {
	ctx := context.Background()
	st := store.NewInMemory(
		models.Account{ID: "d1", Role: models.RoleDoctor},
		models.Account{ID: "d2", Role: models.RoleDoctor, Verified: true},
		models.Account{ID: "p1", Role: models.RolePatient, Verified: true},
	)
	svc := NewAccountService(st, nil, utils.NewNopLogger(), nil)

	tests := map[Projection][]string{
		ProjectionPendingDoctors:  {"d1"},
		ProjectionVerifiedDoctors: {"d2"},
		ProjectionDoctors:         {"d1", "d2"},
		ProjectionAccounts:        {"d1", "d2", "p1"},
	}
	for p, want := range tests {
		t.Run(string(p), func(t *testing.T) {
			got, err := svc.List(ctx, p)
			require.NoError(t, err)
			ids := []string{}
			for _, a := range got {
				ids = append(ids, a.ID)
			}
			assert.ElementsMatch(t, want, ids)
		})
	}

	_, err := ParseProjection("everyone")
	assert.ErrorIs(t, err, ErrUnknownProjection)
	p, err := ParseProjection("pending-doctors")
	require.NoError(t, err)
	assert.Equal(t, ProjectionPendingDoctors, p)
}

func TestVerify_RedeliversToLiveSubscribers(t *testing.T) {
	ctx := context.Background()
	st := store.NewInMemory(models.Account{ID: "d1", Role: models.RoleDoctor})
	hub := watch.NewHub(st, utils.NewNopLogger(), nil)
	svc := NewAccountService(st, hub, utils.NewNopLogger(), nil)

	snaps := make(chan watch.Snapshot, 4)
	defer hub.Subscribe(ctx, ProjectionPendingDoctors.Query(), func(s watch.Snapshot) { snaps <- s })()

	first := <-snaps
	require.Len(t, first.Accounts, 1)

	require.NoError(t, svc.Verify(ctx, "d1"))
	select {
	case s := <-snaps:
		assert.Empty(t, s.Accounts)
	case <-time.After(time.Second):
		t.Fatal("no snapshot after verify")
	}
}

type recordingStore struct {
	store.AccountStore
	writes []models.Fields
}

func (r *recordingStore) Update(ctx context.Context, id string, fields models.Fields) error {
	r.writes = append(r.writes, fields)
	return r.AccountStore.Update(ctx, id, fields)
}
