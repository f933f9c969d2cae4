package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/harentsoaR/medadmin-api/internal/metrics"
	"github.com/harentsoaR/medadmin-api/internal/models"
	"github.com/harentsoaR/medadmin-api/internal/store"
)

var (
	ErrNotFound  = store.ErrNotFound
	ErrNotDoctor = errors.New("account is not a doctor")
	ErrNoChanges = errors.New("no profile fields to update")
)

// Refresher re-delivers live query snapshots after a write.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// AccountService runs the verification workflow and account management
// commands. Writes are last-write-wins; a successful write refreshes every
// live subscriber, a failed one refreshes nothing.
type AccountService struct {
	Store   store.AccountStore
	Hub     Refresher
	Logger  *logrus.Logger
	Metrics *metrics.Metrics
}

func NewAccountService(st store.AccountStore, hub Refresher, logger *logrus.Logger, m *metrics.Metrics) *AccountService {
	return &AccountService{Store: st, Hub: hub, Logger: logger, Metrics: m}
}

// Stats are the dashboard aggregates. Percentages are rounded and zero when
// their denominator is zero.
type Stats struct {
	TotalUsers       int `json:"totalUsers"`
	TotalDoctors     int `json:"totalDoctors"`
	VerifiedDoctors  int `json:"verifiedDoctors"`
	PendingDoctors   int `json:"pendingDoctors"`
	VerificationRate int `json:"verificationRate"`
	DoctorShare      int `json:"doctorShare"`
}

func (s *AccountService) Get(ctx context.Context, id string) (*models.Account, error) {
	return s.Store.Get(ctx, id)
}

func (s *AccountService) List(ctx context.Context, p Projection) ([]models.Account, error) {
	return s.Store.List(ctx, p.Query())
}

// Verify moves a doctor to verified from any state.
func (s *AccountService) Verify(ctx context.Context, id string) error {
	err := s.transition(ctx, id, models.EventVerify)
	s.Metrics.IncVerificationAction("verify", err)
	return err
}

// Reject moves a doctor to rejected. Rejecting a rejected doctor rewrites the
// same flags.
func (s *AccountService) Reject(ctx context.Context, id string) error {
	err := s.transition(ctx, id, models.EventReject)
	s.Metrics.IncVerificationAction("reject", err)
	return err
}

func (s *AccountService) transition(ctx context.Context, id string, ev models.VerificationEvent) error {
	acc, err := s.Store.Get(ctx, id)
	if err != nil {
		return err
	}
	if !acc.IsDoctor() {
		return ErrNotDoctor
	}
	next, err := acc.Verification().Next(ev)
	if err != nil {
		return err
	}
	if err := s.Store.Update(ctx, id, next.Fields()); err != nil {
		return err
	}
	s.afterWrite(ctx, string(ev), id, logrus.Fields{"from": acc.Verification(), "to": next})
	return nil
}

// ToggleVerified flips the verified flag from the value the caller last saw
// and returns the value written. Turning it on also clears rejected. Any role
// may be toggled.
func (s *AccountService) ToggleVerified(ctx context.Context, id string, currentVerified bool) (bool, error) {
	ev := models.EventVerify
	if currentVerified {
		ev = models.EventUnverify
	}
	to, err := models.StateFromFlags(currentVerified, false).Next(ev)
	if err != nil {
		return currentVerified, err
	}
	err = s.Store.Update(ctx, id, to.Fields())
	s.Metrics.IncVerificationAction("toggle", err)
	if err != nil {
		return currentVerified, err
	}
	s.afterWrite(ctx, "toggle", id, logrus.Fields{"event": ev, "to": to})
	return to == models.StateVerified, nil
}

// UpdateProfile applies the non-nil profile fields. Role and verification
// flags are not editable here.
func (s *AccountService) UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate) error {
	fields := upd.Fields()
	if len(fields) == 0 {
		return ErrNoChanges
	}
	err := s.Store.Update(ctx, id, fields)
	s.Metrics.IncVerificationAction("update", err)
	if err != nil {
		return err
	}
	s.afterWrite(ctx, "update", id, nil)
	return nil
}

// Delete removes the account document. The credential is left in place.
func (s *AccountService) Delete(ctx context.Context, id string) error {
	err := s.Store.Delete(ctx, id)
	s.Metrics.IncVerificationAction("delete", err)
	if err != nil {
		return err
	}
	s.afterWrite(ctx, "delete", id, nil)
	return nil
}

func (s *AccountService) Stats(ctx context.Context) (Stats, error) {
	accounts, err := s.Store.List(ctx, ProjectionAccounts.Query())
	if err != nil {
		return Stats{}, fmt.Errorf("load accounts: %w", err)
	}
	return ComputeStats(accounts), nil
}

func ComputeStats(accounts []models.Account) Stats {
	var st Stats
	st.TotalUsers = len(accounts)
	for i := range accounts {
		if !accounts[i].IsDoctor() {
			continue
		}
		st.TotalDoctors++
		if accounts[i].Verified {
			st.VerifiedDoctors++
		} else {
			st.PendingDoctors++
		}
	}
	st.VerificationRate = percent(st.VerifiedDoctors, st.TotalDoctors)
	st.DoctorShare = percent(st.TotalDoctors, st.TotalUsers)
	return st
}

func percent(n, d int) int {
	if d == 0 {
		return 0
	}
	return int(math.Round(float64(n) / float64(d) * 100))
}

func (s *AccountService) afterWrite(ctx context.Context, action, id string, extra logrus.Fields) {
	entry := s.Logger.WithFields(logrus.Fields{"action": action, "account_id": id})
	if extra != nil {
		entry = entry.WithFields(extra)
	}
	entry.Info("account updated")

	if s.Hub == nil {
		return
	}
	if err := s.Hub.Refresh(context.WithoutCancel(ctx)); err != nil {
		entry.WithError(err).Warn("live refresh after write failed")
	}
}
