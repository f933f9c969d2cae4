package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateFromFlags(t *testing.T) {
	assert.Equal(t, StatePending, StateFromFlags(false, false))
	assert.Equal(t, StateVerified, StateFromFlags(true, false))
	assert.Equal(t, StateRejected, StateFromFlags(false, true))
	assert.Equal(t, StateVerified, StateFromFlags(true, true), "legacy records with a stale rejected flag read as verified")
}

func TestVerificationState_Next(t *testing.T) {
	cases := []struct {
		from VerificationState
		ev   VerificationEvent
		want VerificationState
	}{
		{StatePending, EventVerify, StateVerified},
		{StateRejected, EventVerify, StateVerified},
		{StateVerified, EventVerify, StateVerified},
		{StatePending, EventReject, StateRejected},
		{StateVerified, EventReject, StateRejected},
		{StateRejected, EventReject, StateRejected},
		{StateVerified, EventUnverify, StatePending},
		{StatePending, EventUnverify, StatePending},
		{StateRejected, EventUnverify, StateRejected},
	}
	for _, tc := range cases {
		got, err := tc.from.Next(tc.ev)
		require.NoError(t, err)
		assert.Equalf(t, tc.want, got, "%s --%s-->", tc.from, tc.ev)
	}

	_, err := StatePending.Next("approve")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestVerificationState_FieldsNeverWriteBothFlags(t *testing.T) {
	for _, s := range []VerificationState{StatePending, StateVerified, StateRejected} {
		f := s.Fields()
		verified, _ := f["verified"].(bool)
		rejected, _ := f["rejected"].(bool)
		assert.False(t, verified && rejected, s)
		assert.Equal(t, s, StateFromFlags(verified, rejected))
	}
}

func TestProfileUpdate_Fields(t *testing.T) {
	name := "Ana"
	phone := ""
	got := ProfileUpdate{Name: &name, Phone: &phone}.Fields()
	assert.Equal(t, Fields{"name": "Ana", "phone": ""}, got)
	assert.Empty(t, ProfileUpdate{}.Fields())
}

func TestRole_Valid(t *testing.T) {
	assert.True(t, RoleDoctor.Valid())
	assert.False(t, Role("nurse").Valid())
}
