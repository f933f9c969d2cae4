package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("Sup3r$ecret", bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, CheckPasswordHash("Sup3r$ecret", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}

func TestHashPassword_InvalidCostFallsBack(t *testing.T) {
	hash, err := HashPassword("Sup3r$ecret", 99)
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}
