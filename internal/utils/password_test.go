package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerifyPassword(t *testing.T) {
	h, err := HashPassword("s3cret-pass", bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(h, "s3cret-pass"))
	assert.False(t, VerifyPassword(h, "wrong-pass"))
	assert.False(t, VerifyPassword("not-a-hash", "s3cret-pass"))
}

func TestDecoyHash_UsesConfiguredCost(t *testing.T) {
	for _, cost := range []int{bcrypt.MinCost, 6, 11} {
		d := NewDecoyHash(cost)
		got, err := bcrypt.Cost(d.Bytes())
		require.NoError(t, err)
		assert.Equal(t, cost, got)
		assert.Equal(t, d.Bytes(), d.Bytes(), "generated once")
	}
}

func TestDecoyHash_InvalidCostFallsBack(t *testing.T) {
	got, err := bcrypt.Cost(NewDecoyHash(bcrypt.MaxCost + 1).Bytes())
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, got)
}
