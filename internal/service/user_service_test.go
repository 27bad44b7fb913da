package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestUserService_GetOrCreate(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo)

	first, err := svc.GetOrCreate(t.Context(), " auth0|123 ", " Ana@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "auth0|123", first.Subject)
	assert.Equal(t, "ana@example.com", first.Email)

	again, err := svc.GetOrCreate(t.Context(), "auth0|123", "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	_, err = svc.GetOrCreate(t.Context(), "", "ana@example.com")
	assert.ErrorIs(t, err, ErrIdentityInvalid)
	_, err = svc.GetOrCreate(t.Context(), "auth0|123", "  ")
	assert.ErrorIs(t, err, ErrIdentityInvalid)

	got, err := svc.GetByID(t.Context(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Email, got.Email)

	_, err = svc.GetByID(t.Context(), primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestCalendar_TodayUsesLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	// 20:00 UTC on June 10 is already June 11 in Tokyo.
	now := time.Date(2025, time.June, 10, 20, 0, 0, 0, time.UTC)

	assert.Equal(t, "2025-06-11", NewCalendarWithClock(tokyo, func() time.Time { return now }).Today().String())
	assert.Equal(t, "2025-06-10", NewCalendarWithClock(time.UTC, func() time.Time { return now }).Today().String())
	assert.Equal(t, time.UTC, NewCalendarWithClock(tokyo, func() time.Time { return now.In(tokyo) }).Now().Location())
}
