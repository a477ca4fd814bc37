package services

import (
	"context"
	"testing"

	"github.com/princeprakhar/roomies-backend/internal/apperrors"
	"github.com/princeprakhar/roomies-backend/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRevealService_RequiresMatch(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	seedUser(t, st, "ana", false)
	seedUser(t, st, "beto", true)
	svc := NewRevealService(st, NewMatchService(st))

	_, err := svc.RevealInfo(ctx, "ana", RevealRequest{MatchedUsername: "beto", InfoType: "zones"})
	assert.True(t, apperrors.Is(err, apperrors.Forbidden))

	_, err = svc.RevealInfo(ctx, "ana", RevealRequest{MatchedUsername: "beto", InfoType: "address"})
	assert.True(t, apperrors.Is(err, apperrors.InvalidInput))

	_, err = svc.RevealInfo(ctx, "ana", RevealRequest{MatchedUsername: "ghost", InfoType: "zones"})
	assert.True(t, apperrors.Is(err, apperrors.NotFound))
}

func TestRevealService_IsMonotonicAndActorScoped(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	seedUser(t, st, "ana", false)
	seedUser(t, st, "beto", true)
	like(t, st, "beto", "ana")
	svc := NewRevealService(st, NewMatchService(st))

	revealed, err := svc.RevealInfo(ctx, "ana", RevealRequest{MatchedUsername: "beto", InfoType: "budget"})
	require.NoError(t, err)
	assert.True(t, revealed.RevealedBudget)

	revealed, err = svc.RevealInfo(ctx, "ana", RevealRequest{MatchedUsername: "beto", InfoType: "contact"})
	require.NoError(t, err)
	assert.True(t, revealed.RevealedBudget)
	assert.True(t, revealed.RevealedContact)
	assert.False(t, revealed.RevealedZones)

	// Revealing again changes nothing.
	again, err := svc.RevealInfo(ctx, "ana", RevealRequest{MatchedUsername: "beto", InfoType: "budget"})
	require.NoError(t, err)
	assert.Equal(t, revealed.RevealedBudget, again.RevealedBudget)
	assert.Equal(t, revealed.RevealedContact, again.RevealedContact)

	status, err := svc.GetRevealStatus(ctx, "ana", "beto")
	require.NoError(t, err)
	require.NotNil(t, status.Given)
	assert.True(t, status.Given.RevealedContact)
	assert.Nil(t, status.Received)

	assert.Empty(t, mustFind(t, st, "beto").RevealedInfo)
}
