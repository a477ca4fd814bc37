package services

import (
	"context"
	"testing"

	"github.com/princeprakhar/roomies-backend/internal/models"
	"github.com/princeprakhar/roomies-backend/internal/store"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, st store.UserStore, username string, hasPlace bool) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		HasPlace: hasPlace,
		Zones:    []string{"palermo"},
		Budget:   500,
		Contact:  "+54 11 5555 0000",
	}
	require.NoError(t, user.SetPassword("password123"))
	require.NoError(t, st.CreateUser(context.Background(), user))
	return user
}

// like records that from liked to.
func like(t *testing.T, st store.UserStore, from, to string) {
	t.Helper()
	require.NoError(t, st.AddToSet(context.Background(), to, store.SetIsMatch, from))
}

func mustFind(t *testing.T, st store.UserStore, username string) *models.User {
	t.Helper()
	user, err := st.FindUser(context.Background(), username)
	require.NoError(t, err)
	return user
}
