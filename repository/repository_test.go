package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vignesh0909/adbond.net-sub002/database"
	"github.com/vignesh0909/adbond.net-sub002/models"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"), database.MigrationsFS())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func createUser(t *testing.T, repo UserRepository, username string, role models.Role) *models.User {
	t.Helper()
	u := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
		Role:         role,
	}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func createEntity(t *testing.T, repo EntityRepository, owner, name string, typ models.EntityType, status models.EntityStatus) *models.Entity {
	t.Helper()
	e := &models.Entity{
		OwnerID:    owner,
		Name:       name,
		Type:       typ,
		Categories: []string{"finance", "crypto"},
		Status:     status,
	}
	require.NoError(t, repo.Create(context.Background(), e))
	return e
}
