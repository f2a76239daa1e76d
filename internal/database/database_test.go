package database_test

import (
	"testing"

	"catalog/internal/database"
	"catalog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenTest_Migrates(t *testing.T) {
	db, err := database.OpenTest()
	require.NoError(t, err)

	for _, table := range []any{&models.Category{}, &models.Product{}, &models.User{}} {
		assert.True(t, db.Migrator().HasTable(table))
	}
	assert.True(t, db.Migrator().HasColumn(&models.Product{}, "is_deleted"))
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := database.Open("mysql", "dsn")
	assert.Error(t, err)
}
