package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codyseavey/card-grader/internal/models"
)

func TestMigrateLegacyKeys(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	require.NoError(t, db.Create(&models.KVRecord{Key: "collection", Value: `[{"id":"a"}]`}).Error)
	require.NoError(t, db.Create(&models.KVRecord{Key: "settings", Value: `{"darkMode":true}`}).Error)
	require.NoError(t, db.Create(&models.KVRecord{Key: "@app_settings", Value: `{"darkMode":false}`}).Error)

	require.NoError(t, RunMigrations(db))
	// Second run is a no-op.
	require.NoError(t, RunMigrations(db))

	var rec models.KVRecord
	require.NoError(t, db.First(&rec, "key = ?", "@card_collection").Error)
	assert.Equal(t, `[{"id":"a"}]`, rec.Value)

	require.NoError(t, db.First(&rec, "key = ?", "@app_settings").Error)
	assert.Equal(t, `{"darkMode":false}`, rec.Value, "existing new key wins")

	var legacy int64
	require.NoError(t, db.Model(&models.KVRecord{}).Where("key IN ?", []string{"collection", "settings"}).Count(&legacy).Error)
	assert.Zero(t, legacy)
}
