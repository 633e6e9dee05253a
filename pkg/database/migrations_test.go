package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetMigrations_OrderedVersions(t *testing.T) {
	migrations := getMigrations(30 * 24 * time.Hour)

	assert.NotEmpty(t, migrations)
	for i, m := range migrations {
		assert.Equal(t, i+1, m.Version)
		assert.NotEmpty(t, m.Description)
		assert.NotNil(t, m.Up)
		assert.NotNil(t, m.Down)
	}
}
