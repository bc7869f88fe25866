package database

import (
	"strings"
	"testing"

	"blueprep_backend/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestDSN(t *testing.T) {
	dsn := DSN(&config.DatabaseConfig{
		Host:      "db",
		Port:      3306,
		User:      "blueprep",
		Password:  "secret",
		DBName:    "blueprep",
		Charset:   "utf8mb4",
		ParseTime: true,
	})

	assert.True(t, strings.HasPrefix(dsn, "blueprep:secret@tcp(db:3306)/blueprep?"))
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "clientFoundRows=true")
}
