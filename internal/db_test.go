package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetHistoryConnStr(t *testing.T) {
	t.Setenv("POSTGRES_HOST", "db.local")
	t.Setenv("POSTGRES_PORT", "6543")
	t.Setenv("POSTGRES_USER", "scorer")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("POSTGRES_DB", "")
	t.Setenv("POSTGRES_SSL_MODE", "")

	assert.Equal(t,
		"host=db.local port=6543 user=scorer password=secret dbname=scores sslmode=disable",
		GetHistoryConnStr())
}
