package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConnectionStrings(t *testing.T) {
	t.Run("mongo with credentials", func(t *testing.T) {
		assert.Equal(t, "mongodb://root:pw@mongo:27017", MongoURI("root", "pw", "mongo", 27017))
	})
	t.Run("mongo without credentials", func(t *testing.T) {
		assert.Equal(t, "mongodb://localhost:27017", MongoURI("", "", "localhost", 27017))
	})
	t.Run("postgres", func(t *testing.T) {
		assert.Equal(t, "postgres://u:p@pg:5432/members?sslmode=disable", PostgresDSN("u", "p", "pg", 5432, "members"))
	})
	t.Run("seconds", func(t *testing.T) {
		assert.Equal(t, 3*time.Second, Seconds(3))
	})
}
