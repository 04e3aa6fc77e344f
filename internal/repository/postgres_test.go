package repository

import (
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
)

func TestNewPGMetricStore(t *testing.T) {
	pool := &pgxpool.Pool{}
	store := NewPGMetricStore(pool)
	assert.NotNil(t, store)
	assert.Equal(t, "postgres", store.Name())
}
