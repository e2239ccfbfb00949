package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vendingmachine/internal/config"
)

func TestDialectorFor(t *testing.T) {
	d, err := dialectorFor(&config.DatabaseConfig{Driver: "mysql", Host: "h", Port: 3306, User: "u", Database: "v"})
	require.NoError(t, err)
	assert.Equal(t, "mysql", d.Name())

	d, err = dialectorFor(&config.DatabaseConfig{Driver: "postgres", Host: "h", Port: 5432, User: "u", Database: "v", SSLMode: "disable"})
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())

	_, err = dialectorFor(&config.DatabaseConfig{Driver: "memory"})
	assert.Error(t, err)
}
