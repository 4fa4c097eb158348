package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"seabot/internal/common/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientGivesUpAfterConnectTimeout(t *testing.T) {
	cfg := config.PostgresConfig{
		Host:           "127.0.0.1",
		Port:           1,
		User:           "seabot",
		Database:       "seabot",
		SSLMode:        "disable",
		MaxOpenConns:   2,
		ConnectTimeout: 300 * time.Millisecond,
	}

	start := time.Now()
	_, err := NewClient(context.Background(), cfg, nil, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to ping database")
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestRegisterPoolMetrics(t *testing.T) {
	db, err := sql.Open("postgres", "host=127.0.0.1 port=1 sslmode=disable")
	require.NoError(t, err)
	defer db.Close()

	reg := prometheus.NewRegistry()
	require.NoError(t, registerPoolMetrics(reg, db, "seabot"))
	require.NoError(t, registerPoolMetrics(reg, db, "seabot"), "second registration is tolerated")

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["go_sql_open_connections"])
	assert.True(t, names["go_sql_max_open_connections"])
}
