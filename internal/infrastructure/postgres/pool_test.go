package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sisfac/sisfac-api/pkg/config"
)

func TestPoolConfig_DesdeCampos(t *testing.T) {
	cfg := config.DBConfig{
		Host: "db.interna", Port: 5433, User: "app", Password: "secreto",
		DBName: "sisfac", SSLMode: "disable", MaxConns: 10, MinConns: 3,
	}
	pc, err := poolConfig(cfg)
	require.NoError(t, err)

	assert.Equal(t, "db.interna", pc.ConnConfig.Host)
	assert.Equal(t, uint16(5433), pc.ConnConfig.Port)
	assert.Equal(t, "sisfac", pc.ConnConfig.Database)
	assert.Equal(t, int32(10), pc.MaxConns)
	assert.Equal(t, int32(3), pc.MinConns)
	assert.Equal(t, time.Hour, pc.MaxConnLifetime)
	assert.NotNil(t, pc.AfterConnect)
}

func TestPoolConfig_DatabaseURLTienePrioridad(t *testing.T) {
	cfg := config.DBConfig{
		DatabaseURL: "postgres://u:p@remoto.example:6543/facturas?sslmode=disable",
		Host:        "ignorado", Port: 5432, DBName: "otra",
	}
	pc, err := poolConfig(cfg)
	require.NoError(t, err)

	assert.Equal(t, "remoto.example", pc.ConnConfig.Host)
	assert.Equal(t, uint16(6543), pc.ConnConfig.Port)
	assert.Equal(t, "facturas", pc.ConnConfig.Database)
	assert.Equal(t, int32(25), pc.MaxConns, "sin DB_MAX_CONNS se usa el tamaño por defecto")
}

func TestPoolConfig_MinNoSuperaMax(t *testing.T) {
	pc, err := poolConfig(config.DBConfig{DatabaseURL: "postgres://u@h/db", MaxConns: 4, MinConns: 9})
	require.NoError(t, err)
	assert.Equal(t, int32(4), pc.MinConns)
}

func TestPoolConfig_DSNInvalido(t *testing.T) {
	_, err := poolConfig(config.DBConfig{DatabaseURL: "postgres://u@h:noesnumero/db"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse DSN")
}
