package clickhouse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDSN(t *testing.T) {
	dsn := buildDSN(ClientConfig{
		Host:        "ch",
		Port:        9000,
		Database:    "marketsim",
		User:        "default",
		DialTimeout: 5 * time.Second,
		AsyncInsert: true,
	})
	assert.Equal(t, "clickhouse://default:@ch:9000/marketsim?async_insert=1&dial_timeout=5s", dsn)
}

func TestBuildDSN_HTTP(t *testing.T) {
	dsn := buildDSN(ClientConfig{Host: "ch", Port: 8123, Database: "db", User: "u", Password: "p", UseHTTP: true})
	assert.Equal(t, "http://u:p@ch:8123/db", dsn)
}

func TestNewClient_RequiresHost(t *testing.T) {
	_, err := NewClient(WithPort(9000))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Host")
}

func TestTickSchema(t *testing.T) {
	stmts := TickSchema("marketsim", "price_ticks")
	require.Len(t, stmts, 2)
	assert.Contains(t, stmts[0], "CREATE DATABASE IF NOT EXISTS marketsim")
	assert.Contains(t, stmts[1], "marketsim.price_ticks")
	assert.Contains(t, stmts[1], "ORDER BY (symbol, ts)")
}
