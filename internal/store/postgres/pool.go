// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package postgres is the Judge's persistent-store implementation: a
// pgxpool.Pool plus per-table stores, wired the way the teacher wires
// pkg/storage/postgres.Backend over internal/pgxdriver.NewPool, with the
// loomv1 proto pool config replaced by a plain PoolConfig (no generated
// code is available here).
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolConfig configures connection pool sizing. Zero values fall back to
// the same defaults the teacher's applyPoolConfig uses.
type PoolConfig struct {
	MaxConns          int32
	MinConns          int32
	MaxConnIdleTime   time.Duration
	MaxConnLifetime   time.Duration
	HealthCheckPeriod time.Duration
}

func (p PoolConfig) withDefaults() PoolConfig {
	if p.MaxConns == 0 {
		p.MaxConns = 25
	}
	if p.MinConns == 0 {
		p.MinConns = 5
	}
	if p.MaxConnIdleTime == 0 {
		p.MaxConnIdleTime = 5 * time.Minute
	}
	if p.MaxConnLifetime == 0 {
		p.MaxConnLifetime = time.Hour
	}
	if p.HealthCheckPeriod == 0 {
		p.HealthCheckPeriod = 30 * time.Second
	}
	return p
}

// Config is the connection configuration for NewPool.
type Config struct {
	DSN    string
	Schema string
	Pool   PoolConfig
}

// NewPool creates a pgxpool.Pool, sets search_path via AfterConnect, and
// verifies connectivity with a Ping before returning — same shape as the
// teacher's internal/pgxdriver.NewPool.
func NewPool(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres configuration requires a dsn")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres DSN: %w", err)
	}

	p := cfg.Pool.withDefaults()
	poolCfg.MaxConns = p.MaxConns
	poolCfg.MinConns = p.MinConns
	poolCfg.MaxConnIdleTime = p.MaxConnIdleTime
	poolCfg.MaxConnLifetime = p.MaxConnLifetime
	poolCfg.HealthCheckPeriod = p.HealthCheckPeriod

	schema := cfg.Schema
	if schema == "" {
		schema = "public"
	}
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s", pgx.Identifier{schema}.Sanitize()))
		return err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return pool, nil
}

// execInTx runs fn inside a transaction, committing on nil error and
// rolling back otherwise — the teacher's pkg/storage/postgres/result_store.go
// pattern.
func execInTx(ctx context.Context, pool *pgxpool.Pool, fn func(ctx context.Context, tx pgx.Tx) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
