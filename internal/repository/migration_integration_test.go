//go:build integration

package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/userprov/userprov/internal/migrations"
	"github.com/userprov/userprov/internal/testutil"
)

func TestIntegrationMigration_UsersTableSchema(t *testing.T) {
	ctx, pool := newMigrationTestEnv(t)

	exists, err := tableExists(ctx, pool, "users")
	if err != nil {
		t.Fatalf("tableExists failed: %v", err)
	}
	if !exists {
		t.Fatal("users table should exist after migrations")
	}

	for _, col := range []string{"external_user_id", "created_at"} {
		t.Run(col, func(t *testing.T) {
			exists, err := columnExists(ctx, pool, "users", col)
			if err != nil {
				t.Fatalf("columnExists failed: %v", err)
			}
			if !exists {
				t.Errorf("Column %q should exist in users table", col)
			}
		})
	}

	// Only the two identity columns are persisted.
	var count int
	err = pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = 'users'
	`).Scan(&count)
	if err != nil {
		t.Fatalf("count columns: %v", err)
	}
	if count != 2 {
		t.Errorf("users has %d columns, want 2", count)
	}
}

func TestIntegrationMigration_CreatedAtNotNull(t *testing.T) {
	ctx, pool := newMigrationTestEnv(t)

	_, err := pool.Exec(ctx, `INSERT INTO users (external_user_id, created_at) VALUES (gen_random_uuid(), NULL)`)
	if err == nil {
		t.Fatal("expected NOT NULL violation for created_at")
	}
}

func TestIntegrationMigration_Rollback(t *testing.T) {
	ctx, pool := newMigrationTestEnv(t)

	db := stdlib.OpenDBFromPool(pool)
	t.Cleanup(func() { _ = db.Close() })

	p, err := migrations.NewProvider(db)
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	if _, err := p.DownTo(ctx, 0); err != nil {
		t.Fatalf("down to 0: %v", err)
	}

	exists, err := tableExists(ctx, pool, "users")
	if err != nil {
		t.Fatalf("tableExists failed: %v", err)
	}
	if exists {
		t.Error("users table should be gone after rollback")
	}

	version, err := p.GetDBVersion(ctx)
	if err != nil {
		t.Fatalf("db version: %v", err)
	}
	if version != 0 {
		t.Errorf("db version after rollback = %d, want 0", version)
	}

	// Leave the schema in place for the other tests.
	if err := testutil.ResetUsersSchema(ctx, pool); err != nil {
		t.Fatalf("reset schema: %v", err)
	}
}

func TestIntegrationMigration_ConcurrentRunners(t *testing.T) {
	ctx, pool := newMigrationTestEnv(t)

	db := stdlib.OpenDBFromPool(pool)
	t.Cleanup(func() { _ = db.Close() })

	first, err := migrations.NewProvider(db)
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	if _, err := first.DownTo(ctx, 0); err != nil {
		t.Fatalf("down to 0: %v", err)
	}

	const runners = 3
	applied := make(chan int, runners)
	errs := make(chan error, runners)
	var wg sync.WaitGroup
	for i := 0; i < runners; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := migrations.NewProvider(db)
			if err != nil {
				errs <- err
				return
			}
			results, err := p.Up(ctx)
			if err != nil {
				errs <- err
				return
			}
			applied <- len(results)
		}()
	}
	wg.Wait()
	close(applied)
	close(errs)

	for err := range errs {
		t.Errorf("concurrent up: %v", err)
	}
	total := 0
	for n := range applied {
		total += n
	}
	sources := first.ListSources()
	if total != len(sources) {
		t.Errorf("migrations applied %d times across runners, want %d", total, len(sources))
	}
}

func TestIntegrationMigration_Idempotency(t *testing.T) {
	ctx, pool := newMigrationTestEnv(t)

	for i := 0; i < 2; i++ {
		if err := testutil.ResetUsersSchema(ctx, pool); err != nil {
			t.Fatalf("reset %d: %v", i, err)
		}
	}
}

func tableExists(ctx context.Context, pool *pgxpool.Pool, tableName string) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_schema = 'public' AND table_name = $1
		)
	`, tableName).Scan(&exists)
	return exists, err
}

func columnExists(ctx context.Context, pool *pgxpool.Pool, tableName, columnName string) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT FROM information_schema.columns
			WHERE table_schema = 'public' AND table_name = $1 AND column_name = $2
		)
	`, tableName, columnName).Scan(&exists)
	return exists, err
}

func newMigrationTestEnv(t *testing.T) (context.Context, *pgxpool.Pool) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(pool.Close)

	unlock, err := testutil.AcquireDBLock(ctx, pool)
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() {
		_ = unlock()
	})

	if err := testutil.ResetUsersSchema(ctx, pool); err != nil {
		t.Fatalf("reset schema: %v", err)
	}

	return ctx, pool
}
