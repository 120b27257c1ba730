package db_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"crm_backend/platform/db"
	"crm_backend/platform/db/dbtest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRebind(t *testing.T) {
	query := "SELECT * FROM customers WHERE status = ? AND name LIKE '%?%' AND id = ?"

	assert.Equal(t, query, db.Rebind(db.DialectSQLite, query))
	assert.Equal(t,
		"SELECT * FROM customers WHERE status = $1 AND name LIKE '%?%' AND id = $2",
		db.Rebind(db.DialectPostgres, query))
}

func TestMigrateCreatesSchema(t *testing.T) {
	conn := dbtest.Open(t)
	ctx := context.Background()

	assert.Equal(t, db.DialectSQLite, conn.Dialect())

	version, err := db.MigrationVersion(ctx, conn)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, version, int64(1))

	var count int
	require.NoError(t, conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM customers").Scan(&count))
	assert.Zero(t, count)
}

func insertCustomer(ctx context.Context, q db.Querier, email string) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO customers (id, name, email, status, created_date) VALUES (?, ?, ?, 'Lead', ?)`,
		uuid.New(), "Ada", email, time.Now().UTC())
	return err
}

func TestConstraintClassification(t *testing.T) {
	conn := dbtest.Open(t)
	ctx := context.Background()

	require.NoError(t, insertCustomer(ctx, conn, "ada@example.com"))

	err := insertCustomer(ctx, conn, "ada@example.com")
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err))
	assert.False(t, db.IsForeignKeyViolation(err))

	_, err = conn.ExecContext(ctx,
		`INSERT INTO contacts (id, customer_id, type, notes, date) VALUES (?, ?, 'Email', '', ?)`,
		uuid.New(), uuid.New(), time.Now().UTC())
	require.Error(t, err)
	assert.True(t, db.IsForeignKeyViolation(err))

	_, err = conn.ExecContext(ctx,
		`INSERT INTO customers (id, name, status, created_date) VALUES (?, 'Bob', 'Prospect', ?)`,
		uuid.New(), time.Now().UTC())
	require.Error(t, err)
	assert.True(t, db.IsCheckViolation(err))
}

func TestWithTxRollsBackOnError(t *testing.T) {
	conn := dbtest.Open(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := conn.WithTx(ctx, func(q db.Querier) error {
		if err := insertCustomer(ctx, q, "first@example.com"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var count int
	require.NoError(t, conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM customers").Scan(&count))
	assert.Zero(t, count)

	require.NoError(t, conn.WithTx(ctx, func(q db.Querier) error {
		return insertCustomer(ctx, q, "second@example.com")
	}))
	require.NoError(t, conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM customers").Scan(&count))
	assert.Equal(t, 1, count)
}
