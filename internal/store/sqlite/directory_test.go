package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectoryInMemory(t *testing.T) {
	d, err := Open(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	ctx := context.Background()

	require.NoError(t, d.AddProperty(ctx, "o1", "200", "Harbor Loft"))
	require.NoError(t, d.AddProperty(ctx, "o1", "100", "Dune House"))
	require.NoError(t, d.AddProperty(ctx, "o1", "100", "Dune House"))
	require.NoError(t, d.AddProperty(ctx, "o1", "", "Unlisted"))
	require.NoError(t, d.AddProperty(ctx, "o2", "300", "Cedar Cabin"))

	ids, err := d.ExternalIDsByOwner(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, []string{"100", "200"}, ids)

	ids, err = d.ExternalIDsByOwner(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, ids)

	n, err := d.CountManaged(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.NoError(t, d.EnsureSchema(ctx))
}

func TestDirectoryQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT DISTINCT external_id FROM properties").
		WithArgs("o1").
		WillReturnError(errors.New("database is locked"))

	_, err = New(db, nil).ExternalIDsByOwner(context.Background(), "o1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database is locked")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDirectoryScanError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"external_id"}).
		AddRow("100").
		RowError(0, errors.New("disk I/O error"))
	mock.ExpectQuery("SELECT DISTINCT external_id FROM properties").WithArgs("o1").WillReturnRows(rows)

	_, err = New(db, nil).ExternalIDsByOwner(context.Background(), "o1")
	assert.Error(t, err)
}

func TestDirectoryCountManaged(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(DISTINCT external_id\)`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	n, err := New(db, nil).CountManaged(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
