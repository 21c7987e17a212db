package scan

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPgGetUserByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := newPgRepositoryWithDB(mock)
	id := uuid.New()
	now := time.Now()

	mock.ExpectQuery("SELECT id, username, role, phone, created_at, updated_at").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"id", "username", "role", "phone", "created_at", "updated_at"}).
			AddRow(id, "admin", "Administrator", (*string)(nil), now, now))

	u, err := repo.GetUserByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "admin", u.Username)
	assert.Equal(t, RoleAdministrator, u.Role)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPgGetUserByIDNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := newPgRepositoryWithDB(mock)
	id := uuid.New()

	mock.ExpectQuery("SELECT id, username, role, phone, created_at, updated_at").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"id", "username", "role", "phone", "created_at", "updated_at"}))

	_, err = repo.GetUserByID(context.Background(), id)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestPgOccupiedInstants(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := newPgRepositoryWithDB(mock)
	from := time.Date(2026, time.September, 2, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)
	at := from.Add(9*time.Hour + 30*time.Minute)

	mock.ExpectQuery("SELECT date_time").
		WithArgs(from, to, (*uuid.UUID)(nil)).
		WillReturnRows(pgxmock.NewRows([]string{"date_time"}).AddRow(at))

	instants, err := repo.OccupiedInstants(context.Background(), from, to, nil)
	require.NoError(t, err)
	require.Len(t, instants, 1)
	assert.True(t, instants[0].Equal(at))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListQueryWhere(t *testing.T) {
	id := uuid.New()
	status := StatusConfirmed
	scanned := false
	from := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)

	q := ListQuery{
		AssignedTo: &id,
		From:       &from,
		IsScanned:  &scanned,
		Status:     &status,
	}

	where, args := q.where()
	assert.Equal(t, " WHERE s.assigned_to = $1 AND s.date_time >= $2 AND s.is_scanned = $3 AND s.status = $4", where)
	assert.Equal(t, []any{id, from, scanned, status}, args)
}

func TestListQueryWhereEmpty(t *testing.T) {
	where, args := ListQuery{}.where()
	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestListQueryOffset(t *testing.T) {
	assert.Equal(t, 0, ListQuery{Page: 1, Limit: 25}.Offset())
	assert.Equal(t, 50, ListQuery{Page: 3, Limit: 25}.Offset())
	assert.Equal(t, 0, ListQuery{Page: 0, Limit: 25}.Offset())
}
