package db

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"gatekeeper/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupDB(t *testing.T) *DB {
	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	require.NoError(t, bunDB.ResetModel(context.Background(), (*models.Ticket)(nil)))

	t.Cleanup(func() { bunDB.Close() })
	return &DB{Bun: bunDB}
}

func seedTicket(t *testing.T, d *DB, id, code, status string) {
	require.NoError(t, d.CreateTicket(context.Background(), models.Ticket{
		TicketID:        id,
		TierID:          "tier-1",
		EventID:         "event-1",
		UserID:          "user-1",
		Code:            code,
		Status:          status,
		PriceAtPurchase: 100,
		IssuedAt:        time.Now(),
	}))
}

func TestGetTicketByCode(t *testing.T) {
	d := setupDB(t)
	seedTicket(t, d, "ticket-1", "GK-LAUN-0001-AAAAAA", models.TicketStatusValid)

	ticket, err := d.GetTicketByCode(context.Background(), "GK-LAUN-0001-AAAAAA")
	require.NoError(t, err)
	assert.Equal(t, "ticket-1", ticket.TicketID)

	_, err = d.GetTicketByCode(context.Background(), "GK-NOPE-0000-000000")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestCodeExists(t *testing.T) {
	d := setupDB(t)
	seedTicket(t, d, "ticket-1", "GK-LAUN-0001-AAAAAA", models.TicketStatusValid)

	exists, err := d.CodeExists(context.Background(), "GK-LAUN-0001-AAAAAA")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = d.CodeExists(context.Background(), "GK-LAUN-0002-BBBBBB")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCountByTier_StatusFilter(t *testing.T) {
	d := setupDB(t)
	seedTicket(t, d, "t1", "GK-LAUN-0001-AAAAAA", models.TicketStatusValid)
	seedTicket(t, d, "t2", "GK-LAUN-0002-BBBBBB", models.TicketStatusCheckedIn)
	seedTicket(t, d, "t3", "GK-LAUN-0003-CCCCCC", models.TicketStatusRevoked)
	ctx := context.Background()

	live, err := d.CountByTier(ctx, "tier-1", []string{models.TicketStatusValid, models.TicketStatusCheckedIn})
	require.NoError(t, err)
	assert.Equal(t, 2, live)

	all, err := d.CountByTier(ctx, "tier-1", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, all)
}

func TestCountByEvent_IncludesRevoked(t *testing.T) {
	d := setupDB(t)
	seedTicket(t, d, "t1", "GK-LAUN-0001-AAAAAA", models.TicketStatusValid)
	seedTicket(t, d, "t2", "GK-LAUN-0002-BBBBBB", models.TicketStatusRevoked)

	count, err := d.CountByEvent(context.Background(), "event-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "revoked tickets still consume sequence numbers")
}

func TestUpdateTicketStatus_CheckIn(t *testing.T) {
	d := setupDB(t)
	seedTicket(t, d, "ticket-1", "GK-LAUN-0001-AAAAAA", models.TicketStatusValid)
	ctx := context.Background()

	checkedInAt := time.Now()
	require.NoError(t, d.UpdateTicketStatus(ctx, "ticket-1", models.TicketStatusCheckedIn, checkedInAt))

	ticket, err := d.GetTicketByID(ctx, "ticket-1")
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusCheckedIn, ticket.Status)
	assert.False(t, ticket.CheckedInTime.IsZero())
}

func TestUpdateTicketStatus_RevokeKeepsNoCheckInTime(t *testing.T) {
	d := setupDB(t)
	seedTicket(t, d, "ticket-1", "GK-LAUN-0001-AAAAAA", models.TicketStatusValid)
	ctx := context.Background()

	require.NoError(t, d.UpdateTicketStatus(ctx, "ticket-1", models.TicketStatusRevoked, time.Time{}))

	ticket, err := d.GetTicketByID(ctx, "ticket-1")
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusRevoked, ticket.Status)
	assert.True(t, ticket.CheckedInTime.IsZero())
}

func TestGetTicketsByUser(t *testing.T) {
	d := setupDB(t)
	seedTicket(t, d, "t1", "GK-LAUN-0001-AAAAAA", models.TicketStatusValid)
	seedTicket(t, d, "t2", "GK-LAUN-0002-BBBBBB", models.TicketStatusValid)

	tickets, err := d.GetTicketsByUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Len(t, tickets, 2)

	none, err := d.GetTicketsByUser(context.Background(), "stranger")
	require.NoError(t, err)
	assert.Empty(t, none)
}
