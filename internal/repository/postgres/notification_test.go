package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetmaint-backend/internal/domain"
)

func TestNotificationRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewNotificationRepository(db)
	ctx := context.Background()

	jobID := int32(7)
	rec := &domain.NotificationRecord{
		JobID:        &jobID,
		MessageID:    "a2a7c5e0",
		Type:         domain.NotificationTypeReminder,
		State:        domain.NotificationStatePending,
		Recipient:    "op@fleet.test",
		Subject:      "Maintenance Reminder - ABC-123",
		Body:         "body",
		ScheduledFor: time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC),
	}

	mock.ExpectQuery("INSERT INTO notification_records").
		WithArgs(rec.JobID, rec.MessageID, rec.Type, rec.State, rec.Recipient,
			rec.Subject, rec.Body, rec.ScheduledFor, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))

	require.NoError(t, repo.Create(ctx, rec))
	assert.Equal(t, int32(11), rec.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_UpdateOutcome(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewNotificationRepository(db)
	ctx := context.Background()

	sentAt := time.Date(2026, 3, 1, 6, 0, 5, 0, time.UTC)
	rec := &domain.NotificationRecord{
		ID:     11,
		State:  domain.NotificationStateSent,
		SentAt: &sentAt,
	}

	mock.ExpectExec("UPDATE notification_records SET").
		WithArgs(rec.State, rec.SentAt, rec.Error, rec.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.UpdateOutcome(ctx, rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_ListPendingDue(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewNotificationRepository(db)
	ctx := context.Background()

	now := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	jobID := int32(7)
	rows := sqlmock.NewRows([]string{"id", "job_id", "message_id", "type", "state", "recipient",
		"subject", "body", "scheduled_for", "sent_at", "error", "created_on"}).
		AddRow(11, jobID, "m1", domain.NotificationTypeReminder, domain.NotificationStatePending,
			"op@fleet.test", "s", "b", now, nil, "", now)

	mock.ExpectQuery(`SELECT (.+) FROM notification_records WHERE state = 'PENDING' AND scheduled_for <= \$1`).
		WithArgs(now).
		WillReturnRows(rows)

	got, err := repo.ListPendingDue(ctx, now)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int32(11), got[0].ID)
	require.NotNil(t, got[0].JobID)
	assert.Equal(t, jobID, *got[0].JobID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_ExistsOnDay(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewNotificationRepository(db)
	ctx := context.Background()
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	// The guard must window on scheduled_for (the dispatcher's clock), never
	// on created_on, so backdated and catch-up ticks stay idempotent.
	windowedOnScheduledFor := `scheduled_for >= \$4 AND scheduled_for < \$4 \+ INTERVAL '1 day'`

	t.Run("Exists", func(t *testing.T) {
		mock.ExpectQuery(windowedOnScheduledFor).
			WithArgs(int32(7), domain.NotificationTypeReminder, "op@fleet.test", day).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		exists, err := repo.ExistsOnDay(ctx, 7, domain.NotificationTypeReminder, "op@fleet.test", day)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("Missing", func(t *testing.T) {
		mock.ExpectQuery(windowedOnScheduledFor).
			WithArgs(int32(7), domain.NotificationTypeEscalation, "sup@fleet.test", day).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		exists, err := repo.ExistsOnDay(ctx, 7, domain.NotificationTypeEscalation, "sup@fleet.test", day)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("AnyRecipient", func(t *testing.T) {
		mock.ExpectQuery(windowedOnScheduledFor).
			WithArgs(int32(7), domain.NotificationTypeReminder, "", day).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		exists, err := repo.ExistsOnDay(ctx, 7, domain.NotificationTypeReminder, "", day)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
