package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"fleetmaint-backend/internal/domain"
	"fleetmaint-backend/internal/repository"
)

type notificationRepository struct {
	db repository.DBTX
}

func NewNotificationRepository(db repository.DBTX) repository.NotificationRepository {
	return &notificationRepository{db: db}
}

const notificationColumns = `id, job_id, message_id, type, state, recipient, subject, body, scheduled_for, sent_at, error, created_on`

func scanNotification(row interface{ Scan(...any) error }) (*domain.NotificationRecord, error) {
	n := &domain.NotificationRecord{}
	err := row.Scan(&n.ID, &n.JobID, &n.MessageID, &n.Type, &n.State, &n.Recipient, &n.Subject, &n.Body,
		&n.ScheduledFor, &n.SentAt, &n.Error, &n.CreatedOn)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return n, nil
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.NotificationRecord) error {
	query := `INSERT INTO notification_records (job_id, message_id, type, state, recipient, subject, body, scheduled_for, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	n.CreatedOn = time.Now()
	return r.db.QueryRowContext(ctx, query, n.JobID, n.MessageID, n.Type, n.State, n.Recipient,
		n.Subject, n.Body, n.ScheduledFor, n.CreatedOn).Scan(&n.ID)
}

func (r *notificationRepository) GetByID(ctx context.Context, id int32) (*domain.NotificationRecord, error) {
	query := `SELECT ` + notificationColumns + ` FROM notification_records WHERE id = $1`
	return scanNotification(r.db.QueryRowContext(ctx, query, id))
}

func (r *notificationRepository) UpdateOutcome(ctx context.Context, n *domain.NotificationRecord) error {
	query := `UPDATE notification_records SET state=$1, sent_at=$2, error=$3 WHERE id=$4`
	res, err := r.db.ExecContext(ctx, query, n.State, n.SentAt, n.Error, n.ID)
	if err != nil {
		return err
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *notificationRepository) listWhere(ctx context.Context, where string, args ...any) ([]domain.NotificationRecord, error) {
	query := `SELECT ` + notificationColumns + ` FROM notification_records ` + where
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.NotificationRecord
	for rows.Next() {
		var n domain.NotificationRecord
		if err := rows.Scan(&n.ID, &n.JobID, &n.MessageID, &n.Type, &n.State, &n.Recipient, &n.Subject, &n.Body,
			&n.ScheduledFor, &n.SentAt, &n.Error, &n.CreatedOn); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *notificationRepository) ListPendingDue(ctx context.Context, now time.Time) ([]domain.NotificationRecord, error) {
	return r.listWhere(ctx, `WHERE state = 'PENDING' AND scheduled_for <= $1 ORDER BY id`, now)
}

func (r *notificationRepository) ListByState(ctx context.Context, state domain.NotificationState) ([]domain.NotificationRecord, error) {
	return r.listWhere(ctx, `WHERE state = $1 ORDER BY id`, state)
}

// ExistsOnDay windows on scheduled_for, which the dispatcher stamps from its
// clock; created_on is wall-clock insertion time and would break the guard on
// catch-up ticks. An empty recipient matches records for any recipient.
func (r *notificationRepository) ExistsOnDay(ctx context.Context, jobID int32, typ domain.NotificationType, recipient string, day time.Time) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (
	            SELECT 1 FROM notification_records
	            WHERE job_id = $1 AND type = $2 AND ($3 = '' OR recipient = $3)
	              AND scheduled_for >= $4 AND scheduled_for < $4 + INTERVAL '1 day')`
	err := r.db.QueryRowContext(ctx, query, jobID, typ, recipient, day).Scan(&exists)
	return exists, err
}
