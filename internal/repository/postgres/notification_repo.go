package postgres

import (
	"context"
	"database/sql"

	"studyhub/internal/domain"

	"github.com/lib/pq"
)

type notificationRepository struct {
	DB *sql.DB
}

// NewNotificationRepository returns a domain.NotificationRepository implemented with Postgres.
func NewNotificationRepository(db *sql.DB) domain.NotificationRepository {
	return &notificationRepository{DB: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	query := `
		INSERT INTO notifications (title, link, message, checked, account_id, created_at, notification_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	return conn(ctx, r.DB).QueryRowContext(ctx, query,
		n.Title, n.Link, n.Message, n.Checked, n.AccountID, n.CreatedAt, string(n.Type)).Scan(&n.ID)
}

func (r *notificationRepository) CountByAccountAndChecked(ctx context.Context, accountID string, checked bool) (int, error) {
	var total int
	err := conn(ctx, r.DB).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE account_id = $1 AND checked = $2`, accountID, checked).Scan(&total)
	return total, err
}

func (r *notificationRepository) ListByAccountAndChecked(ctx context.Context, accountID string, checked bool, params domain.PaginationParams) ([]*domain.Notification, int, error) {
	total, err := r.CountByAccountAndChecked(ctx, accountID, checked)
	if err != nil {
		return nil, 0, err
	}
	query := `
		SELECT id, title, link, message, checked, account_id, created_at, notification_type
		FROM notifications
		WHERE account_id = $1 AND checked = $2
		ORDER BY created_at DESC, id
		LIMIT $3 OFFSET $4
	`
	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, accountID, checked, params.PageSize, params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []*domain.Notification
	for rows.Next() {
		n := &domain.Notification{}
		var typ string
		if err := rows.Scan(&n.ID, &n.Title, &n.Link, &n.Message, &n.Checked, &n.AccountID, &n.CreatedAt, &typ); err != nil {
			return nil, 0, err
		}
		n.Type = domain.NotificationType(typ)
		list = append(list, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, accountID string, ids []string) (int, error) {
	res, err := conn(ctx, r.DB).ExecContext(ctx,
		`UPDATE notifications SET checked = TRUE WHERE account_id = $1 AND id = ANY($2) AND checked = FALSE`,
		accountID, pq.Array(ids))
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (r *notificationRepository) DeleteByAccountAndChecked(ctx context.Context, accountID string, checked bool) (int, error) {
	res, err := conn(ctx, r.DB).ExecContext(ctx,
		`DELETE FROM notifications WHERE account_id = $1 AND checked = $2`, accountID, checked)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
