package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// dbtx is the subset of *pgxpool.Pool the store uses.
type dbtx interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore is a PostgreSQL implementation of the Store interface.
// Queries are built with squirrel using $n placeholders.
type PostgresStore struct {
	pool *pgxpool.Pool
	db   dbtx
	sb   sq.StatementBuilderType
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{
		pool: pool,
		db:   pool,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// GetUser retrieves a user by ID.
func (p *PostgresStore) GetUser(ctx context.Context, id int64) (*User, error) {
	query, args, err := p.sb.
		Select("id", "email", "first_name", "last_name").
		From("users").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build user query: %w", err)
	}

	var u User
	if err := p.db.QueryRow(ctx, query, args...).Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return &u, nil
}

// PublishedCampaigns returns published campaigns ordered by name.
func (p *PostgresStore) PublishedCampaigns(ctx context.Context) ([]Campaign, error) {
	query := p.sb.
		Select("id", "name", "is_published").
		From("campaigns").
		Where(sq.Eq{"is_published": true}).
		OrderBy("name")
	return collect[Campaign](ctx, p.db, query)
}

// UserSegments returns published segments that are global or created by userID.
func (p *PostgresStore) UserSegments(ctx context.Context, userID int64) ([]Segment, error) {
	query := p.sb.
		Select("id", "name", "is_published", "is_global", "created_by").
		From("lead_lists").
		Where(sq.Eq{"is_published": true}).
		Where(sq.Or{sq.Eq{"is_global": true}, sq.Eq{"created_by": userID}}).
		OrderBy("name")
	return collect[Segment](ctx, p.db, query)
}

// EmailLookup returns published emails whose name starts with filter.
func (p *PostgresStore) EmailLookup(ctx context.Context, filter string, limit, start int) ([]Email, error) {
	query := p.sb.
		Select("id", "name", "lang", "is_published").
		From("emails").
		Where(sq.Eq{"is_published": true}).
		OrderBy("lang", "name")
	if filter != "" {
		query = query.Where(sq.ILike{"name": escapeLike(filter) + "%"})
	}
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}
	if start > 0 {
		query = query.Offset(uint64(start))
	}
	return collect[Email](ctx, p.db, query)
}

// AddNotification inserts n.
func (p *PostgresStore) AddNotification(ctx context.Context, n Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.DateAdded.IsZero() {
		n.DateAdded = time.Now().UTC()
	}
	query, args, err := p.sb.
		Insert("notifications").
		Columns("id", "user_id", "type", "header", "icon_class", "message", "is_read", "date_added").
		Values(n.ID, n.UserID, n.Type, n.Header, n.IconClass, n.Message, n.IsRead, n.DateAdded).
		ToSql()
	if err != nil {
		return fmt.Errorf("build notification insert: %w", err)
	}
	if _, err := p.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// ListNotifications returns a user's notifications, newest first.
func (p *PostgresStore) ListNotifications(ctx context.Context, userID int64) ([]Notification, error) {
	query := p.sb.
		Select("id", "user_id", "type", "header", "icon_class", "message", "is_read", "date_added").
		From("notifications").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("date_added DESC")
	return collect[Notification](ctx, p.db, query)
}

// SaveExportScheduler inserts s.
func (p *PostgresStore) SaveExportScheduler(ctx context.Context, s *ExportScheduler) error {
	if s.User == nil {
		return errors.New("export scheduler has no user")
	}
	data := []byte("{}")
	if s.Data != nil {
		b, err := json.Marshal(s.Data)
		if err != nil {
			return fmt.Errorf("encode export data: %w", err)
		}
		data = b
	}
	query, args, err := p.sb.
		Insert("contact_export_schedulers").
		Columns("id", "user_id", "data", "scheduled_at").
		Values(s.ID, s.User.ID, data, s.ScheduledAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build export insert: %w", err)
	}
	if _, err := p.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert export scheduler: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (p *PostgresStore) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

// collect runs query and maps each row onto T by column position.
func collect[T any](ctx context.Context, db dbtx, query sq.SelectBuilder) ([]T, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByPos[T])
	if err != nil {
		return nil, fmt.Errorf("scan rows: %w", err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
