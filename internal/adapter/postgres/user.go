package repo

import (
	"context"
	"errors"
	"time"

	"github.com/Temutjin2k/fieldtrack/internal/domain/models"
	"github.com/Temutjin2k/fieldtrack/internal/domain/types"
	"github.com/Temutjin2k/fieldtrack/pkg/postgres"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	pushTokenPrefix     = "ExponentPushToken"
	userEmailConstraint = "users_email_key"
)

type UserRepo struct {
	db Querier
}

func NewUserRepo(db Querier) *UserRepo {
	return &UserRepo{
		db: db,
	}
}

// Create inserts u. An existing email is left untouched and reported through the bool.
func (r *UserRepo) Create(ctx context.Context, u *models.User) (created bool, err error) {
	const op = "UserRepo.Create"
	start := time.Now()
	defer func() { observe(op, start, err) }()

	const query = `
		INSERT INTO users (name, email, password_hash, role, transport, region)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''))
		ON CONFLICT (email) DO NOTHING
		RETURNING id, created_at`

	err = TxorDB(ctx, r.db).QueryRow(ctx, query,
		u.Name,
		u.Email,
		u.PasswordHash,
		string(u.Role),
		string(u.Transport),
		string(u.Region),
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		if postgres.IsUniqueViolation(err, userEmailConstraint) {
			return false, types.ErrEmailTaken
		}
		return false, persistence(ctx, op, err)
	}

	return true, nil
}

const selectUser = `
	SELECT id, name, email, password_hash, role, COALESCE(transport, ''), COALESCE(region, ''),
		COALESCE(push_token, ''), created_at
	FROM users`

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.get(ctx, "UserRepo.GetByEmail", selectUser+" WHERE email = $1", email)
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.get(ctx, "UserRepo.GetByID", selectUser+" WHERE id = $1", id)
}

func (r *UserRepo) get(ctx context.Context, op, query string, arg any) (_ *models.User, err error) {
	start := time.Now()
	defer func() { observe(op, start, err) }()

	var (
		u                       models.User
		role, transport, region string
	)
	if err := TxorDB(ctx, r.db).QueryRow(ctx, query, arg).Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&role,
		&transport,
		&region,
		&u.PushToken,
		&u.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrUserNotFound
		}
		return nil, persistence(ctx, op, err)
	}

	u.Role = types.UserRole(role)
	u.Transport = types.Transport(transport)
	u.Region = types.Region(region)
	return &u, nil
}

func (r *UserRepo) SetPushToken(ctx context.Context, id uuid.UUID, token string) (err error) {
	const op = "UserRepo.SetPushToken"
	start := time.Now()
	defer func() { observe(op, start, err) }()

	tag, err := TxorDB(ctx, r.db).Exec(ctx, `UPDATE users SET push_token = $2 WHERE id = $1`, id, token)
	if err != nil {
		return persistence(ctx, op, err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrUserNotFound
	}

	return nil
}

// ListPushRecipients returns users of the given roles holding an Expo push token.
func (r *UserRepo) ListPushRecipients(ctx context.Context, roles []types.UserRole) (_ []models.PushRecipient, err error) {
	const op = "UserRepo.ListPushRecipients"
	start := time.Now()
	defer func() { observe(op, start, err) }()

	const query = `
		SELECT id, email, push_token
		FROM users
		WHERE role = ANY($1) AND push_token LIKE $2
		ORDER BY email`

	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, string(role))
	}

	rows, err := TxorDB(ctx, r.db).Query(ctx, query, names, pushTokenPrefix+"%")
	if err != nil {
		return nil, persistence(ctx, op, err)
	}
	defer rows.Close()

	recipients := make([]models.PushRecipient, 0)
	for rows.Next() {
		var p models.PushRecipient
		if err := rows.Scan(&p.UserID, &p.Email, &p.PushToken); err != nil {
			return nil, persistence(ctx, op, err)
		}
		recipients = append(recipients, p)
	}
	if err := rows.Err(); err != nil {
		return nil, persistence(ctx, op, err)
	}

	return recipients, nil
}
