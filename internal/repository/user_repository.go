package repository

import (
	"context"
	"errors"
	"fmt"

	"coffee-on/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// userRepository implements the UserRepository interface using PostgreSQL.
type userRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewUserRepository creates a new PostgreSQL-backed account repository.
func NewUserRepository(pool *pgxpool.Pool, logger zerolog.Logger) UserRepository {
	return &userRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "user").Logger(),
	}
}

const userColumns = `id, nome, email, senha_hash, role, ativo, assinante, cashbacktotal, reset_code, created_at, updated_at`

func scanUser(row pgx.Row, u *model.User) error {
	return row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Active,
		&u.Subscriber, &u.Cashback, &u.ResetCode, &u.CreatedAt, &u.UpdatedAt,
	)
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO usuarios (id, nome, email, senha_hash, role, ativo, assinante, cashbacktotal)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordHash,
		user.Role, user.Active, user.Subscriber, user.Cashback,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrEmailTaken
		}
		r.logger.Error().Err(err).Str("email", user.Email).Msg("failed to create user")
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM usuarios WHERE id = $1`

	var u model.User
	if err := scanUser(r.pool.QueryRow(ctx, query, id), &u); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("user_id", id.String()).Msg("failed to query user")
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return &u, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM usuarios WHERE email = $1`

	var u model.User
	if err := scanUser(r.pool.QueryRow(ctx, query, email), &u); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Msg("failed to query user by email")
		return nil, fmt.Errorf("failed to query user by email: %w", err)
	}

	return &u, nil
}

func (r *userRepository) List(ctx context.Context) ([]model.User, error) {
	query := `SELECT ` + userColumns + ` FROM usuarios ORDER BY nome, email`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query users")
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		var u model.User
		if err := scanUser(rows, &u); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan user row")
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating user rows")
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

func (r *userRepository) Update(ctx context.Context, id uuid.UUID, changes UserChanges) (bool, error) {
	query := `
		UPDATE usuarios
		SET nome = COALESCE($2, nome),
		    email = COALESCE($3, email),
		    senha_hash = COALESCE($4, senha_hash),
		    role = COALESCE($5, role),
		    ativo = COALESCE($6, ativo),
		    assinante = COALESCE($7, assinante),
		    updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, id,
		changes.Name, changes.Email, changes.PasswordHash,
		changes.Role, changes.Active, changes.Subscriber,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return false, model.ErrEmailTaken
		}
		r.logger.Error().Err(err).Str("user_id", id.String()).Msg("failed to update user")
		return false, fmt.Errorf("failed to update user: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM usuarios WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return true, model.ErrUserHasOrders
		}
		r.logger.Error().Err(err).Str("user_id", id.String()).Msg("failed to delete user")
		return false, fmt.Errorf("failed to delete user: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func (r *userRepository) SetResetCode(ctx context.Context, email, code string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE usuarios SET reset_code = $2, updated_at = NOW() WHERE email = $1`,
		email, code,
	)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to store reset code")
		return false, fmt.Errorf("failed to store reset code: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func (r *userRepository) ResetPassword(ctx context.Context, email, code, passwordHash string) (bool, error) {
	query := `
		UPDATE usuarios
		SET senha_hash = $3, reset_code = NULL, updated_at = NOW()
		WHERE email = $1 AND reset_code = $2
	`

	tag, err := r.pool.Exec(ctx, query, email, code, passwordHash)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to reset password")
		return false, fmt.Errorf("failed to reset password: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// GetCashbackForUpdate locks the account row so concurrent placements serialize
// on the balance.
func (r *userRepository) GetCashbackForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (decimal.Decimal, bool, error) {
	var balance decimal.Decimal
	err := tx.QueryRow(ctx, `SELECT cashbacktotal FROM usuarios WHERE id = $1 FOR UPDATE`, id).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, false, nil
		}
		r.logger.Error().Err(err).Str("user_id", id.String()).Msg("failed to lock cashback balance")
		return decimal.Zero, false, fmt.Errorf("failed to lock cashback balance: %w", err)
	}

	return balance, true, nil
}

func (r *userRepository) SetCashback(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount decimal.Decimal) error {
	_, err := tx.Exec(ctx,
		`UPDATE usuarios SET cashbacktotal = $2, updated_at = NOW() WHERE id = $1`,
		id, amount,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", id.String()).Msg("failed to set cashback balance")
		return fmt.Errorf("failed to set cashback balance: %w", err)
	}
	return nil
}

func (r *userRepository) AddCashback(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount decimal.Decimal) error {
	_, err := tx.Exec(ctx,
		`UPDATE usuarios SET cashbacktotal = cashbacktotal + $2, updated_at = NOW() WHERE id = $1`,
		id, amount,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", id.String()).Msg("failed to credit cashback")
		return fmt.Errorf("failed to credit cashback: %w", err)
	}

	r.logger.Debug().
		Str("user_id", id.String()).
		Str("amount", amount.String()).
		Msg("cashback credited")

	return nil
}
