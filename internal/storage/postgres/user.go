package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/greenbite/internal/domain/auth"
	"github.com/xenking/greenbite/internal/domain/loyalty"
	"github.com/xenking/greenbite/internal/domain/redeem"
	"github.com/xenking/greenbite/internal/domain/user"
)

const userColumns = `id, first_name, surname, username, email, district, phone_number, address,
	profile_picture_url, role, normal_points, green_bite_points, latitude, longitude, created_at`

const (
	getUserSQL   = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	listUsersSQL = `SELECT ` + userColumns + ` FROM users ORDER BY id`

	updateProfileSQL = `UPDATE users
		SET first_name = $2, surname = $3, username = $4, email = $5, district = $6,
			phone_number = $7, address = $8, profile_picture_url = $9
		WHERE id = $1
		RETURNING ` + userColumns

	updateLocationSQL = `UPDATE users SET latitude = $2, longitude = $3 WHERE id = $1`
	deleteUserSQL     = `DELETE FROM users WHERE id = $1`

	createAccountSQL = `INSERT INTO users
		(first_name, surname, username, email, district, phone_number, address, profile_picture_url, role, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`

	findCredentialsSQL = `SELECT id, role, password_hash FROM users WHERE lower(email) = lower($1)`

	getBalanceSQL  = `SELECT normal_points, green_bite_points FROM users WHERE id = $1`
	lockBalanceSQL = `SELECT normal_points, green_bite_points FROM users WHERE id = $1 FOR UPDATE`
	saveBalanceSQL = `UPDATE users SET normal_points = $2, green_bite_points = $3 WHERE id = $1`

	debitSQL = `UPDATE users SET green_bite_points = green_bite_points - $2
		WHERE id = $1 AND green_bite_points >= $2
		RETURNING green_bite_points`
	premiumBalanceSQL = `SELECT green_bite_points FROM users WHERE id = $1`
)

var (
	_ user.Repository        = (*UserRepository)(nil)
	_ auth.AccountRepository = (*UserRepository)(nil)
	_ loyalty.Repository     = (*UserRepository)(nil)
	_ redeem.Wallet          = (*UserRepository)(nil)
)

// UserRepository stores user accounts, including both point balances.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a UserRepository that uses the given pool.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// GetByID returns a user by id.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, getUserSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting user %d: %w", id, err)
	}
	u, err := pgx.CollectExactlyOneRow(rows, scanUser)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("getting user %d: %w", id, err)
	}
	return &u, nil
}

// List returns all users ordered by id.
func (r *UserRepository) List(ctx context.Context) ([]user.User, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, listUsersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return pgx.CollectRows(rows, scanUser)
}

// UpdateProfile overwrites the profile columns.
func (r *UserRepository) UpdateProfile(ctx context.Context, id int64, p user.Profile) (*user.User, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, updateProfileSQL, id,
		p.FirstName, p.Surname, p.Username, p.Email, p.District,
		p.PhoneNumber, p.Address, p.ProfilePictureURL,
	)
	if err != nil {
		return nil, fmt.Errorf("updating user %d: %w", id, err)
	}
	u, err := pgx.CollectExactlyOneRow(rows, scanUser)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		if _, ok := pgError(err, codeUniqueViolation); ok {
			return nil, auth.ErrEmailTaken
		}
		return nil, fmt.Errorf("updating user %d: %w", id, err)
	}
	return &u, nil
}

// UpdateLocation stores the user's coordinates.
func (r *UserRepository) UpdateLocation(ctx context.Context, id int64, loc user.Location) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, updateLocationSQL, id, loc.Latitude, loc.Longitude)
	if err != nil {
		return fmt.Errorf("updating location of user %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}

// Delete removes a user. Orders and issuances restrict the delete.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, deleteUserSQL, id)
	if err != nil {
		if _, ok := pgError(err, codeForeignKeyViolation); ok {
			return user.ErrReferenced
		}
		return fmt.Errorf("deleting user %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}

// CreateAccount inserts a user with a password hash. A nil hash creates an
// account that cannot log in.
func (r *UserRepository) CreateAccount(ctx context.Context, u *user.User, passwordHash []byte) error {
	p := u.Profile
	err := conn(ctx, r.pool).QueryRow(ctx, createAccountSQL,
		p.FirstName, p.Surname, p.Username, p.Email, p.District,
		p.PhoneNumber, p.Address, p.ProfilePictureURL, string(u.Role), passwordHash,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		if _, ok := pgError(err, codeUniqueViolation); ok {
			return auth.ErrEmailTaken
		}
		return fmt.Errorf("creating user %q: %w", p.Email, err)
	}
	return nil
}

// FindCredentials returns the login record for an email.
func (r *UserRepository) FindCredentials(ctx context.Context, email string) (*auth.Credentials, error) {
	var (
		c    auth.Credentials
		role string
	)
	err := conn(ctx, r.pool).QueryRow(ctx, findCredentialsSQL, email).Scan(&c.UserID, &role, &c.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("finding credentials: %w", err)
	}
	c.Role = user.Role(role)
	return &c, nil
}

// GetBalance reads both point counters.
func (r *UserRepository) GetBalance(ctx context.Context, userID int64) (loyalty.Balance, error) {
	return r.readBalance(ctx, getBalanceSQL, userID)
}

// LockBalance reads both counters with FOR UPDATE. It must run inside a
// transaction for the lock to outlive the call.
func (r *UserRepository) LockBalance(ctx context.Context, userID int64) (loyalty.Balance, error) {
	return r.readBalance(ctx, lockBalanceSQL, userID)
}

func (r *UserRepository) readBalance(ctx context.Context, sql string, userID int64) (loyalty.Balance, error) {
	b := loyalty.Balance{UserID: userID}
	err := conn(ctx, r.pool).QueryRow(ctx, sql, userID).Scan(&b.NormalPoints, &b.GreenBitePoints)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return loyalty.Balance{}, loyalty.ErrUserNotFound
		}
		return loyalty.Balance{}, fmt.Errorf("reading balance of user %d: %w", userID, err)
	}
	return b, nil
}

// SaveBalance writes both point counters.
func (r *UserRepository) SaveBalance(ctx context.Context, b loyalty.Balance) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, saveBalanceSQL, b.UserID, b.NormalPoints, b.GreenBitePoints)
	if err != nil {
		return fmt.Errorf("saving balance of user %d: %w", b.UserID, err)
	}
	if tag.RowsAffected() == 0 {
		return loyalty.ErrUserNotFound
	}
	return nil
}

// Debit subtracts amount from the greenBite balance only if it covers it.
func (r *UserRepository) Debit(ctx context.Context, userID int64, amount int) (int, error) {
	q := conn(ctx, r.pool)

	var left int
	err := q.QueryRow(ctx, debitSQL, userID, amount).Scan(&left)
	if err == nil {
		return left, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("debiting user %d: %w", userID, err)
	}

	var have int
	if err := q.QueryRow(ctx, premiumBalanceSQL, userID).Scan(&have); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, redeem.ErrUserNotFound
		}
		return 0, fmt.Errorf("reading balance of user %d: %w", userID, err)
	}
	return 0, &redeem.InsufficientBalanceError{Balance: have, Cost: amount}
}

func scanUser(row pgx.CollectableRow) (user.User, error) {
	var (
		u        user.User
		role     string
		lat, lon *float64
	)
	err := row.Scan(
		&u.ID, &u.Profile.FirstName, &u.Profile.Surname, &u.Profile.Username, &u.Profile.Email,
		&u.Profile.District, &u.Profile.PhoneNumber, &u.Profile.Address, &u.Profile.ProfilePictureURL,
		&role, &u.NormalPoints, &u.GreenBitePoints, &lat, &lon, &u.CreatedAt,
	)
	if err != nil {
		return user.User{}, err
	}
	u.Role = user.Role(role)
	if la, lo, ok := optionalPoint(lat, lon); ok {
		u.Location = &user.Location{Latitude: la, Longitude: lo}
	}
	return u, nil
}
