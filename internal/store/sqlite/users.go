package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/feedline-io/feedline/internal/model"
	"github.com/feedline-io/feedline/internal/pagination"
	"github.com/feedline-io/feedline/internal/store"

	"github.com/google/uuid"
)

const userColumns = `u.id, u.email, u.username, u.password_hash, u.first_name, u.last_name, u.bio, u.created_at, u.updated_at`

func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.ID = uuid.NewString()
	user.CreatedAt = fromNanos(toNanos(now))
	user.UpdatedAt = user.CreatedAt
	_, err := s.db.ExecContext(ctx, `
INSERT INTO users (id, email, username, password_hash, first_name, last_name, bio, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`, user.ID, user.Email, user.Username, user.PasswordHash, nullIfEmpty(user.FirstName), nullIfEmpty(user.LastName), nullIfEmpty(user.Bio), toNanos(user.CreatedAt), toNanos(user.UpdatedAt))
	if err != nil {
		return userUniqueError(err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (model.User, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT `+userColumns+`
FROM users u
WHERE u.id = ?
LIMIT 1
`, id)
	return scanUser(row)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT `+userColumns+`
FROM users u
WHERE u.email = ?
LIMIT 1
`, email)
	return scanUser(row)
}

func (s *Store) UpdateUser(ctx context.Context, id string, patch store.UserPatch) (model.User, error) {
	sets := []string{"updated_at = ?"}
	args := []any{toNanos(time.Now())}
	if patch.Email != nil {
		sets = append(sets, "email = ?")
		args = append(args, *patch.Email)
	}
	if patch.Username != nil {
		sets = append(sets, "username = ?")
		args = append(args, *patch.Username)
	}
	if patch.PasswordHash != nil {
		sets = append(sets, "password_hash = ?")
		args = append(args, *patch.PasswordHash)
	}
	if patch.FirstName != nil {
		sets = append(sets, "first_name = ?")
		args = append(args, nullIfEmpty(*patch.FirstName))
	}
	if patch.LastName != nil {
		sets = append(sets, "last_name = ?")
		args = append(args, nullIfEmpty(*patch.LastName))
	}
	if patch.Bio != nil {
		sets = append(sets, "bio = ?")
		args = append(args, nullIfEmpty(*patch.Bio))
	}
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, `UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return model.User{}, userUniqueError(err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return model.User{}, store.ErrNotFound
	}
	return s.GetUser(ctx, id)
}

func (s *Store) DeleteUser(ctx context.Context, id string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) ListUsers(ctx context.Context, args pagination.Args, filter *store.UserFilter, sort *store.UserSort) (pagination.Page[model.User], error) {
	page := pagination.Page[model.User]{Nodes: []model.User{}}

	where := []string{"1=1"}
	var params []any
	if filter != nil {
		if filter.Username != nil {
			where = append(where, "u.username LIKE ?")
			params = append(params, pagination.ScatterPattern(*filter.Username))
		}
		if filter.FirstName != nil {
			where = append(where, "u.first_name LIKE ?")
			params = append(params, pagination.ScatterPattern(*filter.FirstName))
		}
		if filter.LastName != nil {
			where = append(where, "u.last_name LIKE ?")
			params = append(params, pagination.ScatterPattern(*filter.LastName))
		}
	}
	whereSQL := strings.Join(where, " AND ")

	var orders []string
	if sort != nil {
		if sort.CreatedAt != nil {
			orders = append(orders, "u.created_at "+sort.CreatedAt.SQL())
		}
		if sort.Username != nil {
			orders = append(orders, "u.username "+sort.Username.SQL())
		}
		if sort.FirstName != nil {
			orders = append(orders, "u.first_name "+sort.FirstName.SQL())
		}
		if sort.LastName != nil {
			orders = append(orders, "u.last_name "+sort.LastName.SQL())
		}
	}
	orders = append(orders, "u.rowid ASC")

	query := `
SELECT ` + userColumns + `
FROM users u
WHERE ` + whereSQL + `
ORDER BY ` + strings.Join(orders, ", ") + limitClause(args.Skip, args.Take)

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return page, err
	}
	defer rows.Close()
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return page, err
		}
		page.Nodes = append(page.Nodes, u)
	}
	if err := rows.Err(); err != nil {
		return page, err
	}

	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users u WHERE `+whereSQL, params...)
	if err := row.Scan(&page.TotalCount); err != nil {
		return page, err
	}
	return page, nil
}

func scanUser(scanner interface{ Scan(dest ...any) error }) (model.User, error) {
	var u model.User
	var firstName, lastName, bio sql.NullString
	var created, updated int64
	if err := scanner.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &firstName, &lastName, &bio, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, store.ErrNotFound
		}
		return model.User{}, err
	}
	if firstName.Valid {
		u.FirstName = firstName.String
	}
	if lastName.Valid {
		u.LastName = lastName.String
	}
	if bio.Valid {
		u.Bio = bio.String
	}
	u.CreatedAt = fromNanos(created)
	u.UpdatedAt = fromNanos(updated)
	return u, nil
}

func userUniqueError(err error) error {
	switch {
	case isUniqueViolation(err, "users.email"):
		return store.ErrDuplicateEmail
	case isUniqueViolation(err, "users.username"):
		return store.ErrDuplicateUsername
	default:
		return err
	}
}
