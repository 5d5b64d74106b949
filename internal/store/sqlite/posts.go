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

const postColumns = `p.id, p.title, p.description, p.author_id, p.created_at, p.updated_at`

func (s *Store) CreatePost(ctx context.Context, post *model.Post) error {
	now := time.Now()
	post.ID = uuid.NewString()
	post.CreatedAt = fromNanos(toNanos(now))
	post.UpdatedAt = post.CreatedAt
	_, err := s.db.ExecContext(ctx, `
INSERT INTO posts (id, title, description, author_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
`, post.ID, post.Title, nullIfEmpty(post.Description), post.AuthorID, toNanos(post.CreatedAt), toNanos(post.UpdatedAt))
	return err
}

func (s *Store) GetPost(ctx context.Context, id string) (model.Post, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT `+postColumns+`
FROM posts p
WHERE p.id = ?
LIMIT 1
`, id)
	post, err := scanPost(row)
	if err != nil {
		return model.Post{}, err
	}
	likes, err := s.postLikeIDs(ctx, []string{post.ID})
	if err != nil {
		return model.Post{}, err
	}
	post.LikeIDs = likes[post.ID]
	return post, nil
}

func (s *Store) UpdatePost(ctx context.Context, id string, patch store.PostPatch) (model.Post, error) {
	sets := []string{"updated_at = ?"}
	args := []any{toNanos(time.Now())}
	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, nullIfEmpty(*patch.Description))
	}
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, `UPDATE posts SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return model.Post{}, err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return model.Post{}, store.ErrNotFound
	}
	return s.GetPost(ctx, id)
}

func (s *Store) DeletePost(ctx context.Context, id string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) ListPosts(ctx context.Context, args pagination.Args, filter *store.PostFilter, sort *store.PostSort) (pagination.Page[model.Post], error) {
	page := pagination.Page[model.Post]{Nodes: []model.Post{}}

	where := []string{"1=1"}
	var params []any
	if filter != nil {
		if filter.Title != nil {
			where = append(where, "p.title LIKE ?")
			params = append(params, pagination.ScatterPattern(*filter.Title))
		}
		if filter.AuthorID != nil {
			where = append(where, "p.author_id = ?")
			params = append(params, *filter.AuthorID)
		}
		if filter.AuthorUsername != nil {
			where = append(where, "a.username LIKE ?")
			params = append(params, pagination.ScatterPattern(*filter.AuthorUsername))
		}
	}
	whereSQL := strings.Join(where, " AND ")

	var orders []string
	if sort != nil {
		if sort.CreatedAt != nil {
			orders = append(orders, "p.created_at "+sort.CreatedAt.SQL())
		}
		if sort.Title != nil {
			orders = append(orders, "p.title "+sort.Title.SQL())
		}
	}
	orders = append(orders, "p.rowid ASC")

	query := `
SELECT ` + postColumns + `
FROM posts p
LEFT JOIN users a ON a.id = p.author_id
WHERE ` + whereSQL + `
ORDER BY ` + strings.Join(orders, ", ") + limitClause(args.Skip, args.Take)

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return page, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return page, err
		}
		page.Nodes = append(page.Nodes, post)
		ids = append(ids, post.ID)
	}
	if err := rows.Err(); err != nil {
		return page, err
	}

	likes, err := s.postLikeIDs(ctx, ids)
	if err != nil {
		return page, err
	}
	for i := range page.Nodes {
		page.Nodes[i].LikeIDs = likes[page.Nodes[i].ID]
	}

	row := s.db.QueryRowContext(ctx, `
SELECT COUNT(*)
FROM posts p
LEFT JOIN users a ON a.id = p.author_id
WHERE `+whereSQL, params...)
	if err := row.Scan(&page.TotalCount); err != nil {
		return page, err
	}
	return page, nil
}

func (s *Store) AddPostLike(ctx context.Context, postID, userID string) error {
	_, err := s.db.ExecContext(ctx, `
INSERT OR IGNORE INTO post_likes (post_id, user_id, created_at)
VALUES (?, ?, ?)
`, postID, userID, toNanos(time.Now()))
	return err
}

func (s *Store) RemovePostLike(ctx context.Context, postID, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM post_likes WHERE post_id = ? AND user_id = ?`, postID, userID)
	return err
}

// postLikeIDs loads liker ids for a batch of posts in one query, keyed by
// post id. Insertion order of the likes is preserved.
func (s *Store) postLikeIDs(ctx context.Context, postIDs []string) (map[string][]string, error) {
	likes := make(map[string][]string, len(postIDs))
	if len(postIDs) == 0 {
		return likes, nil
	}
	params := make([]any, len(postIDs))
	for i, id := range postIDs {
		params[i] = id
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT post_id, user_id
FROM post_likes
WHERE post_id IN (`+placeholders(len(postIDs))+`)
ORDER BY created_at ASC, rowid ASC
`, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var postID, userID string
		if err := rows.Scan(&postID, &userID); err != nil {
			return nil, err
		}
		likes[postID] = append(likes[postID], userID)
	}
	return likes, rows.Err()
}

func scanPost(scanner interface{ Scan(dest ...any) error }) (model.Post, error) {
	var p model.Post
	var description sql.NullString
	var created, updated int64
	if err := scanner.Scan(&p.ID, &p.Title, &description, &p.AuthorID, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Post{}, store.ErrNotFound
		}
		return model.Post{}, err
	}
	if description.Valid {
		p.Description = description.String
	}
	p.CreatedAt = fromNanos(created)
	p.UpdatedAt = fromNanos(updated)
	return p, nil
}
