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

const commentColumns = `c.id, c.text, c.post_id, c.author_id, c.created_at, c.updated_at`

func (s *Store) CreateComment(ctx context.Context, comment *model.Comment) error {
	now := time.Now()
	comment.ID = uuid.NewString()
	comment.CreatedAt = fromNanos(toNanos(now))
	comment.UpdatedAt = comment.CreatedAt
	_, err := s.db.ExecContext(ctx, `
INSERT INTO comments (id, text, post_id, author_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
`, comment.ID, comment.Text, comment.PostID, comment.AuthorID, toNanos(comment.CreatedAt), toNanos(comment.UpdatedAt))
	return err
}

func (s *Store) GetComment(ctx context.Context, id string) (model.Comment, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT `+commentColumns+`
FROM comments c
WHERE c.id = ?
LIMIT 1
`, id)
	comment, err := scanComment(row)
	if err != nil {
		return model.Comment{}, err
	}
	likes, err := s.commentLikeIDs(ctx, []string{comment.ID})
	if err != nil {
		return model.Comment{}, err
	}
	comment.LikeIDs = likes[comment.ID]
	return comment, nil
}

func (s *Store) UpdateComment(ctx context.Context, id string, patch store.CommentPatch) (model.Comment, error) {
	sets := []string{"updated_at = ?"}
	args := []any{toNanos(time.Now())}
	if patch.Text != nil {
		sets = append(sets, "text = ?")
		args = append(args, *patch.Text)
	}
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, `UPDATE comments SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return model.Comment{}, err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return model.Comment{}, store.ErrNotFound
	}
	return s.GetComment(ctx, id)
}

func (s *Store) DeleteComment(ctx context.Context, id string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) ListComments(ctx context.Context, args pagination.Args, filter *store.CommentFilter, sort *store.CommentSort) (pagination.Page[model.Comment], error) {
	page := pagination.Page[model.Comment]{Nodes: []model.Comment{}}

	where := []string{"1=1"}
	var params []any
	if filter != nil {
		if filter.Text != nil {
			where = append(where, "c.text LIKE ?")
			params = append(params, pagination.ScatterPattern(*filter.Text))
		}
		if filter.AuthorID != nil {
			where = append(where, "c.author_id = ?")
			params = append(params, *filter.AuthorID)
		}
		if filter.PostID != nil {
			where = append(where, "c.post_id = ?")
			params = append(params, *filter.PostID)
		}
	}
	whereSQL := strings.Join(where, " AND ")

	var orders []string
	if sort != nil && sort.CreatedAt != nil {
		orders = append(orders, "c.created_at "+sort.CreatedAt.SQL())
	}
	orders = append(orders, "c.rowid ASC")

	query := `
SELECT ` + commentColumns + `
FROM comments c
WHERE ` + whereSQL + `
ORDER BY ` + strings.Join(orders, ", ") + limitClause(args.Skip, args.Take)

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return page, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return page, err
		}
		page.Nodes = append(page.Nodes, comment)
		ids = append(ids, comment.ID)
	}
	if err := rows.Err(); err != nil {
		return page, err
	}

	likes, err := s.commentLikeIDs(ctx, ids)
	if err != nil {
		return page, err
	}
	for i := range page.Nodes {
		page.Nodes[i].LikeIDs = likes[page.Nodes[i].ID]
	}

	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM comments c WHERE `+whereSQL, params...)
	if err := row.Scan(&page.TotalCount); err != nil {
		return page, err
	}
	return page, nil
}

func (s *Store) AddCommentLike(ctx context.Context, commentID, userID string) error {
	_, err := s.db.ExecContext(ctx, `
INSERT OR IGNORE INTO comment_likes (comment_id, user_id, created_at)
VALUES (?, ?, ?)
`, commentID, userID, toNanos(time.Now()))
	return err
}

func (s *Store) RemoveCommentLike(ctx context.Context, commentID, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM comment_likes WHERE comment_id = ? AND user_id = ?`, commentID, userID)
	return err
}

func (s *Store) commentLikeIDs(ctx context.Context, commentIDs []string) (map[string][]string, error) {
	likes := make(map[string][]string, len(commentIDs))
	if len(commentIDs) == 0 {
		return likes, nil
	}
	params := make([]any, len(commentIDs))
	for i, id := range commentIDs {
		params[i] = id
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT comment_id, user_id
FROM comment_likes
WHERE comment_id IN (`+placeholders(len(commentIDs))+`)
ORDER BY created_at ASC, rowid ASC
`, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var commentID, userID string
		if err := rows.Scan(&commentID, &userID); err != nil {
			return nil, err
		}
		likes[commentID] = append(likes[commentID], userID)
	}
	return likes, rows.Err()
}

func scanComment(scanner interface{ Scan(dest ...any) error }) (model.Comment, error) {
	var c model.Comment
	var created, updated int64
	if err := scanner.Scan(&c.ID, &c.Text, &c.PostID, &c.AuthorID, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Comment{}, store.ErrNotFound
		}
		return model.Comment{}, err
	}
	c.CreatedAt = fromNanos(created)
	c.UpdatedAt = fromNanos(updated)
	return c, nil
}
