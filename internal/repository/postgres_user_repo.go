package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/bprecord/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, openid, session_key, created_at, updated_at FROM users WHERE id = $1`,
		id,
	).Scan(&user.ID, &user.OpenID, &user.SessionKey, &user.CreatedAt, &user.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}

	return user, nil
}

// UpsertByOpenID はopenidをキーにユーザーをUPSERTする。
// openidにはUNIQUE制約があるため、同一identityの同時初回ログインでも
// 後続の書き込みは既存行の更新として扱われる。
func (r *PostgresUserRepo) UpsertByOpenID(ctx context.Context, user *model.User) (*model.User, error) {
	result := &model.User{}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (id, openid, session_key, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (openid) DO UPDATE
		 SET session_key = EXCLUDED.session_key, updated_at = NOW()
		 RETURNING id, openid, session_key, created_at, updated_at`,
		user.ID, user.OpenID, user.SessionKey, user.CreatedAt, user.UpdatedAt,
	).Scan(&result.ID, &result.OpenID, &result.SessionKey, &result.CreatedAt, &result.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("ユーザーのUPSERTに失敗しました: %w", err)
	}

	return result, nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
