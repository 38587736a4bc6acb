package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/bprecord/internal/model"
)

// PostgresMemberRepo はPostgreSQLを使用した成員リポジトリ。
type PostgresMemberRepo struct {
	db *sql.DB
}

// NewPostgresMemberRepo はPostgresMemberRepoを生成する。
func NewPostgresMemberRepo(db *sql.DB) *PostgresMemberRepo {
	return &PostgresMemberRepo{db: db}
}

// FindByID は指定IDの成員を取得する。見つからない場合はnilを返す。
func (r *PostgresMemberRepo) FindByID(ctx context.Context, id string) (*model.Member, error) {
	member := &model.Member{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, memo, created_at, updated_at FROM members WHERE id = $1`,
		id,
	).Scan(&member.ID, &member.Name, &member.Memo, &member.CreatedAt, &member.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("成員の取得に失敗しました: %w", err)
	}

	return member, nil
}

// FindLink は(user_id, member_id)のリンク行を取得する。見つからない場合はnilを返す。
func (r *PostgresMemberRepo) FindLink(ctx context.Context, userID, memberID string) (*model.UserMember, error) {
	link := &model.UserMember{}
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, member_id, is_default, created_at, updated_at
		 FROM user_member WHERE user_id = $1 AND member_id = $2`,
		userID, memberID,
	).Scan(&link.UserID, &link.MemberID, &link.IsDefault, &link.CreatedAt, &link.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("リンク行の取得に失敗しました: %w", err)
	}

	return link, nil
}

// CreateWithLink は成員とリンク行を同一トランザクションで作成する。
// トランザクション内で現在のリンク数を数え、maxMembers以上なら
// 書き込みを行わずMEMBER_LIMITエラーで中断する。
// 人数チェックはINSERT時のみで、分離レベルはストアのデフォルトに依存する。
func (r *PostgresMemberRepo) CreateWithLink(ctx context.Context, member *model.Member, userID string, maxMembers int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	// 人数上限のチェック
	var count int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM user_member WHERE user_id = $1`,
		userID,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("リンク数の取得に失敗しました: %w", err)
	}
	if count >= maxMembers {
		return model.NewMemberLimitError(maxMembers)
	}

	// 成員を作成
	_, err = tx.ExecContext(ctx,
		`INSERT INTO members (id, name, memo, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		member.ID, member.Name, member.Memo, member.CreatedAt, member.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("成員の作成に失敗しました: %w", err)
	}

	// リンク行を作成
	_, err = tx.ExecContext(ctx,
		`INSERT INTO user_member (user_id, member_id, is_default, created_at, updated_at)
		 VALUES ($1, $2, FALSE, $3, $4)`,
		userID, member.ID, member.CreatedAt, member.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("リンク行の作成に失敗しました: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}

	return nil
}

// Update は成員の名前・メモを更新し、updated_atをタッチする。
// 更新後の行を返す。見つからない場合はnilを返す。
func (r *PostgresMemberRepo) Update(ctx context.Context, memberID, name string, memo *string) (*model.Member, error) {
	member := &model.Member{}
	err := r.db.QueryRowContext(ctx,
		`UPDATE members SET name = $2, memo = $3, updated_at = NOW()
		 WHERE id = $1
		 RETURNING id, name, memo, created_at, updated_at`,
		memberID, name, memo,
	).Scan(&member.ID, &member.Name, &member.Memo, &member.CreatedAt, &member.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("成員の更新に失敗しました: %w", err)
	}

	return member, nil
}

// DeleteCascade は成員・所属レコード・リンク行を同一トランザクションで削除する。
// 削除順: records → user_member → members。レコードやリンク行の不在は
// 成功として扱い、いずれかの文が失敗した場合は全体をロールバックする。
func (r *PostgresMemberRepo) DeleteCascade(ctx context.Context, userID, memberID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	// 所属レコードを削除（0行でも成功）
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM records WHERE member_id = $1`,
		memberID,
	); err != nil {
		return fmt.Errorf("所属レコードの削除に失敗しました: %w", err)
	}

	// リンク行を削除（不在は許容）
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM user_member WHERE user_id = $1 AND member_id = $2`,
		userID, memberID,
	); err != nil {
		return fmt.Errorf("リンク行の削除に失敗しました: %w", err)
	}

	// 成員を最後に削除
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM members WHERE id = $1`,
		memberID,
	); err != nil {
		return fmt.Errorf("成員の削除に失敗しました: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}

	return nil
}

// ListByUserID はユーザーの管理成員一覧をupdated_at降順で返す。
// updated_atはレコード書き込みのたびにタッチされるため、
// 直近に活動のあった成員が先頭に来る。
func (r *PostgresMemberRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Member, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT m.id, m.name, m.memo, m.created_at, m.updated_at
		 FROM members m
		 JOIN user_member um ON um.member_id = m.id
		 WHERE um.user_id = $1
		 ORDER BY m.updated_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("成員一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var members []*model.Member
	for rows.Next() {
		member := &model.Member{}
		if err := rows.Scan(&member.ID, &member.Name, &member.Memo, &member.CreatedAt, &member.UpdatedAt); err != nil {
			return nil, fmt.Errorf("成員行の読み取りに失敗しました: %w", err)
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("成員一覧の走査に失敗しました: %w", err)
	}
	return members, nil
}

// compile-time interface check
var _ MemberRepository = (*PostgresMemberRepo)(nil)
