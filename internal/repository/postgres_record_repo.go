package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/bprecord/internal/model"
)

// PostgresRecordRepo はPostgreSQLを使用した血圧レコードリポジトリ。
type PostgresRecordRepo struct {
	db *sql.DB
}

// NewPostgresRecordRepo はPostgresRecordRepoを生成する。
func NewPostgresRecordRepo(db *sql.DB) *PostgresRecordRepo {
	return &PostgresRecordRepo{db: db}
}

// FindByID は指定IDのレコードを取得する。見つからない場合はnilを返す。
func (r *PostgresRecordRepo) FindByID(ctx context.Context, id string) (*model.Record, error) {
	record := &model.Record{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, member_id, systolic, diastolic, pulse, record_at, created_at, updated_at
		 FROM records WHERE id = $1`,
		id,
	).Scan(&record.ID, &record.MemberID, &record.Systolic, &record.Diastolic,
		&record.Pulse, &record.RecordAt, &record.CreatedAt, &record.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("レコードの取得に失敗しました: %w", err)
	}

	return record, nil
}

// CreateWithTouch はレコードを作成し、親成員のupdated_atをタッチする。
// INSERTが失敗した場合はタッチせず全体をロールバックする。
func (r *PostgresRecordRepo) CreateWithTouch(ctx context.Context, record *model.Record) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO records (id, member_id, systolic, diastolic, pulse, record_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		record.ID, record.MemberID, record.Systolic, record.Diastolic,
		record.Pulse, record.RecordAt, record.CreatedAt, record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("レコードの作成に失敗しました: %w", err)
	}

	if err := touchMember(ctx, tx, record.MemberID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}

	return nil
}

// UpdateWithTouch はレコードを更新し、更新後の親成員をタッチする。
// member_idの付け替え（別成員への移動）を含む。更新後の行を返す。
// 見つからない場合はnilを返し、タッチは行わない。
func (r *PostgresRecordRepo) UpdateWithTouch(ctx context.Context, record *model.Record) (*model.Record, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	updated := &model.Record{}
	err = tx.QueryRowContext(ctx,
		`UPDATE records
		 SET member_id = $2, systolic = $3, diastolic = $4, pulse = $5, record_at = $6, updated_at = NOW()
		 WHERE id = $1
		 RETURNING id, member_id, systolic, diastolic, pulse, record_at, created_at, updated_at`,
		record.ID, record.MemberID, record.Systolic, record.Diastolic, record.Pulse, record.RecordAt,
	).Scan(&updated.ID, &updated.MemberID, &updated.Systolic, &updated.Diastolic,
		&updated.Pulse, &updated.RecordAt, &updated.CreatedAt, &updated.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("レコードの更新に失敗しました: %w", err)
	}

	if err := touchMember(ctx, tx, updated.MemberID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}

	return updated, nil
}

// DeleteWithTouch はレコードを削除する。削除前にレコードを引き、
// 見つかった場合はその親成員をタッチする。見つからなくても削除文は
// 実行し、影響行数を返す。
func (r *PostgresRecordRepo) DeleteWithTouch(ctx context.Context, recordID string) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	var memberID string
	err = tx.QueryRowContext(ctx,
		`SELECT member_id FROM records WHERE id = $1`,
		recordID,
	).Scan(&memberID)
	if err == nil {
		if err := touchMember(ctx, tx, memberID); err != nil {
			return 0, err
		}
	} else if err != sql.ErrNoRows {
		return 0, fmt.Errorf("レコードの取得に失敗しました: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`DELETE FROM records WHERE id = $1`,
		recordID,
	)
	if err != nil {
		return 0, fmt.Errorf("レコードの削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}

	return rowsAffected, nil
}

// ListByMemberSince は成員のレコードのうちrecord_atがsince以降のものを
// record_at降順・updated_at降順（同時刻のタイブレーク）で返す。
func (r *PostgresRecordRepo) ListByMemberSince(ctx context.Context, memberID string, since time.Time) ([]*model.Record, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT r.id, r.member_id, r.systolic, r.diastolic, r.pulse, r.record_at, r.created_at, r.updated_at
		 FROM records r
		 JOIN members m ON m.id = r.member_id
		 WHERE m.id = $1 AND r.record_at >= $2
		 ORDER BY r.record_at DESC, r.updated_at DESC`,
		memberID, since,
	)
	if err != nil {
		return nil, fmt.Errorf("レコード一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var records []*model.Record
	for rows.Next() {
		record := &model.Record{}
		if err := rows.Scan(&record.ID, &record.MemberID, &record.Systolic, &record.Diastolic,
			&record.Pulse, &record.RecordAt, &record.CreatedAt, &record.UpdatedAt); err != nil {
			return nil, fmt.Errorf("レコード行の読み取りに失敗しました: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("レコード一覧の走査に失敗しました: %w", err)
	}
	return records, nil
}

// touchMember は成員のupdated_atを現在時刻に更新する。
func touchMember(ctx context.Context, tx *sql.Tx, memberID string) error {
	if _, err := tx.ExecContext(ctx,
		`UPDATE members SET updated_at = NOW() WHERE id = $1`,
		memberID,
	); err != nil {
		return fmt.Errorf("成員のタッチに失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ RecordRepository = (*PostgresRecordRepo)(nil)
