// Package record は血圧レコード管理のドメインロジックを提供する。
package record

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/bprecord/internal/model"
	"github.com/hitoshi/bprecord/internal/repository"
)

// OwnershipVerifier は成員の所有権チェックのインターフェース。
// member.Serviceの部分集合として定義する。
type OwnershipVerifier interface {
	VerifyOwnership(ctx context.Context, userID, memberID string) (*model.UserMember, error)
}

// ServiceConfig はレコードサービスの設定。
type ServiceConfig struct {
	RecordMonth int // 一覧の遡及ウィンドウ（月）
}

// Service は血圧レコード管理のサービス層。
// すべての操作はmember_idを所有権ゲートで検証してから実行する。
// record_id単体では認可の根拠にならない。
type Service struct {
	recordRepo repository.RecordRepository
	verifier   OwnershipVerifier
	config     ServiceConfig
	now        func() time.Time // テスト用に差し替え可能
}

// NewService はServiceを生成する。
func NewService(recordRepo repository.RecordRepository, verifier OwnershipVerifier, config ServiceConfig) *Service {
	return &Service{
		recordRepo: recordRepo,
		verifier:   verifier,
		config:     config,
		now:        time.Now,
	}
}

// List は成員のレコード一覧を返す。
// record_atが現在からRecordMonthヶ月前以降のものに限定し、
// record_at降順・updated_at降順で並べる。
func (s *Service) List(ctx context.Context, userID, memberID string) ([]*model.Record, error) {
	link, err := s.verifier.VerifyOwnership(ctx, userID, memberID)
	if err != nil {
		return nil, err
	}

	since := s.now().AddDate(0, -s.config.RecordMonth, 0)
	records, err := s.recordRepo.ListByMemberSince(ctx, link.MemberID, since)
	if err != nil {
		return nil, fmt.Errorf("レコード一覧の取得に失敗しました: %w", err)
	}
	return records, nil
}

// Get は所有権を確認したうえでレコードの詳細を返す。
func (s *Service) Get(ctx context.Context, userID, memberID, recordID string) (*model.Record, error) {
	if _, err := s.verifier.VerifyOwnership(ctx, userID, memberID); err != nil {
		return nil, err
	}

	record, err := s.recordRepo.FindByID(ctx, recordID)
	if err != nil {
		return nil, fmt.Errorf("レコードの取得に失敗しました: %w", err)
	}
	if record == nil {
		return nil, model.NewNotFoundError()
	}
	return record, nil
}

// Create は所有権を確認したうえでレコードを作成する。
// 親成員のupdated_atのタッチはリポジトリ側の同一トランザクションで行われる。
func (s *Service) Create(ctx context.Context, userID, memberID string, input model.NewRecordInput) (*model.Record, error) {
	link, err := s.verifier.VerifyOwnership(ctx, userID, memberID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	record := &model.Record{
		ID:        uuid.New().String(),
		MemberID:  link.MemberID,
		Systolic:  input.Systolic,
		Diastolic: input.Diastolic,
		Pulse:     input.Pulse,
		RecordAt:  input.RecordAt,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.recordRepo.CreateWithTouch(ctx, record); err != nil {
		return nil, fmt.Errorf("レコードの作成に失敗しました: %w", err)
	}

	return record, nil
}

// Update は所有権を確認したうえでレコードを更新する。
// member_idは検証済みの成員に付け替えられるため、呼び出しユーザーが
// 所有する別成員へのレコード移動を兼ねる。
// なお、record_idが検証済み成員に属するかの再検証は行わない
// （参照実装から引き継いだ既知のギャップ）。
func (s *Service) Update(ctx context.Context, userID, memberID, recordID string, input model.NewRecordInput) (*model.Record, error) {
	link, err := s.verifier.VerifyOwnership(ctx, userID, memberID)
	if err != nil {
		return nil, err
	}

	record, err := s.recordRepo.UpdateWithTouch(ctx, &model.Record{
		ID:        recordID,
		MemberID:  link.MemberID,
		Systolic:  input.Systolic,
		Diastolic: input.Diastolic,
		Pulse:     input.Pulse,
		RecordAt:  input.RecordAt,
	})
	if err != nil {
		return nil, fmt.Errorf("レコードの更新に失敗しました: %w", err)
	}
	if record == nil {
		return nil, model.NewNotFoundError()
	}
	return record, nil
}

// Delete は所有権を確認したうえでレコードを削除する。
// 存在しないIDの削除は影響0行としてそのまま成功する。
func (s *Service) Delete(ctx context.Context, userID, memberID, recordID string) error {
	if _, err := s.verifier.VerifyOwnership(ctx, userID, memberID); err != nil {
		return err
	}

	if _, err := s.recordRepo.DeleteWithTouch(ctx, recordID); err != nil {
		return fmt.Errorf("レコードの削除に失敗しました: %w", err)
	}
	return nil
}
