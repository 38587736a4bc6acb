// Package member は成員管理と所有権チェックのドメインロジックを提供する。
package member

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/bprecord/internal/model"
	"github.com/hitoshi/bprecord/internal/repository"
)

// ServiceConfig は成員サービスの設定。
type ServiceConfig struct {
	MemberNum int // 1ユーザーが管理できる成員数の上限
}

// Service は成員管理のサービス層。
// すべての成員・レコード操作の前段となる所有権ゲートもここで提供する。
type Service struct {
	memberRepo repository.MemberRepository
	config     ServiceConfig
}

// NewService はServiceを生成する。
func NewService(memberRepo repository.MemberRepository, config ServiceConfig) *Service {
	return &Service{
		memberRepo: memberRepo,
		config:     config,
	}
}

// VerifyOwnership は(user_id, member_id)のリンク行の存在を確認する。
// 行の不在と取得エラーはいずれもMEMBER_NOT_OWNEDに畳み込み、
// 成員IDが未知なのか他ユーザーの所有なのかを呼び出し側に漏らさない。
func (s *Service) VerifyOwnership(ctx context.Context, userID, memberID string) (*model.UserMember, error) {
	link, err := s.memberRepo.FindLink(ctx, userID, memberID)
	if err != nil {
		slog.Error("failed to find user_member link",
			slog.String("user_id", userID),
			slog.String("member_id", memberID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewMemberNotOwnedError()
	}
	if link == nil {
		return nil, model.NewMemberNotOwnedError()
	}
	return link, nil
}

// Create は成員を作成し、呼び出しユーザーとのリンク行を同時に作成する。
// 上限チェックと両INSERTはリポジトリ側の単一トランザクションで行われる。
func (s *Service) Create(ctx context.Context, userID, name string, memo *string) (*model.Member, error) {
	now := time.Now()
	member := &model.Member{
		ID:        uuid.New().String(),
		Name:      name,
		Memo:      memo,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.memberRepo.CreateWithLink(ctx, member, userID, s.config.MemberNum); err != nil {
		return nil, err
	}

	slog.Info("member created",
		slog.String("user_id", userID),
		slog.String("member_id", member.ID),
	)

	return member, nil
}

// Get は所有権を確認したうえで成員の詳細を返す。
func (s *Service) Get(ctx context.Context, userID, memberID string) (*model.Member, error) {
	link, err := s.VerifyOwnership(ctx, userID, memberID)
	if err != nil {
		return nil, err
	}

	member, err := s.memberRepo.FindByID(ctx, link.MemberID)
	if err != nil {
		return nil, fmt.Errorf("成員の取得に失敗しました: %w", err)
	}
	if member == nil {
		return nil, model.NewNotFoundError()
	}
	return member, nil
}

// Update は所有権を確認したうえで成員の名前・メモを更新する。
func (s *Service) Update(ctx context.Context, userID, memberID, name string, memo *string) (*model.Member, error) {
	link, err := s.VerifyOwnership(ctx, userID, memberID)
	if err != nil {
		return nil, err
	}

	member, err := s.memberRepo.Update(ctx, link.MemberID, name, memo)
	if err != nil {
		return nil, fmt.Errorf("成員の更新に失敗しました: %w", err)
	}
	if member == nil {
		return nil, model.NewNotFoundError()
	}
	return member, nil
}

// Delete は所有権を確認したうえで成員を削除する。
// 所属レコードとリンク行も同一トランザクションで削除される。
func (s *Service) Delete(ctx context.Context, userID, memberID string) error {
	link, err := s.VerifyOwnership(ctx, userID, memberID)
	if err != nil {
		return err
	}

	if err := s.memberRepo.DeleteCascade(ctx, link.UserID, link.MemberID); err != nil {
		return fmt.Errorf("成員の削除に失敗しました: %w", err)
	}

	slog.Info("member deleted",
		slog.String("user_id", userID),
		slog.String("member_id", memberID),
	)

	return nil
}

// List はユーザーの管理成員一覧を活動の新しい順に返す。
func (s *Service) List(ctx context.Context, userID string) ([]*model.Member, error) {
	members, err := s.memberRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("成員一覧の取得に失敗しました: %w", err)
	}
	return members, nil
}
