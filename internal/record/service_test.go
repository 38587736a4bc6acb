package record

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/bprecord/internal/model"
)

// --- モック定義 ---

// mockRecordRepo はrepository.RecordRepositoryのモック実装。
type mockRecordRepo struct {
	findByIDFn          func(ctx context.Context, id string) (*model.Record, error)
	createWithTouchFn   func(ctx context.Context, record *model.Record) error
	updateWithTouchFn   func(ctx context.Context, record *model.Record) (*model.Record, error)
	deleteWithTouchFn   func(ctx context.Context, recordID string) (int64, error)
	listByMemberSinceFn func(ctx context.Context, memberID string, since time.Time) ([]*model.Record, error)
}

func (m *mockRecordRepo) FindByID(ctx context.Context, id string) (*model.Record, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockRecordRepo) CreateWithTouch(ctx context.Context, record *model.Record) error {
	if m.createWithTouchFn != nil {
		return m.createWithTouchFn(ctx, record)
	}
	return nil
}

func (m *mockRecordRepo) UpdateWithTouch(ctx context.Context, record *model.Record) (*model.Record, error) {
	if m.updateWithTouchFn != nil {
		return m.updateWithTouchFn(ctx, record)
	}
	return nil, nil
}

func (m *mockRecordRepo) DeleteWithTouch(ctx context.Context, recordID string) (int64, error) {
	if m.deleteWithTouchFn != nil {
		return m.deleteWithTouchFn(ctx, recordID)
	}
	return 0, nil
}

func (m *mockRecordRepo) ListByMemberSince(ctx context.Context, memberID string, since time.Time) ([]*model.Record, error) {
	if m.listByMemberSinceFn != nil {
		return m.listByMemberSinceFn(ctx, memberID, since)
	}
	return nil, nil
}

// mockVerifier はOwnershipVerifierのモック実装。
type mockVerifier struct {
	verifyFn func(ctx context.Context, userID, memberID string) (*model.UserMember, error)
}

func (m *mockVerifier) VerifyOwnership(ctx context.Context, userID, memberID string) (*model.UserMember, error) {
	if m.verifyFn != nil {
		return m.verifyFn(ctx, userID, memberID)
	}
	return &model.UserMember{UserID: userID, MemberID: memberID}, nil
}

// deniedVerifier は常にMEMBER_NOT_OWNEDを返すモック。
var deniedVerifier = &mockVerifier{
	verifyFn: func(ctx context.Context, userID, memberID string) (*model.UserMember, error) {
		return nil, model.NewMemberNotOwnedError()
	},
}

func assertMemberNotOwned(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.Code != model.ErrCodeMemberNotOwned {
		t.Errorf("code = %q, want %q", apiErr.Code, model.ErrCodeMemberNotOwned)
	}
}

// --- List テスト ---

// 一覧の遡及ウィンドウはRecordMonthヶ月前を下限とする
func TestService_List_RollingWindow(t *testing.T) {
	fixedNow := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	var gotSince time.Time
	repo := &mockRecordRepo{
		listByMemberSinceFn: func(ctx context.Context, memberID string, since time.Time) ([]*model.Record, error) {
			gotSince = since
			return []*model.Record{{ID: "record-1", MemberID: memberID}}, nil
		},
	}

	svc := NewService(repo, &mockVerifier{}, ServiceConfig{RecordMonth: 2})
	svc.now = func() time.Time { return fixedNow }

	records, err := svc.List(context.Background(), "user-1", "member-1")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("len = %d, want 1", len(records))
	}

	wantSince := fixedNow.AddDate(0, -2, 0)
	if !gotSince.Equal(wantSince) {
		t.Errorf("since = %v, want %v", gotSince, wantSince)
	}
}

func TestService_List_NotOwned(t *testing.T) {
	listCalled := false
	repo := &mockRecordRepo{
		listByMemberSinceFn: func(ctx context.Context, memberID string, since time.Time) ([]*model.Record, error) {
			listCalled = true
			return nil, nil
		},
	}

	svc := NewService(repo, deniedVerifier, ServiceConfig{RecordMonth: 2})

	_, err := svc.List(context.Background(), "user-1", "member-1")
	assertMemberNotOwned(t, err)
	if listCalled {
		t.Error("expected no list after ownership failure")
	}
}

// --- Get テスト ---

func TestService_Get_Success(t *testing.T) {
	repo := &mockRecordRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Record, error) {
			return &model.Record{ID: id, MemberID: "member-1", Systolic: 120, Diastolic: 80, Pulse: 65}, nil
		},
	}

	svc := NewService(repo, &mockVerifier{}, ServiceConfig{RecordMonth: 2})

	record, err := svc.Get(context.Background(), "user-1", "member-1", "record-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if record.Systolic != 120 {
		t.Errorf("Systolic = %d, want 120", record.Systolic)
	}
}

func TestService_Get_NotFound(t *testing.T) {
	svc := NewService(&mockRecordRepo{}, &mockVerifier{}, ServiceConfig{RecordMonth: 2})

	_, err := svc.Get(context.Background(), "user-1", "member-1", "missing-record")
	if err == nil {
		t.Fatal("expected error for missing record")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.Code != model.ErrCodeNotFound {
		t.Errorf("code = %q, want %q", apiErr.Code, model.ErrCodeNotFound)
	}
}

func TestService_Get_NotOwned(t *testing.T) {
	svc := NewService(&mockRecordRepo{}, deniedVerifier, ServiceConfig{RecordMonth: 2})

	_, err := svc.Get(context.Background(), "user-1", "member-1", "record-1")
	assertMemberNotOwned(t, err)
}

// --- Create テスト ---

func TestService_Create_Success(t *testing.T) {
	fixedNow := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	recordAt := time.Date(2026, 8, 29, 7, 30, 0, 0, time.UTC)

	var created *model.Record
	repo := &mockRecordRepo{
		createWithTouchFn: func(ctx context.Context, record *model.Record) error {
			created = record
			return nil
		},
	}

	svc := NewService(repo, &mockVerifier{}, ServiceConfig{RecordMonth: 2})
	svc.now = func() time.Time { return fixedNow }

	record, err := svc.Create(context.Background(), "user-1", "member-1", model.NewRecordInput{
		Systolic:  135,
		Diastolic: 85,
		Pulse:     72,
		RecordAt:  recordAt,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if record.ID == "" {
		t.Error("expected generated record ID")
	}
	if record.MemberID != "member-1" {
		t.Errorf("MemberID = %q, want %q", record.MemberID, "member-1")
	}
	if record.Systolic != 135 || record.Diastolic != 85 || record.Pulse != 72 {
		t.Errorf("values = (%d, %d, %d), want (135, 85, 72)", record.Systolic, record.Diastolic, record.Pulse)
	}
	if !record.RecordAt.Equal(recordAt) {
		t.Errorf("RecordAt = %v, want %v", record.RecordAt, recordAt)
	}
	if !record.CreatedAt.Equal(fixedNow) || !record.UpdatedAt.Equal(fixedNow) {
		t.Error("expected timestamps set from service clock")
	}
	if created != record {
		t.Error("expected the same record passed to the repository")
	}
}

func TestService_Create_NotOwned(t *testing.T) {
	createCalled := false
	repo := &mockRecordRepo{
		createWithTouchFn: func(ctx context.Context, record *model.Record) error {
			createCalled = true
			return nil
		},
	}

	svc := NewService(repo, deniedVerifier, ServiceConfig{RecordMonth: 2})

	_, err := svc.Create(context.Background(), "user-1", "member-1", model.NewRecordInput{})
	assertMemberNotOwned(t, err)
	if createCalled {
		t.Error("expected no create after ownership failure")
	}
}

// --- Update テスト ---

// 更新はmember_idを検証済み成員に付け替える
func TestService_Update_ReparentsToVerifiedMember(t *testing.T) {
	var updated *model.Record
	repo := &mockRecordRepo{
		updateWithTouchFn: func(ctx context.Context, record *model.Record) (*model.Record, error) {
			updated = record
			return record, nil
		},
	}

	svc := NewService(repo, &mockVerifier{}, ServiceConfig{RecordMonth: 2})

	_, err := svc.Update(context.Background(), "user-1", "member-2", "record-1", model.NewRecordInput{
		Systolic:  125,
		Diastolic: 82,
		Pulse:     70,
		RecordAt:  time.Now(),
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if updated.ID != "record-1" {
		t.Errorf("ID = %q, want %q", updated.ID, "record-1")
	}
	if updated.MemberID != "member-2" {
		t.Errorf("MemberID = %q, want %q", updated.MemberID, "member-2")
	}
}

func TestService_Update_NotFound(t *testing.T) {
	repo := &mockRecordRepo{
		updateWithTouchFn: func(ctx context.Context, record *model.Record) (*model.Record, error) {
			return nil, nil
		},
	}

	svc := NewService(repo, &mockVerifier{}, ServiceConfig{RecordMonth: 2})

	_, err := svc.Update(context.Background(), "user-1", "member-1", "missing-record", model.NewRecordInput{})
	if err == nil {
		t.Fatal("expected error for missing record")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.Code != model.ErrCodeNotFound {
		t.Errorf("code = %q, want %q", apiErr.Code, model.ErrCodeNotFound)
	}
}

func TestService_Update_NotOwned(t *testing.T) {
	svc := NewService(&mockRecordRepo{}, deniedVerifier, ServiceConfig{RecordMonth: 2})

	_, err := svc.Update(context.Background(), "user-1", "member-1", "record-1", model.NewRecordInput{})
	assertMemberNotOwned(t, err)
}

// --- Delete テスト ---

func TestService_Delete_Success(t *testing.T) {
	var gotRecordID string
	repo := &mockRecordRepo{
		deleteWithTouchFn: func(ctx context.Context, recordID string) (int64, error) {
			gotRecordID = recordID
			return 1, nil
		},
	}

	svc := NewService(repo, &mockVerifier{}, ServiceConfig{RecordMonth: 2})

	if err := svc.Delete(context.Background(), "user-1", "member-1", "record-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if gotRecordID != "record-1" {
		t.Errorf("recordID = %q, want %q", gotRecordID, "record-1")
	}
}

// 存在しないIDの削除は影響0行としてそのまま成功する
func TestService_Delete_MissingRecord_Succeeds(t *testing.T) {
	repo := &mockRecordRepo{
		deleteWithTouchFn: func(ctx context.Context, recordID string) (int64, error) {
			return 0, nil
		},
	}

	svc := NewService(repo, &mockVerifier{}, ServiceConfig{RecordMonth: 2})

	if err := svc.Delete(context.Background(), "user-1", "member-1", "missing-record"); err != nil {
		t.Fatalf("Delete should succeed for missing record: %v", err)
	}
}

func TestService_Delete_NotOwned(t *testing.T) {
	deleteCalled := false
	repo := &mockRecordRepo{
		deleteWithTouchFn: func(ctx context.Context, recordID string) (int64, error) {
			deleteCalled = true
			return 1, nil
		},
	}

	svc := NewService(repo, deniedVerifier, ServiceConfig{RecordMonth: 2})

	err := svc.Delete(context.Background(), "user-1", "member-1", "record-1")
	assertMemberNotOwned(t, err)
	if deleteCalled {
		t.Error("expected no delete after ownership failure")
	}
}
