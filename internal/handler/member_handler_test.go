package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/bprecord/internal/middleware"
	"github.com/hitoshi/bprecord/internal/model"
)

// --- モック定義 ---

// mockMemberService はMemberServiceInterfaceのモック実装。
type mockMemberService struct {
	createFn func(ctx context.Context, userID, name string, memo *string) (*model.Member, error)
	getFn    func(ctx context.Context, userID, memberID string) (*model.Member, error)
	updateFn func(ctx context.Context, userID, memberID, name string, memo *string) (*model.Member, error)
	deleteFn func(ctx context.Context, userID, memberID string) error
	listFn   func(ctx context.Context, userID string) ([]*model.Member, error)
}

func (m *mockMemberService) Create(ctx context.Context, userID, name string, memo *string) (*model.Member, error) {
	if m.createFn != nil {
		return m.createFn(ctx, userID, name, memo)
	}
	return nil, nil
}

func (m *mockMemberService) Get(ctx context.Context, userID, memberID string) (*model.Member, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID, memberID)
	}
	return nil, nil
}

func (m *mockMemberService) Update(ctx context.Context, userID, memberID, name string, memo *string) (*model.Member, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, userID, memberID, name, memo)
	}
	return nil, nil
}

func (m *mockMemberService) Delete(ctx context.Context, userID, memberID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, memberID)
	}
	return nil
}

func (m *mockMemberService) List(ctx context.Context, userID string) ([]*model.Member, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID)
	}
	return nil, nil
}

// --- テストヘルパー ---

// withUserID はテスト用にリクエストコンテキストにユーザーIDを注入するヘルパー。
func withUserID(r *http.Request, userID string) *http.Request {
	ctx := middleware.ContextWithUserID(r.Context(), userID)
	return r.WithContext(ctx)
}

// withChiURLParam はテスト用にchiのURLパラメータを注入するヘルパー。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	return r.WithContext(ctx)
}

// parseAPIErrorResponse はレスポンスボディからAPIErrorレスポンスをパースするヘルパー。
func parseAPIErrorResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var result map[string]string
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return result
}

const testMemberID = "7c9e6679-7425-40de-944b-e07fc1f90ae7"
const testRecordID = "550e8400-e29b-41d4-a716-446655440000"

// --- GET /api/members テスト ---

func TestMemberHandler_List_Success(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	memo := "祖母"
	svc := &mockMemberService{
		listFn: func(ctx context.Context, userID string) ([]*model.Member, error) {
			if userID != "user-123" {
				t.Errorf("userID = %q, want %q", userID, "user-123")
			}
			return []*model.Member{
				{ID: "member-1", Name: "はなこ", Memo: &memo, CreatedAt: now, UpdatedAt: now},
			}, nil
		},
	}

	h := NewMemberHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/members", nil)
	req = withUserID(req, "user-123")
	w := httptest.NewRecorder()

	h.List(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var result []map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(result) != 1 {
		t.Fatalf("result length = %d, want 1", len(result))
	}
	if result[0]["id"] != "member-1" {
		t.Errorf("id = %v, want %q", result[0]["id"], "member-1")
	}
	if result[0]["name"] != "はなこ" {
		t.Errorf("name = %v, want %q", result[0]["name"], "はなこ")
	}
	if result[0]["memo"] != "祖母" {
		t.Errorf("memo = %v, want %q", result[0]["memo"], "祖母")
	}
}

func TestMemberHandler_List_NoUserID(t *testing.T) {
	h := NewMemberHandler(&mockMemberService{})

	req := httptest.NewRequest(http.MethodGet, "/api/members", nil)
	w := httptest.NewRecorder()

	h.List(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

// --- POST /api/members テスト ---

func TestMemberHandler_Create_Success(t *testing.T) {
	svc := &mockMemberService{
		createFn: func(ctx context.Context, userID, name string, memo *string) (*model.Member, error) {
			if name != "はなこ" {
				t.Errorf("name = %q, want %q", name, "はなこ")
			}
			if memo == nil || *memo != "祖母" {
				t.Errorf("memo = %v, want %q", memo, "祖母")
			}
			return &model.Member{ID: "member-1", Name: name, Memo: memo}, nil
		},
	}

	h := NewMemberHandler(svc)

	body := bytes.NewBufferString(`{"name":"はなこ","memo":"祖母"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/members", body)
	req = withUserID(req, "user-123")
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestMemberHandler_Create_MissingName(t *testing.T) {
	h := NewMemberHandler(&mockMemberService{})

	body := bytes.NewBufferString(`{"memo":"祖母"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/members", body)
	req = withUserID(req, "user-123")
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	result := parseAPIErrorResponse(t, w)
	if result["code"] != model.ErrCodeInvalidRequest {
		t.Errorf("code = %q, want %q", result["code"], model.ErrCodeInvalidRequest)
	}
}

func TestMemberHandler_Create_InvalidBody(t *testing.T) {
	h := NewMemberHandler(&mockMemberService{})

	body := bytes.NewBufferString(`not json`)
	req := httptest.NewRequest(http.MethodPost, "/api/members", body)
	req = withUserID(req, "user-123")
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

// 人数上限は409を返す
func TestMemberHandler_Create_MemberLimit(t *testing.T) {
	svc := &mockMemberService{
		createFn: func(ctx context.Context, userID, name string, memo *string) (*model.Member, error) {
			return nil, model.NewMemberLimitError(2)
		},
	}

	h := NewMemberHandler(svc)

	body := bytes.NewBufferString(`{"name":"さぶろう"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/members", body)
	req = withUserID(req, "user-123")
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", w.Code, http.StatusConflict)
	}

	result := parseAPIErrorResponse(t, w)
	if result["code"] != model.ErrCodeMemberLimit {
		t.Errorf("code = %q, want %q", result["code"], model.ErrCodeMemberLimit)
	}
}

// --- GET /api/members/{memberID} テスト ---

func TestMemberHandler_Get_Success(t *testing.T) {
	svc := &mockMemberService{
		getFn: func(ctx context.Context, userID, memberID string) (*model.Member, error) {
			if memberID != testMemberID {
				t.Errorf("memberID = %q, want %q", memberID, testMemberID)
			}
			return &model.Member{ID: memberID, Name: "はなこ"}, nil
		},
	}

	h := NewMemberHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/members/"+testMemberID, nil)
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "memberID", testMemberID)
	w := httptest.NewRecorder()

	h.Get(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

// UUIDとして不正なIDは400を返す
func TestMemberHandler_Get_InvalidID(t *testing.T) {
	h := NewMemberHandler(&mockMemberService{})

	req := httptest.NewRequest(http.MethodGet, "/api/members/not-a-uuid", nil)
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "memberID", "not-a-uuid")
	w := httptest.NewRecorder()

	h.Get(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

// 他ユーザーの成員はMEMBER_NOT_OWNEDで400を返す
func TestMemberHandler_Get_NotOwned(t *testing.T) {
	svc := &mockMemberService{
		getFn: func(ctx context.Context, userID, memberID string) (*model.Member, error) {
			return nil, model.NewMemberNotOwnedError()
		},
	}

	h := NewMemberHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/members/"+testMemberID, nil)
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "memberID", testMemberID)
	w := httptest.NewRecorder()

	h.Get(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	result := parseAPIErrorResponse(t, w)
	if result["code"] != model.ErrCodeMemberNotOwned {
		t.Errorf("code = %q, want %q", result["code"], model.ErrCodeMemberNotOwned)
	}
}

// --- PUT /api/members/{memberID} テスト ---

func TestMemberHandler_Update_Success(t *testing.T) {
	svc := &mockMemberService{
		updateFn: func(ctx context.Context, userID, memberID, name string, memo *string) (*model.Member, error) {
			return &model.Member{ID: memberID, Name: name, Memo: memo}, nil
		},
	}

	h := NewMemberHandler(svc)

	body := bytes.NewBufferString(`{"name":"たろう"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/members/"+testMemberID, body)
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "memberID", testMemberID)
	w := httptest.NewRecorder()

	h.Update(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result["name"] != "たろう" {
		t.Errorf("name = %v, want %q", result["name"], "たろう")
	}
	// memoは省略時nullで返る
	if v, ok := result["memo"]; !ok || v != nil {
		t.Errorf("memo = %v, want null", v)
	}
}

// --- DELETE /api/members/{memberID} テスト ---

func TestMemberHandler_Delete_Success(t *testing.T) {
	deleted := false
	svc := &mockMemberService{
		deleteFn: func(ctx context.Context, userID, memberID string) error {
			deleted = true
			return nil
		},
	}

	h := NewMemberHandler(svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/members/"+testMemberID, nil)
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "memberID", testMemberID)
	w := httptest.NewRecorder()

	h.Delete(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if !deleted {
		t.Error("expected delete to be called")
	}
}

func TestMemberHandler_Delete_ServiceError(t *testing.T) {
	svc := &mockMemberService{
		deleteFn: func(ctx context.Context, userID, memberID string) error {
			return errors.New("db down")
		},
	}

	h := NewMemberHandler(svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/members/"+testMemberID, nil)
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "memberID", testMemberID)
	w := httptest.NewRecorder()

	h.Delete(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}

	result := parseAPIErrorResponse(t, w)
	if result["code"] != model.ErrCodeInternal {
		t.Errorf("code = %q, want %q", result["code"], model.ErrCodeInternal)
	}
}
