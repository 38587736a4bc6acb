package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hitoshi/bprecord/internal/middleware"
	"github.com/hitoshi/bprecord/internal/model"
)

// MemberServiceInterface は成員ハンドラーが必要とするサービスインターフェース。
type MemberServiceInterface interface {
	// Create は成員を作成し、呼び出しユーザーとのリンクを同時に作成する。
	Create(ctx context.Context, userID, name string, memo *string) (*model.Member, error)
	// Get は所有権を確認したうえで成員の詳細を返す。
	Get(ctx context.Context, userID, memberID string) (*model.Member, error)
	// Update は所有権を確認したうえで成員の名前・メモを更新する。
	Update(ctx context.Context, userID, memberID, name string, memo *string) (*model.Member, error)
	// Delete は所有権を確認したうえで成員と所属レコードを削除する。
	Delete(ctx context.Context, userID, memberID string) error
	// List はユーザーの管理成員一覧を活動の新しい順に返す。
	List(ctx context.Context, userID string) ([]*model.Member, error)
}

// MemberHandler は成員管理のHTTPハンドラー。
type MemberHandler struct {
	service MemberServiceInterface
}

// NewMemberHandler はMemberHandlerを生成する。
func NewMemberHandler(service MemberServiceInterface) *MemberHandler {
	return &MemberHandler{
		service: service,
	}
}

// memberRequest は成員作成・更新リクエストのボディ。
type memberRequest struct {
	Name string  `json:"name"`
	Memo *string `json:"memo,omitempty"`
}

// memberResponse は成員情報のAPIレスポンス。
type memberResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Memo      *string         `json:"memo"`
	CreatedAt model.Timestamp `json:"created_at"`
	UpdatedAt model.Timestamp `json:"updated_at"`
}

// toMemberResponse はドメインモデルをAPIレスポンスに変換する。
func toMemberResponse(m *model.Member) memberResponse {
	return memberResponse{
		ID:        m.ID,
		Name:      m.Name,
		Memo:      m.Memo,
		CreatedAt: model.Timestamp(m.CreatedAt),
		UpdatedAt: model.Timestamp(m.UpdatedAt),
	}
}

// List はユーザーの管理成員一覧を取得する。
// GET /api/members
func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewMissingCredentialsError())
		return
	}

	members, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]memberResponse, len(members))
	for i, m := range members {
		resp[i] = toMemberResponse(m)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// Create は成員を作成する。
// POST /api/members
func (h *MemberHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewMissingCredentialsError())
		return
	}

	var req memberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}
	if req.Name == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("nameは必須です"))
		return
	}

	member, err := h.service.Create(r.Context(), userID, req.Name, req.Memo)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toMemberResponse(member))
}

// Get は成員の詳細を取得する。
// GET /api/members/{memberID}
func (h *MemberHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, memberID, ok := memberRequestParams(w, r)
	if !ok {
		return
	}

	member, err := h.service.Get(r.Context(), userID, memberID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toMemberResponse(member))
}

// Update は成員の名前・メモを更新する。
// PUT /api/members/{memberID}
func (h *MemberHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, memberID, ok := memberRequestParams(w, r)
	if !ok {
		return
	}

	var req memberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}
	if req.Name == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("nameは必須です"))
		return
	}

	member, err := h.service.Update(r.Context(), userID, memberID, req.Name, req.Memo)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toMemberResponse(member))
}

// Delete は成員を削除する。所属レコードとリンク行も同時に削除される。
// DELETE /api/members/{memberID}
func (h *MemberHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, memberID, ok := memberRequestParams(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, memberID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// memberRequestParams はコンテキストのユーザーIDとURLのmemberIDを取り出す。
// 検証に失敗した場合はエラーレスポンスを書き込みfalseを返す。
func memberRequestParams(w http.ResponseWriter, r *http.Request) (userID, memberID string, ok bool) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewMissingCredentialsError())
		return "", "", false
	}

	memberID = chi.URLParam(r, "memberID")
	if _, err := uuid.Parse(memberID); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("memberIDが不正です"))
		return "", "", false
	}

	return userID, memberID, true
}

// apiErrorResponse はAPIエラーレスポンスの統一フォーマット。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層のエラーをHTTPレスポンスに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     model.ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIエラーコードをHTTPステータスコードに対応付ける。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeMissingCredentials, model.ErrCodeWrongCredentials,
		model.ErrCodeInvalidToken, model.ErrCodeTokenExpired:
		return http.StatusUnauthorized
	case model.ErrCodeMemberNotOwned, model.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case model.ErrCodeMemberLimit:
		return http.StatusConflict
	case model.ErrCodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
