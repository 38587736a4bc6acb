package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hitoshi/bprecord/internal/model"
)

// RecordServiceInterface はレコードハンドラーが必要とするサービスインターフェース。
type RecordServiceInterface interface {
	List(ctx context.Context, userID, memberID string) ([]*model.Record, error)
	Get(ctx context.Context, userID, memberID, recordID string) (*model.Record, error)
	Create(ctx context.Context, userID, memberID string, input model.NewRecordInput) (*model.Record, error)
	Update(ctx context.Context, userID, memberID, recordID string, input model.NewRecordInput) (*model.Record, error)
	Delete(ctx context.Context, userID, memberID, recordID string) error
}

// RecordWriteMetrics はレコード書き込み操作のメトリクス収集インターフェース。
type RecordWriteMetrics interface {
	RecordRecordWrite(op string)
}

// RecordHandler は血圧レコード管理のHTTPハンドラー。
type RecordHandler struct {
	service RecordServiceInterface
	metrics RecordWriteMetrics
}

// NewRecordHandler はRecordHandlerを生成する。
func NewRecordHandler(service RecordServiceInterface, metrics RecordWriteMetrics) *RecordHandler {
	return &RecordHandler{
		service: service,
		metrics: metrics,
	}
}

// recordRequest はレコード作成・更新リクエストのボディ。
// record_atはローカル時刻の "2006-01-02 15:04:05" 形式で受け付ける。
type recordRequest struct {
	Systolic  int             `json:"systolic"`
	Diastolic int             `json:"diastolic"`
	Pulse     int             `json:"pulse"`
	RecordAt  model.Timestamp `json:"record_at"`
}

// recordResponse は血圧レコードのAPIレスポンス。
type recordResponse struct {
	ID        string          `json:"id"`
	MemberID  string          `json:"member_id"`
	Systolic  int             `json:"systolic"`
	Diastolic int             `json:"diastolic"`
	Pulse     int             `json:"pulse"`
	RecordAt  model.Timestamp `json:"record_at"`
	CreatedAt model.Timestamp `json:"created_at"`
	UpdatedAt model.Timestamp `json:"updated_at"`
}

// toRecordResponse はドメインモデルをAPIレスポンスに変換する。
func toRecordResponse(rec *model.Record) recordResponse {
	return recordResponse{
		ID:        rec.ID,
		MemberID:  rec.MemberID,
		Systolic:  rec.Systolic,
		Diastolic: rec.Diastolic,
		Pulse:     rec.Pulse,
		RecordAt:  model.Timestamp(rec.RecordAt),
		CreatedAt: model.Timestamp(rec.CreatedAt),
		UpdatedAt: model.Timestamp(rec.UpdatedAt),
	}
}

// List は成員のレコード一覧を取得する。
// GET /api/members/{memberID}/records
func (h *RecordHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, memberID, ok := memberRequestParams(w, r)
	if !ok {
		return
	}

	records, err := h.service.List(r.Context(), userID, memberID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]recordResponse, len(records))
	for i, rec := range records {
		resp[i] = toRecordResponse(rec)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// Get はレコードの詳細を取得する。
// GET /api/members/{memberID}/records/{recordID}
func (h *RecordHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, memberID, recordID, ok := recordRequestParams(w, r)
	if !ok {
		return
	}

	record, err := h.service.Get(r.Context(), userID, memberID, recordID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toRecordResponse(record))
}

// Create はレコードを作成する。
// POST /api/members/{memberID}/records
func (h *RecordHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, memberID, ok := memberRequestParams(w, r)
	if !ok {
		return
	}

	input, ok := decodeRecordInput(w, r)
	if !ok {
		return
	}

	record, err := h.service.Create(r.Context(), userID, memberID, input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordRecordWrite("create")
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toRecordResponse(record))
}

// Update はレコードを更新する。
// PUT /api/members/{memberID}/records/{recordID}
func (h *RecordHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, memberID, recordID, ok := recordRequestParams(w, r)
	if !ok {
		return
	}

	input, ok := decodeRecordInput(w, r)
	if !ok {
		return
	}

	record, err := h.service.Update(r.Context(), userID, memberID, recordID, input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordRecordWrite("update")
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toRecordResponse(record))
}

// Delete はレコードを削除する。
// DELETE /api/members/{memberID}/records/{recordID}
func (h *RecordHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, memberID, recordID, ok := recordRequestParams(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, memberID, recordID); err != nil {
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordRecordWrite("delete")
	}

	w.WriteHeader(http.StatusNoContent)
}

// recordRequestParams はユーザーID・memberIDに加えURLのrecordIDを取り出す。
func recordRequestParams(w http.ResponseWriter, r *http.Request) (userID, memberID, recordID string, ok bool) {
	userID, memberID, ok = memberRequestParams(w, r)
	if !ok {
		return "", "", "", false
	}

	recordID = chi.URLParam(r, "recordID")
	if _, err := uuid.Parse(recordID); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("recordIDが不正です"))
		return "", "", "", false
	}

	return userID, memberID, recordID, true
}

// decodeRecordInput はリクエストボディを解析し、血圧値の範囲を検証する。
func decodeRecordInput(w http.ResponseWriter, r *http.Request) (model.NewRecordInput, bool) {
	var req recordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return model.NewRecordInput{}, false
	}

	if req.Systolic <= 0 || req.Diastolic <= 0 || req.Pulse <= 0 {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("systolic・diastolic・pulseは正の値が必要です"))
		return model.NewRecordInput{}, false
	}
	if req.RecordAt.Time().IsZero() {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("record_atは必須です"))
		return model.NewRecordInput{}, false
	}

	return model.NewRecordInput{
		Systolic:  req.Systolic,
		Diastolic: req.Diastolic,
		Pulse:     req.Pulse,
		RecordAt:  req.RecordAt.Time(),
	}, true
}
