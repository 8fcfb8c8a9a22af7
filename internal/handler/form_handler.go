package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/skylaunch/internal/middleware"
	"github.com/hitoshi/skylaunch/internal/model"
	"github.com/hitoshi/skylaunch/internal/newsletter"
)

// maxFormRequestBytes はフォームAPIのリクエストボディ上限。
const maxFormRequestBytes = 4 << 10

// FormHandler はニュースレターフォームのJSON APIを処理する。
type FormHandler struct {
	forms FormRegistry
	now   func() time.Time
}

// NewFormHandler はFormHandlerを生成する。
func NewFormHandler(forms FormRegistry) *FormHandler {
	return &FormHandler{
		forms: forms,
		now:   time.Now,
	}
}

// updateEmailRequest は入力値更新リクエストのボディ。
type updateEmailRequest struct {
	Email string `json:"email"`
}

// formResponse はフォーム状態のAPIレスポンス。
type formResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Submitted bool   `json:"submitted"`
	State     string `json:"state"`
	// AcknowledgedUntilMS は受付表示が解除される予定時刻（UNIXミリ秒）。Idle状態では0。
	AcknowledgedUntilMS int64 `json:"acknowledged_until_ms"`
	// RemainingMS は受付表示が解除されるまでの残りミリ秒。
	RemainingMS int64 `json:"remaining_ms"`
}

// CreateForm は新しいフォームインスタンスを開く。
// POST /api/forms
func (h *FormHandler) CreateForm(w http.ResponseWriter, r *http.Request) {
	form := h.forms.Open()
	middleware.SetLogFormID(r.Context(), form.ID())

	writeJSON(w, http.StatusCreated, h.toResponse(form.Snapshot()))
}

// GetForm はフォームの現在の状態を返す。
// GET /api/forms/{id}
func (h *FormHandler) GetForm(w http.ResponseWriter, r *http.Request) {
	form, ok := h.formFromRequest(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, h.toResponse(form.Snapshot()))
}

// UpdateEmail は入力欄の値を置き換える。値の検証は行わない。
// PUT /api/forms/{id}/email
func (h *FormHandler) UpdateEmail(w http.ResponseWriter, r *http.Request) {
	form, ok := h.formFromRequest(w, r)
	if !ok {
		return
	}

	var req updateEmailRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFormRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError(err.Error()))
		return
	}

	form.InputChange(req.Email)

	writeJSON(w, http.StatusOK, h.toResponse(form.Snapshot()))
}

// SubmitForm は現在の入力値で登録を試みる。
// 空の入力による送信は無視されるが、エラーではないため常に200を返す。
// POST /api/forms/{id}/submit
func (h *FormHandler) SubmitForm(w http.ResponseWriter, r *http.Request) {
	form, ok := h.formFromRequest(w, r)
	if !ok {
		return
	}

	form.Submit()

	writeJSON(w, http.StatusOK, h.toResponse(form.Snapshot()))
}

// formFromRequest はフォームミドルウェアが注入したインスタンスを取り出す。
// 取り出せない場合はルーティングの構成ミスなので500を書き込む。
func (h *FormHandler) formFromRequest(w http.ResponseWriter, r *http.Request) (*newsletter.Form, bool) {
	form, err := middleware.FormFromContext(r.Context())
	if err != nil {
		slog.Error("form middleware not applied", slog.String("path", r.URL.Path))
		middleware.WriteInternalServerError(w)
		return nil, false
	}
	return form, true
}

func (h *FormHandler) toResponse(s newsletter.Snapshot) formResponse {
	resp := formResponse{
		ID:          s.ID,
		Email:       s.Email,
		Submitted:   s.Submitted,
		State:       string(s.State),
		RemainingMS: s.Remaining(h.now()).Milliseconds(),
	}
	if !s.AcknowledgedUntil.IsZero() {
		resp.AcknowledgedUntilMS = s.AcknowledgedUntil.UnixMilli()
	}
	return resp
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}
