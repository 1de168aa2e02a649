package handler

import (
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nundung/gamebible/internal/apperror"
	"github.com/nundung/gamebible/internal/auth"
	"github.com/nundung/gamebible/internal/model"
	"github.com/nundung/gamebible/internal/service"
	"github.com/nundung/gamebible/internal/storage"
)

// AccountHandler owns the /account routes.
type AccountHandler struct {
	accounts *service.AccountService
	store    storage.ImageStore
	logger   *slog.Logger
}

func NewAccountHandler(accounts *service.AccountService, store storage.ImageStore, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{accounts: accounts, store: store, logger: logger}
}

// Routes registers the account surface on r. requireAuth wraps the routes
// that need a logged-in caller.
func (h *AccountHandler) Routes(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Post("/auth", h.HandleLogin)
	r.Post("/", h.HandleSignup)
	r.Post("/id/check", h.HandleCheckID)
	r.Post("/nickname/check", h.HandleCheckNickname)
	r.Post("/email/check", h.HandleCheckEmail)
	r.Post("/email/auth", h.HandleVerifyEmail)
	r.Get("/id", h.HandleFindID)
	r.Post("/pw/email", h.HandleResetPasswordMail)

	r.Get("/auth/kakao", h.HandleKakaoAuthURL)
	r.Get("/kakao/callback", h.HandleKakaoCallback)

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Put("/pw", h.HandleChangePassword)
		r.Get("/info", h.HandleInfo)
		r.Put("/info", h.HandleUpdateInfo)
		r.Put("/image", h.HandleProfileImage)
		r.Delete("/", h.HandleWithdraw)
		r.Get("/notification", h.HandleNotifications)
		r.Delete("/notification/{notificationIdx}", h.HandleDeleteNotification)
		r.Delete("/auth/kakao", h.HandleKakaoWithdraw)
	})
}

func (h *AccountHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
		PW string `json:"pw"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.accounts.Login(r.Context(), req.ID, req.PW)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *AccountHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID       string `json:"id"`
		PW       string `json:"pw"`
		Nickname string `json:"nickname"`
		Email    string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.accounts.Signup(r.Context(), req.ID, req.PW, req.Nickname, req.Email); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "회원가입 성공"})
}

func (h *AccountHandler) HandleCheckID(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.accounts.CheckLoginID(r.Context(), req.ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "사용 가능한 아이디입니다"})
}

func (h *AccountHandler) HandleCheckNickname(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Nickname string `json:"nickname"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.accounts.CheckNickname(r.Context(), req.Nickname); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "사용 가능한 닉네임입니다"})
}

// HandleCheckEmail doubles as the verification-code sender: an available
// email gets a code in its inbox.
func (h *AccountHandler) HandleCheckEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.accounts.CheckEmailAndSendCode(r.Context(), req.Email); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "인증번호를 발송했습니다"})
}

func (h *AccountHandler) HandleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.accounts.VerifyEmailCode(r.Context(), req.Email, req.Code); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "이메일 인증 성공"})
}

func (h *AccountHandler) HandleFindID(w http.ResponseWriter, r *http.Request) {
	loginID, err := h.accounts.FindLoginID(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": loginID})
}

func (h *AccountHandler) HandleResetPasswordMail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	token, err := h.accounts.RequestPasswordReset(r.Context(), req.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (h *AccountHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())
	var req struct {
		PW string `json:"pw"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.accounts.ChangePassword(r.Context(), id.Idx, req.PW); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "비밀번호 변경 성공"})
}

func (h *AccountHandler) HandleInfo(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())
	info, err := h.accounts.GetInfo(r.Context(), id.Idx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *AccountHandler) HandleUpdateInfo(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())
	var req struct {
		Nickname string `json:"nickname"`
		Email    string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.accounts.UpdateInfo(r.Context(), id.Idx, req.Nickname, req.Email); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "내 정보 수정 성공"})
}

// HandleProfileImage stores the multipart upload and swaps it in as the
// caller's profile image.
func (h *AccountHandler) HandleProfileImage(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())

	file, header, err := formImage(r, "image")
	if err != nil {
		writeError(w, err)
		return
	}
	defer file.Close()

	imgPath, err := h.store.SaveImage(header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.accounts.UpdateProfileImage(r.Context(), id.Idx, imgPath); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"imgPath": imgPath})
}

func (h *AccountHandler) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())
	if err := h.accounts.Withdraw(r.Context(), id.Idx); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "회원 탈퇴 성공"})
}

func (h *AccountHandler) HandleNotifications(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())
	lastIdx, err := queryInt64(r, "lastidx", 0)
	if err != nil {
		writeError(w, err)
		return
	}

	notifications, err := h.accounts.ListNotifications(r.Context(), id.Idx, lastIdx)
	if err != nil {
		writeError(w, err)
		return
	}
	if notifications == nil {
		notifications = []model.Notification{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": notifications})
}

func (h *AccountHandler) HandleDeleteNotification(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())
	idx, err := idxParam(r, "notificationIdx")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.accounts.DeleteNotification(r.Context(), idx, id.Idx); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "알림 삭제 성공"})
}

func (h *AccountHandler) HandleKakaoAuthURL(w http.ResponseWriter, r *http.Request) {
	url, err := h.accounts.KakaoAuthURL()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (h *AccountHandler) HandleKakaoCallback(w http.ResponseWriter, r *http.Request) {
	result, err := h.accounts.KakaoLogin(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *AccountHandler) HandleKakaoWithdraw(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())
	if err := h.accounts.KakaoWithdraw(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "회원 탈퇴 성공"})
}

// formImage pulls one uploaded file out of a multipart form, capping the
// parse at the image size limit plus form overhead.
func formImage(r *http.Request, field string) (multipart.File, *multipart.FileHeader, error) {
	if err := r.ParseMultipartForm(storage.MaxImageSize + 1<<20); err != nil {
		return nil, nil, apperror.BadRequest("이미지 업로드 형식이 올바르지 않습니다")
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, nil, apperror.BadRequest("이미지를 업로드해 주세요")
	}
	return file, header, nil
}
