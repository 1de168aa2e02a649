// Package service contains the business logic layer: validation, rules,
// and orchestration between repositories and external providers. Services
// accept primitives and return domain errors; they know nothing about HTTP.
package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"regexp"
	"time"

	"github.com/rs/xid"

	"github.com/nundung/gamebible/internal/apperror"
	"github.com/nundung/gamebible/internal/auth"
	"github.com/nundung/gamebible/internal/mail"
	"github.com/nundung/gamebible/internal/model"
	"github.com/nundung/gamebible/internal/repository"
)

// Validation bounds for account fields.
const (
	MinLoginIDLength  = 4
	MaxLoginIDLength  = 20
	MinPasswordLength = 8
	MaxPasswordLength = 20
	MinNicknameLength = 2
	MaxNicknameLength = 20

	// VerificationCodeTTL bounds how long an emailed code stays usable.
	// Validity is judged against created_at at check time, so restarting
	// the process never revives a stale code.
	VerificationCodeTTL = 5 * time.Minute

	NotificationPageSize = 20
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// LoginResult is what a successful login hands the client.
type LoginResult struct {
	KakaoLogin bool   `json:"kakaoLogin"`
	Token      string `json:"token"`
	Idx        int64  `json:"idx"`
	IsAdmin    bool   `json:"isAdmin"`
}

// KakaoLoginResult additionally carries the Kakao profile the account was
// created from.
type KakaoLoginResult struct {
	KakaoLogin bool   `json:"kakaoLogin"`
	Token      string `json:"token"`
	Idx        int64  `json:"idx"`
	ID         int64  `json:"id"`
	Email      string `json:"email"`
}

// AccountService handles signup, login, account maintenance, and the
// user's notification feed.
type AccountService struct {
	users         repository.UserRepository
	notifications repository.NotificationRepository
	verifications repository.VerificationRepository
	passwords     *auth.PasswordService
	tokens        *auth.TokenService
	kakao         *auth.KakaoProvider
	mailer        mail.Sender
	resetURLBase  string
	logger        *slog.Logger
}

// NewAccountService wires the account service. kakao and mailer may be nil
// when the deployment has no Kakao app or SMTP account; the operations
// needing them then fail with an internal error instead of panicking.
func NewAccountService(
	users repository.UserRepository,
	notifications repository.NotificationRepository,
	verifications repository.VerificationRepository,
	passwords *auth.PasswordService,
	tokens *auth.TokenService,
	kakao *auth.KakaoProvider,
	mailer mail.Sender,
	resetURLBase string,
	logger *slog.Logger,
) *AccountService {
	return &AccountService{
		users:         users,
		notifications: notifications,
		verifications: verifications,
		passwords:     passwords,
		tokens:        tokens,
		kakao:         kakao,
		mailer:        mailer,
		resetURLBase:  resetURLBase,
		logger:        logger,
	}
}

// Login checks local credentials and issues an access token. Unknown login
// id and wrong password both come back as NotFound so the response does not
// reveal which half failed.
func (s *AccountService) Login(ctx context.Context, loginID, password string) (*LoginResult, error) {
	if loginID == "" || password == "" {
		return nil, apperror.BadRequest("아이디와 비밀번호를 입력해 주세요")
	}

	user, hash, err := s.users.GetLocalCredentials(ctx, loginID)
	if err != nil {
		return nil, err
	}
	if err := s.passwords.Verify(hash, password); err != nil {
		return nil, apperror.NotFound("아이디 또는 비밀번호가 일치하지 않습니다")
	}

	token, err := s.tokens.GenerateAccess(auth.Identity{Idx: user.Idx, IsAdmin: user.IsAdmin})
	if err != nil {
		return nil, apperror.Internal("로그인에 실패했습니다", err)
	}

	s.logger.Info("user logged in", slog.Int64("userIdx", user.Idx))
	return &LoginResult{Token: token, Idx: user.Idx, IsAdmin: user.IsAdmin}, nil
}

// Signup validates the fields and runs the signup workflow. The repository
// transaction holds the uniqueness checks and both inserts, so a losing
// race surfaces as Conflict with nothing written.
func (s *AccountService) Signup(ctx context.Context, loginID, password, nickname, email string) error {
	if l := len(loginID); l < MinLoginIDLength || l > MaxLoginIDLength {
		return apperror.ValidationFailed("id", fmt.Sprintf("아이디는 %d~%d자여야 합니다", MinLoginIDLength, MaxLoginIDLength))
	}
	if l := len(password); l < MinPasswordLength || l > MaxPasswordLength {
		return apperror.ValidationFailed("pw", fmt.Sprintf("비밀번호는 %d~%d자여야 합니다", MinPasswordLength, MaxPasswordLength))
	}
	if err := validateNickname(nickname); err != nil {
		return err
	}
	if err := validateEmail(email); err != nil {
		return err
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return apperror.Internal("회원가입에 실패했습니다", err)
	}

	idx, err := s.users.CreateLocalUser(ctx, loginID, hash, nickname, email)
	if err != nil {
		return err
	}

	s.logger.Info("user signed up", slog.Int64("userIdx", idx))
	return nil
}

// CheckLoginID reports Conflict when the id is already in use by an active
// account.
func (s *AccountService) CheckLoginID(ctx context.Context, loginID string) error {
	if l := len(loginID); l < MinLoginIDLength || l > MaxLoginIDLength {
		return apperror.ValidationFailed("id", fmt.Sprintf("아이디는 %d~%d자여야 합니다", MinLoginIDLength, MaxLoginIDLength))
	}
	taken, err := s.users.LoginIDTaken(ctx, loginID)
	if err != nil {
		return err
	}
	if taken {
		return apperror.Conflict("이미 존재하는 아이디입니다")
	}
	return nil
}

func (s *AccountService) CheckNickname(ctx context.Context, nickname string) error {
	if err := validateNickname(nickname); err != nil {
		return err
	}
	taken, err := s.users.NicknameTaken(ctx, nickname)
	if err != nil {
		return err
	}
	if taken {
		return apperror.Conflict("이미 존재하는 닉네임입니다")
	}
	return nil
}

// CheckEmailAndSendCode checks the email is free, then issues a five-digit
// verification code: persisted, mailed, and swept after it expires. The
// sweep is scheduled per issuance, so stale rows never outlive the code
// TTL by much even without a background job.
func (s *AccountService) CheckEmailAndSendCode(ctx context.Context, email string) error {
	if err := validateEmail(email); err != nil {
		return err
	}
	taken, err := s.users.EmailTaken(ctx, email)
	if err != nil {
		return err
	}
	if taken {
		return apperror.Conflict("이미 존재하는 이메일입니다")
	}
	if s.mailer == nil {
		return apperror.Internal("이메일 발송이 설정되어 있지 않습니다", nil)
	}

	code, err := generateCode()
	if err != nil {
		return apperror.Internal("인증번호 생성에 실패했습니다", err)
	}
	if err := s.verifications.CreateCode(ctx, email, code); err != nil {
		return err
	}
	if err := s.mailer.SendVerificationCode(email, code); err != nil {
		return apperror.Internal("인증 메일 발송에 실패했습니다", err)
	}

	time.AfterFunc(VerificationCodeTTL, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if n, err := s.verifications.DeleteExpired(ctx, VerificationCodeTTL); err != nil {
			s.logger.Error("verification sweep failed", slog.String("error", err.Error()))
		} else if n > 0 {
			s.logger.Info("expired verification codes removed", slog.Int64("count", n))
		}
	})

	return nil
}

// VerifyEmailCode confirms a code for the email. A wrong or expired code is
// Forbidden, matching the shipping client's handling.
func (s *AccountService) VerifyEmailCode(ctx context.Context, email, code string) error {
	if err := validateEmail(email); err != nil {
		return err
	}
	if len(code) != 5 {
		return apperror.ValidationFailed("code", "인증번호는 5자리 숫자입니다")
	}
	ok, err := s.verifications.CodeValid(ctx, email, code, VerificationCodeTTL)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.Forbidden("인증번호가 일치하지 않습니다")
	}
	return nil
}

func (s *AccountService) FindLoginID(ctx context.Context, email string) (string, error) {
	if err := validateEmail(email); err != nil {
		return "", err
	}
	return s.users.FindLoginIDByEmail(ctx, email)
}

// RequestPasswordReset mails a short-lived reset link for the account
// behind the email and returns the token it embeds.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	if err := validateEmail(email); err != nil {
		return "", err
	}
	if s.mailer == nil {
		return "", apperror.Internal("이메일 발송이 설정되어 있지 않습니다", nil)
	}

	userIdx, err := s.users.FindUserIdxByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	token, err := s.tokens.GenerateReset(userIdx)
	if err != nil {
		return "", apperror.Internal("비밀번호 변경 메일 발송에 실패했습니다", err)
	}

	resetURL := fmt.Sprintf("%s/pw?token=%s", s.resetURLBase, token)
	if err := s.mailer.SendPasswordReset(email, resetURL); err != nil {
		return "", apperror.Internal("비밀번호 변경 메일 발송에 실패했습니다", err)
	}
	return token, nil
}

func (s *AccountService) ChangePassword(ctx context.Context, userIdx int64, password string) error {
	if l := len(password); l < MinPasswordLength || l > MaxPasswordLength {
		return apperror.ValidationFailed("pw", fmt.Sprintf("비밀번호는 %d~%d자여야 합니다", MinPasswordLength, MaxPasswordLength))
	}
	hash, err := s.passwords.Hash(password)
	if err != nil {
		return apperror.Internal("비밀번호 변경에 실패했습니다", err)
	}
	return s.users.UpdatePassword(ctx, userIdx, hash)
}

func (s *AccountService) GetInfo(ctx context.Context, userIdx int64) (*model.UserInfo, error) {
	return s.users.GetInfo(ctx, userIdx)
}

func (s *AccountService) UpdateInfo(ctx context.Context, userIdx int64, nickname, email string) error {
	if err := validateNickname(nickname); err != nil {
		return err
	}
	if err := validateEmail(email); err != nil {
		return err
	}
	return s.users.UpdateInfo(ctx, userIdx, nickname, email)
}

// UpdateProfileImage swaps the stored profile image for the already-saved
// path. The repository transaction retires the old rows and inserts the
// new one together.
func (s *AccountService) UpdateProfileImage(ctx context.Context, userIdx int64, imgPath string) error {
	return s.users.SwapProfileImage(ctx, userIdx, imgPath)
}

func (s *AccountService) Withdraw(ctx context.Context, userIdx int64) error {
	if err := s.users.SoftDelete(ctx, userIdx); err != nil {
		return err
	}
	s.logger.Info("user withdrew", slog.Int64("userIdx", userIdx))
	return nil
}

func (s *AccountService) ListNotifications(ctx context.Context, userIdx, lastIdx int64) ([]model.Notification, error) {
	return s.notifications.ListNotifications(ctx, userIdx, lastIdx, NotificationPageSize)
}

func (s *AccountService) DeleteNotification(ctx context.Context, idx, userIdx int64) error {
	return s.notifications.DeleteNotification(ctx, idx, userIdx)
}

// KakaoAuthURL returns the authorize URL the client redirects to.
func (s *AccountService) KakaoAuthURL() (string, error) {
	if s.kakao == nil {
		return "", apperror.Internal("카카오 로그인이 설정되어 있지 않습니다", nil)
	}
	return s.kakao.AuthURL(""), nil
}

// KakaoLogin exchanges the callback code, then runs the Kakao signup
// workflow: an existing active Kakao account logs straight in, a fresh one
// is created with a generated nickname. The token carries the Kakao id so
// withdrawal can unlink later.
func (s *AccountService) KakaoLogin(ctx context.Context, code string) (*KakaoLoginResult, error) {
	if s.kakao == nil {
		return nil, apperror.Internal("카카오 로그인이 설정되어 있지 않습니다", nil)
	}
	if code == "" {
		return nil, apperror.BadRequest("인가 코드가 없습니다")
	}

	profile, err := s.kakao.Exchange(ctx, code)
	if err != nil {
		return nil, apperror.Internal("카카오 인증에 실패했습니다", err)
	}

	// xid strings are 20 characters, which happens to be the nickname
	// ceiling. The repository regenerates on the off chance of a collision.
	user, err := s.users.GetOrCreateKakaoUser(ctx, profile.ID, profile.KakaoAccount.Email, func() string {
		return xid.New().String()
	})
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.GenerateAccess(auth.Identity{Idx: user.Idx, KakaoID: profile.ID, IsAdmin: user.IsAdmin})
	if err != nil {
		return nil, apperror.Internal("로그인에 실패했습니다", err)
	}

	s.logger.Info("kakao user logged in", slog.Int64("userIdx", user.Idx))
	return &KakaoLoginResult{
		KakaoLogin: true,
		Token:      token,
		Idx:        user.Idx,
		ID:         profile.ID,
		Email:      profile.KakaoAccount.Email,
	}, nil
}

// KakaoWithdraw unlinks the Kakao account server-side and soft-deletes the
// user. The token must have been issued by KakaoLogin; a local-account
// token has no Kakao id to unlink.
func (s *AccountService) KakaoWithdraw(ctx context.Context, id auth.Identity) error {
	if s.kakao == nil {
		return apperror.Internal("카카오 로그인이 설정되어 있지 않습니다", nil)
	}
	if id.KakaoID == 0 {
		return apperror.Forbidden("카카오 계정이 아닙니다")
	}
	if err := s.kakao.Unlink(ctx, id.KakaoID); err != nil {
		return apperror.Internal("카카오 연결 해제에 실패했습니다", err)
	}
	return s.users.SoftDelete(ctx, id.Idx)
}

func validateNickname(nickname string) error {
	if l := len([]rune(nickname)); l < MinNicknameLength || l > MaxNicknameLength {
		return apperror.ValidationFailed("nickname", fmt.Sprintf("닉네임은 %d~%d자여야 합니다", MinNicknameLength, MaxNicknameLength))
	}
	return nil
}

func validateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return apperror.ValidationFailed("email", "올바른 이메일 형식이 아닙니다")
	}
	return nil
}

// generateCode draws five decimal digits from crypto/rand. Leading zeros
// are kept, so "04217" is a valid code.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(100000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%05d", n.Int64()), nil
}
