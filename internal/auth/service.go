package auth

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/jmvillanueva/grandline/internal/model"
)

// 登録時のメールアドレス検証パターン。
// 長さや連続ドット等の詳細ルールはvalidateRegistrationEmailで別途検査する。
var registrationEmailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)

// パスワード再設定時の簡易パターン。local@domain.tldの形のみ要求する。
var resetEmailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const minPasswordLength = 6

// Service は認証ユースケースを提供する。
// 各操作は同期的なローカル検証を行った後にリポジトリへ委譲する。
// 検証エラーでリポジトリが呼ばれることはない。
type Service struct {
	repo Repository
}

// NewService はServiceを生成する。
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Register は入力を検証し、新規アカウントを登録する。
// メールアドレスは複合ルール（形式、長さ、ドット位置）で厳密に検証する。
func (s *Service) Register(ctx context.Context, email, password, displayName string) (*model.User, error) {
	if email == "" || password == "" || displayName == "" {
		return nil, errors.New("メールアドレス、パスワード、表示名をすべて入力してください")
	}
	if len(password) < minPasswordLength {
		return nil, errors.New("パスワードは6文字以上で入力してください")
	}
	if !validateRegistrationEmail(email) {
		return nil, model.NewInvalidEmailError("")
	}
	return s.repo.Register(ctx, email, password, displayName)
}

// Login は入力を検証し、認証してセッションを開始する。
// メールアドレスの検証は登録時より意図的に緩く、@の有無のみ確認する。
func (s *Service) Login(ctx context.Context, email, password string) (*model.User, error) {
	if email == "" || password == "" {
		return nil, errors.New("メールアドレスとパスワードを入力してください")
	}
	if !strings.Contains(email, "@") {
		return nil, errors.New("メールアドレスの形式が正しくありません")
	}
	return s.repo.Login(ctx, email, password)
}

// Logout はアクティブセッションを終了する。検証は行わない。
func (s *Service) Logout(ctx context.Context) error {
	return s.repo.Logout(ctx)
}

// CurrentUser は現在認証されているユーザーを返す。未認証時はnil。
func (s *Service) CurrentUser(ctx context.Context) *model.User {
	return s.repo.CurrentUser(ctx)
}

// UpdateProfile は表示名を更新する。検証は行わない。
func (s *Service) UpdateProfile(ctx context.Context, userID, displayName string) (*model.User, error) {
	return s.repo.UpdateProfile(ctx, userID, displayName)
}

// SendPasswordResetEmail は前後の空白を除去したメールアドレスを検証し、
// 再設定メールの送信を要求する。
func (s *Service) SendPasswordResetEmail(ctx context.Context, email string) error {
	trimmed := strings.TrimSpace(email)
	if trimmed == "" {
		return errors.New("メールアドレスを入力してください")
	}
	if !resetEmailPattern.MatchString(trimmed) {
		return errors.New("メールアドレスの形式が正しくありません")
	}
	return s.repo.SendPasswordResetEmail(ctx, trimmed)
}

// OnAuthStateChanged はセッション遷移の観測コールバックを登録する。
func (s *Service) OnAuthStateChanged(callback func(user *model.User)) (unsubscribe func()) {
	return s.repo.OnAuthStateChanged(callback)
}

// validateRegistrationEmail は登録用の複合ルールでメールアドレスを検証する。
// 全体254文字以下、@はちょうど1つ、ローカル部1〜64文字、
// ドメイン部1〜253文字かつドットを含む、先頭末尾および連続ドット禁止。
func validateRegistrationEmail(email string) bool {
	if len(email) > 254 {
		return false
	}
	if strings.Count(email, "@") != 1 {
		return false
	}

	local, domain, _ := strings.Cut(email, "@")
	if len(local) < 1 || len(local) > 64 {
		return false
	}
	if len(domain) < 1 || len(domain) > 253 {
		return false
	}
	if !strings.Contains(domain, ".") {
		return false
	}
	if strings.HasPrefix(local, ".") || strings.HasSuffix(local, ".") {
		return false
	}
	if strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return false
	}
	if strings.Contains(email, "..") {
		return false
	}
	return registrationEmailPattern.MatchString(email)
}
