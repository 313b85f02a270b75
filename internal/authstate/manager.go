// Package authstate はセッション状態の観測可能な管理を提供する。
// 認証ユースケースを呼び出すアクションと、セッション遷移通知による
// 状態の自動更新を1つのマネージャに集約する。
package authstate

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/jmvillanueva/grandline/internal/model"
)

// SessionService は状態マネージャが依存する認証操作のインターフェース。
// auth.Serviceが実装する。
type SessionService interface {
	Register(ctx context.Context, email, password, displayName string) (*model.User, error)
	Login(ctx context.Context, email, password string) (*model.User, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) *model.User
	UpdateProfile(ctx context.Context, userID, displayName string) (*model.User, error)
	SendPasswordResetEmail(ctx context.Context, email string) error
	OnAuthStateChanged(callback func(user *model.User)) (unsubscribe func())
}

// State はセッション状態のスナップショット。
type State struct {
	User    *model.User
	Loading bool
	Err     string
}

// Manager はセッション状態を保持し、アクションの実行と
// セッション遷移通知の反映を行う。
//
// 各アクションはエラーを返さず成功フラグを返す。失敗の詳細は
// 共有のエラーメッセージとしてStateに保持される。
// セッション遷移通知が唯一の正であり、アクションによる状態更新は
// 楽観的な先行反映にすぎない。後続の通知が上書きすることがある。
type Manager struct {
	svc SessionService

	mu    sync.Mutex
	state State

	unsubscribe func()
	closeOnce   sync.Once
}

// NewManager はManagerを生成し、セッション遷移の購読を開始する。
// 現在のセッション状態を同期的に解決してから返す。
func NewManager(ctx context.Context, svc SessionService) *Manager {
	m := &Manager{
		svc:   svc,
		state: State{Loading: true},
	}

	m.unsubscribe = svc.OnAuthStateChanged(func(user *model.User) {
		m.mu.Lock()
		m.state = State{User: user, Loading: false}
		m.mu.Unlock()
	})

	user := svc.CurrentUser(ctx)
	m.mu.Lock()
	if m.state.Loading {
		m.state = State{User: user, Loading: false}
	}
	m.mu.Unlock()
	return m
}

// State は現在の状態のコピーを返す。
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Register はアカウントを登録する。成功時はユーザーを状態に反映する。
func (m *Manager) Register(ctx context.Context, email, password, displayName string) bool {
	m.begin()
	user, err := m.svc.Register(ctx, email, password, displayName)
	if err != nil {
		m.fail(err)
		return false
	}
	m.succeed(user)
	return true
}

// Login は認証してセッションを開始する。
func (m *Manager) Login(ctx context.Context, email, password string) bool {
	m.begin()
	user, err := m.svc.Login(ctx, email, password)
	if err != nil {
		m.fail(err)
		return false
	}
	m.succeed(user)
	return true
}

// Logout はセッションを終了する。
func (m *Manager) Logout(ctx context.Context) bool {
	m.begin()
	if err := m.svc.Logout(ctx); err != nil {
		m.fail(err)
		return false
	}
	m.succeed(nil)
	return true
}

// UpdateProfile は表示名を更新する。
// 成功時は後続の通知を待たずにローカル状態へ即時反映する。
func (m *Manager) UpdateProfile(ctx context.Context, userID, displayName string) bool {
	m.begin()
	user, err := m.svc.UpdateProfile(ctx, userID, displayName)
	if err != nil {
		m.fail(err)
		return false
	}
	m.succeed(user)
	return true
}

// SendPasswordResetEmail はパスワード再設定メールの送信を要求する。
// 成功してもユーザー状態は変化しない。
func (m *Manager) SendPasswordResetEmail(ctx context.Context, email string) bool {
	m.begin()
	if err := m.svc.SendPasswordResetEmail(ctx, email); err != nil {
		m.fail(err)
		return false
	}
	m.mu.Lock()
	m.state.Loading = false
	m.mu.Unlock()
	return true
}

// ClearError はエラーメッセージを消去する。
func (m *Manager) ClearError() {
	m.mu.Lock()
	m.state.Err = ""
	m.mu.Unlock()
}

// Close はセッション遷移の購読を解除する。複数回呼んでも安全。
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		m.unsubscribe()
	})
}

// begin はアクション開始時の状態遷移を行う。
func (m *Manager) begin() {
	m.mu.Lock()
	m.state.Loading = true
	m.state.Err = ""
	m.mu.Unlock()
}

// succeed はアクション成功時の状態遷移を行う。
func (m *Manager) succeed(user *model.User) {
	m.mu.Lock()
	m.state.User = user
	m.state.Loading = false
	m.mu.Unlock()
}

// fail はアクション失敗時の状態遷移を行う。
func (m *Manager) fail(err error) {
	m.mu.Lock()
	m.state.Err = extractMessage(err)
	m.state.Loading = false
	m.mu.Unlock()
}

// extractMessage はエラーから表示用メッセージを取り出す。
// 区別された2種類のエラーは「❌ 」プレフィックスを正規化して付与し、
// それ以外は元のメッセージをそのまま使う。
func extractMessage(err error) string {
	var existsErr *model.EmailAlreadyExistsError
	var invalidErr *model.InvalidEmailError
	if errors.As(err, &existsErr) || errors.As(err, &invalidErr) {
		return "❌ " + strings.TrimPrefix(err.Error(), "❌ ")
	}
	return err.Error()
}
