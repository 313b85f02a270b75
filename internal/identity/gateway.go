package identity

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jmvillanueva/grandline/internal/model"
)

// ProfileStore はミラーリングされたプロフィールレコードの永続化インターフェース。
// 実装はrepositoryパッケージにある。
type ProfileStore interface {
	// Save はプロフィールレコードを作成または更新する。
	Save(ctx context.Context, profile *model.Profile) error

	// Find はUIDに対応するプロフィールレコードを取得する。
	// レコードが存在しない場合は(nil, nil)を返す。
	Find(ctx context.Context, uid string) (*model.Profile, error)
}

// Gateway はIDプロバイダーとプロフィールストアへの唯一の統合点。
// 1つのGatewayインスタンスは1つのアクティブセッションを所有する。
//
// 操作の呼び出しは単一の書き込み側から直列に行われる前提であり、
// 通知の順序保証はこの前提に依存する。複数のgoroutineから同時に
// 認証操作を呼び出してはならない。OnAuthStateChangedの購読と解除は
// どのgoroutineから行ってもよい。
type Gateway struct {
	provider Provider
	profiles ProfileStore

	mu          sync.Mutex
	current     *model.User
	credentials Credentials

	subMu   sync.Mutex
	nextSub int
	subs    map[int]func(*model.User)
}

// NewGateway はGatewayを生成する。
func NewGateway(provider Provider, profiles ProfileStore) *Gateway {
	return &Gateway{
		provider: provider,
		profiles: profiles,
		subs:     make(map[int]func(*model.User)),
	}
}

// Register は新規アカウントを作成し、表示名を設定し、
// プロフィールレコードをストアに書き込んでセッションを開始する。
func (g *Gateway) Register(ctx context.Context, email, password, displayName string) (*model.User, error) {
	result, err := g.provider.SignUp(ctx, email, password)
	if err != nil {
		return nil, translateFault(registerFaults, err)
	}

	if err := g.provider.UpdateAccount(ctx, result.Credentials.IDToken, displayName); err != nil {
		return nil, translateFault(registerFaults, err)
	}
	result.Account.DisplayName = displayName

	now := time.Now()
	profile := &model.Profile{
		UID:         result.Account.UID,
		Email:       result.Account.Email,
		DisplayName: displayName,
		CreatedAt:   result.Account.CreatedAt,
		UpdatedAt:   now,
	}
	if err := g.profiles.Save(ctx, profile); err != nil {
		return nil, errors.New("プロフィールの保存に失敗しました。再度お試しください")
	}

	user := MergeProfile(&result.Account, profile)
	g.setSession(user, result.Credentials)
	return user, nil
}

// Login はメールアドレスとパスワードで認証し、セッションを開始する。
// プロフィールレコードが存在する場合はその表示名と作成日時を優先する。
func (g *Gateway) Login(ctx context.Context, email, password string) (*model.User, error) {
	result, err := g.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, translateFault(loginFaults, err)
	}

	// プロフィール取得の失敗はプロバイダー側の値で継続する
	profile, err := g.profiles.Find(ctx, result.Account.UID)
	if err != nil {
		profile = nil
	}

	user := MergeProfile(&result.Account, profile)
	g.setSession(user, result.Credentials)
	return user, nil
}

// Logout はアクティブセッションを終了する。
// セッショントークンの破棄はローカルで完結するため、プロバイダーへの
// 呼び出しは発生せず、このメソッドが失敗することはない。
func (g *Gateway) Logout(ctx context.Context) error {
	g.clearSession()
	return nil
}

// CurrentUser は現在認証されているユーザーを返す。
// セッションが無い場合、および内部エラーの場合はnilを返す。
// エラーを返すことはない。
func (g *Gateway) CurrentUser(ctx context.Context) *model.User {
	g.mu.Lock()
	creds := g.credentials
	g.mu.Unlock()

	if creds.IDToken == "" {
		return nil
	}

	// 期限切れトークンは更新を試み、失敗したら未認証として扱う
	if !creds.ExpiresAt.IsZero() && time.Now().After(creds.ExpiresAt) {
		refreshed, err := g.provider.RefreshIDToken(ctx, creds.RefreshToken)
		if err != nil {
			return nil
		}
		creds = *refreshed
		g.mu.Lock()
		g.credentials = creds
		g.mu.Unlock()
	}

	account, err := g.provider.Lookup(ctx, creds.IDToken)
	if err != nil {
		return nil
	}

	profile, err := g.profiles.Find(ctx, account.UID)
	if err != nil {
		profile = nil
	}
	return MergeProfile(account, profile)
}

// UpdateProfile は認証済みユーザー自身の表示名を更新する。
// プロバイダーとプロフィールストアの両方を更新した後、
// トークンを強制更新して以降の読み取りに新しい表示名を反映させる。
func (g *Gateway) UpdateProfile(ctx context.Context, userID, displayName string) (*model.User, error) {
	g.mu.Lock()
	current := g.current
	creds := g.credentials
	g.mu.Unlock()

	if current == nil || current.ID != userID {
		return nil, errors.New("この操作を行う権限がありません")
	}

	if err := g.provider.UpdateAccount(ctx, creds.IDToken, displayName); err != nil {
		return nil, translateFault(updateFaults, err)
	}

	profile := &model.Profile{
		UID:         current.ID,
		Email:       current.Email,
		DisplayName: displayName,
		CreatedAt:   current.CreatedAt,
		UpdatedAt:   time.Now(),
	}
	if err := g.profiles.Save(ctx, profile); err != nil {
		return nil, errors.New("プロフィールの保存に失敗しました。再度お試しください")
	}

	refreshed, err := g.provider.RefreshIDToken(ctx, creds.RefreshToken)
	if err != nil {
		return nil, translateFault(updateFaults, err)
	}

	updated := *current
	updated.DisplayName = displayName
	g.setSession(&updated, *refreshed)
	return &updated, nil
}

// SendPasswordResetEmail はパスワード再設定メールの送信を要求する。
func (g *Gateway) SendPasswordResetEmail(ctx context.Context, email string) error {
	if err := g.provider.SendPasswordResetEmail(ctx, email); err != nil {
		return translateFault(resetFaults, err)
	}
	return nil
}

// OnAuthStateChanged はセッション遷移の観測コールバックを登録する。
// サインイン・サインアウト・プロフィール更新のたびに、マージ済みの
// ユーザー（サインアウト時はnil)を引数に遷移ごとに1回だけ呼び出す。
// 戻り値の解除関数は複数回呼んでも安全で、解除後の呼び出しは発生しない。
// 登録時点の状態は通知しない。
func (g *Gateway) OnAuthStateChanged(callback func(user *model.User)) (unsubscribe func()) {
	g.subMu.Lock()
	id := g.nextSub
	g.nextSub++
	g.subs[id] = callback
	g.subMu.Unlock()

	return func() {
		g.subMu.Lock()
		delete(g.subs, id)
		g.subMu.Unlock()
	}
}

// Restore は永続化されたセッショントークンからセッション状態を再構築する。
// トークンが期限切れの場合は更新を試みる。
func (g *Gateway) Restore(ctx context.Context, session *model.Session) (*model.User, error) {
	creds := Credentials{
		IDToken:      session.IDToken,
		RefreshToken: session.RefreshToken,
		ExpiresAt:    session.ExpiresAt,
	}

	// トークンとセッションレコードの組み合わせ不正を検出する
	if sub, err := TokenSubject(creds.IDToken); err == nil && session.UID != "" && sub != session.UID {
		return nil, fmt.Errorf("session token subject mismatch")
	}

	// 期限が永続化されていない場合はトークンのexpクレームから導出する
	if creds.ExpiresAt.IsZero() {
		if exp, err := TokenExpiresAt(creds.IDToken); err == nil {
			creds.ExpiresAt = exp
		}
	}

	if !creds.ExpiresAt.IsZero() && time.Now().After(creds.ExpiresAt) {
		refreshed, err := g.provider.RefreshIDToken(ctx, creds.RefreshToken)
		if err != nil {
			return nil, fmt.Errorf("failed to refresh session token: %w", err)
		}
		creds = *refreshed
	}

	account, err := g.provider.Lookup(ctx, creds.IDToken)
	if err != nil {
		return nil, fmt.Errorf("failed to look up session account: %w", err)
	}

	profile, err := g.profiles.Find(ctx, account.UID)
	if err != nil {
		profile = nil
	}

	user := MergeProfile(account, profile)
	g.setSession(user, creds)
	return user, nil
}

// Session は現在のセッショントークンのコピーを返す。
// トークン更新後の永続化に使用する。
func (g *Gateway) Session() Credentials {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.credentials
}

// setSession はセッション状態を更新し、購読者に通知する。
func (g *Gateway) setSession(user *model.User, creds Credentials) {
	g.mu.Lock()
	g.current = user
	g.credentials = creds
	g.mu.Unlock()
	g.notify(user)
}

// clearSession はセッション状態を破棄し、購読者にnilを通知する。
func (g *Gateway) clearSession() {
	g.mu.Lock()
	g.current = nil
	g.credentials = Credentials{}
	g.mu.Unlock()
	g.notify(nil)
}

// notify は登録済みのコールバックを登録順に同期的に呼び出す。
// 遷移は単一の書き込み側から直列に発生する前提のため、
// 遷移間の通知順序はそのまま保たれる。
func (g *Gateway) notify(user *model.User) {
	g.subMu.Lock()
	ids := make([]int, 0, len(g.subs))
	for id := range g.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	callbacks := make([]func(*model.User), 0, len(ids))
	for _, id := range ids {
		callbacks = append(callbacks, g.subs[id])
	}
	g.subMu.Unlock()

	for _, cb := range callbacks {
		cb(user)
	}
}
