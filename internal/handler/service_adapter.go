package handler

import (
	"context"
	"time"

	"github.com/jmvillanueva/grandline/internal/auth"
	"github.com/jmvillanueva/grandline/internal/identity"
	"github.com/jmvillanueva/grandline/internal/model"
)

// GatewaySession はidentity.Gatewayとauth.Serviceを1リクエスト分束ねるアダプタ。
// 入力検証を伴う操作はauth.Serviceを経由し、セッション復元とトークン参照は
// ゲートウェイを直接使用する。
type GatewaySession struct {
	gateway *identity.Gateway
	service *auth.Service
}

// NewGatewaySessionFactory はリクエストごとに新しいGatewaySessionを生成する
// ファクトリを返す。プロバイダーとプロフィールストアは全リクエストで共有される。
func NewGatewaySessionFactory(provider identity.Provider, profiles identity.ProfileStore) AuthSessionFactory {
	return func() AuthSessionService {
		gateway := identity.NewGateway(provider, profiles)
		return &GatewaySession{
			gateway: gateway,
			service: auth.NewService(auth.NewGatewayRepository(gateway)),
		}
	}
}

// Register は入力検証付きで新規アカウントを登録する。
func (s *GatewaySession) Register(ctx context.Context, email, password, displayName string) (*model.User, error) {
	return s.service.Register(ctx, email, password, displayName)
}

// Login は入力検証付きで認証し、セッションを開始する。
func (s *GatewaySession) Login(ctx context.Context, email, password string) (*model.User, error) {
	return s.service.Login(ctx, email, password)
}

// UpdateProfile は表示名を更新する。
func (s *GatewaySession) UpdateProfile(ctx context.Context, userID, displayName string) (*model.User, error) {
	return s.service.UpdateProfile(ctx, userID, displayName)
}

// SendPasswordResetEmail はパスワード再設定メールの送信を要求する。
func (s *GatewaySession) SendPasswordResetEmail(ctx context.Context, email string) error {
	return s.service.SendPasswordResetEmail(ctx, email)
}

// Restore は永続化されたセッションからセッション状態を再構築する。
func (s *GatewaySession) Restore(ctx context.Context, session *model.Session) (*model.User, error) {
	return s.gateway.Restore(ctx, session)
}

// SessionTokens は現在のセッショントークンを返す。
func (s *GatewaySession) SessionTokens() (idToken, refreshToken string, expiresAt time.Time) {
	creds := s.gateway.Session()
	return creds.IDToken, creds.RefreshToken, creds.ExpiresAt
}

// compile-time interface check
var _ AuthSessionService = (*GatewaySession)(nil)
