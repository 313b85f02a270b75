// Package auth は認証ユースケースとセッションリポジトリを提供する。
package auth

import (
	"context"

	"github.com/jmvillanueva/grandline/internal/identity"
	"github.com/jmvillanueva/grandline/internal/model"
)

// Repository はセッション操作の抽象化インターフェース。
// 上位層（ユースケース、状態マネージャ）が具体的なプロバイダー実装に
// 依存しないための純粋な委譲であり、ロジックは一切持たない。
type Repository interface {
	Register(ctx context.Context, email, password, displayName string) (*model.User, error)
	Login(ctx context.Context, email, password string) (*model.User, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) *model.User
	UpdateProfile(ctx context.Context, userID, displayName string) (*model.User, error)
	SendPasswordResetEmail(ctx context.Context, email string) error
	OnAuthStateChanged(callback func(user *model.User)) (unsubscribe func())
}

// GatewayRepository はidentity.Gatewayへの委譲によるRepository実装。
type GatewayRepository struct {
	gateway *identity.Gateway
}

// NewGatewayRepository はGatewayRepositoryを生成する。
func NewGatewayRepository(gateway *identity.Gateway) *GatewayRepository {
	return &GatewayRepository{gateway: gateway}
}

func (r *GatewayRepository) Register(ctx context.Context, email, password, displayName string) (*model.User, error) {
	return r.gateway.Register(ctx, email, password, displayName)
}

func (r *GatewayRepository) Login(ctx context.Context, email, password string) (*model.User, error) {
	return r.gateway.Login(ctx, email, password)
}

func (r *GatewayRepository) Logout(ctx context.Context) error {
	return r.gateway.Logout(ctx)
}

func (r *GatewayRepository) CurrentUser(ctx context.Context) *model.User {
	return r.gateway.CurrentUser(ctx)
}

func (r *GatewayRepository) UpdateProfile(ctx context.Context, userID, displayName string) (*model.User, error) {
	return r.gateway.UpdateProfile(ctx, userID, displayName)
}

func (r *GatewayRepository) SendPasswordResetEmail(ctx context.Context, email string) error {
	return r.gateway.SendPasswordResetEmail(ctx, email)
}

func (r *GatewayRepository) OnAuthStateChanged(callback func(user *model.User)) (unsubscribe func()) {
	return r.gateway.OnAuthStateChanged(callback)
}

// compile-time interface check
var _ Repository = (*GatewayRepository)(nil)
