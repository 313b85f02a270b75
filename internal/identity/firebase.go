package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAccountsURL = "https://identitytoolkit.googleapis.com/v1/accounts"
	defaultTokenURL    = "https://securetoken.googleapis.com/v1/token"

	// maxResponseSize はプロバイダーレスポンスの読み取り上限。
	maxResponseSize = 1 << 20 // 1MB
)

// FirebaseConfig はFirebase Identity Toolkitプロバイダーの設定。
type FirebaseConfig struct {
	APIKey string

	// テスト用にオーバーライド可能なURL
	AccountsURL string
	TokenURL    string

	// HTTPClient が未指定の場合は10秒タイムアウトのクライアントを使用する。
	HTTPClient *http.Client
}

// FirebaseProvider はFirebase Identity Toolkit REST APIによる認証を提供する。
type FirebaseProvider struct {
	config     FirebaseConfig
	httpClient *http.Client
}

// NewFirebaseProvider はFirebaseProviderを生成する。
func NewFirebaseProvider(config FirebaseConfig) *FirebaseProvider {
	if config.AccountsURL == "" {
		config.AccountsURL = defaultAccountsURL
	}
	if config.TokenURL == "" {
		config.TokenURL = defaultTokenURL
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &FirebaseProvider{config: config, httpClient: httpClient}
}

// signUpResponse はaccounts:signUpエンドポイントのレスポンス。
type signUpResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

// signInResponse はaccounts:signInWithPasswordエンドポイントのレスポンス。
type signInResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

// lookupResponse はaccounts:lookupエンドポイントのレスポンス。
type lookupResponse struct {
	Users []struct {
		LocalID     string `json:"localId"`
		Email       string `json:"email"`
		DisplayName string `json:"displayName"`
		CreatedAt   string `json:"createdAt"` // epochミリ秒の文字列
	} `json:"users"`
}

// refreshResponse はトークン更新エンドポイントのレスポンス。
// securetokenエンドポイントのみsnake_caseを使用する。
type refreshResponse struct {
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    string `json:"expires_in"`
	UserID       string `json:"user_id"`
}

// faultResponse はエラーレスポンスの共通フォーマット。
type faultResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// SignUp はメールアドレスとパスワードで新規アカウントを作成する。
func (p *FirebaseProvider) SignUp(ctx context.Context, email, password string) (*AuthResult, error) {
	payload := map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}

	var resp signUpResponse
	if err := p.post(ctx, p.endpoint("signUp"), payload, &resp); err != nil {
		return nil, err
	}
	if resp.IDToken == "" || resp.LocalID == "" {
		return nil, fmt.Errorf("signUp response missing idToken or localId")
	}

	now := time.Now()
	return &AuthResult{
		Account: Account{
			UID:       resp.LocalID,
			Email:     resp.Email,
			CreatedAt: now,
		},
		Credentials: Credentials{
			IDToken:      resp.IDToken,
			RefreshToken: resp.RefreshToken,
			ExpiresAt:    now.Add(parseExpiresIn(resp.ExpiresIn)),
		},
	}, nil
}

// SignInWithPassword はメールアドレスとパスワードで認証する。
func (p *FirebaseProvider) SignInWithPassword(ctx context.Context, email, password string) (*AuthResult, error) {
	payload := map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}

	var resp signInResponse
	if err := p.post(ctx, p.endpoint("signInWithPassword"), payload, &resp); err != nil {
		return nil, err
	}
	if resp.IDToken == "" || resp.LocalID == "" {
		return nil, fmt.Errorf("signInWithPassword response missing idToken or localId")
	}

	now := time.Now()
	return &AuthResult{
		Account: Account{
			UID:         resp.LocalID,
			Email:       resp.Email,
			DisplayName: resp.DisplayName,
		},
		Credentials: Credentials{
			IDToken:      resp.IDToken,
			RefreshToken: resp.RefreshToken,
			ExpiresAt:    now.Add(parseExpiresIn(resp.ExpiresIn)),
		},
	}, nil
}

// UpdateAccount は認証済みアカウントの表示名を更新する。
func (p *FirebaseProvider) UpdateAccount(ctx context.Context, idToken, displayName string) error {
	payload := map[string]any{
		"idToken":           idToken,
		"displayName":       displayName,
		"returnSecureToken": false,
	}

	var resp struct{}
	return p.post(ctx, p.endpoint("update"), payload, &resp)
}

// Lookup はIDトークンに対応するアカウント情報を取得する。
func (p *FirebaseProvider) Lookup(ctx context.Context, idToken string) (*Account, error) {
	payload := map[string]any{
		"idToken": idToken,
	}

	var resp lookupResponse
	if err := p.post(ctx, p.endpoint("lookup"), payload, &resp); err != nil {
		return nil, err
	}
	if len(resp.Users) == 0 {
		return nil, fmt.Errorf("lookup response contains no users")
	}

	u := resp.Users[0]
	acct := &Account{
		UID:         u.LocalID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
	}
	if ms, err := strconv.ParseInt(u.CreatedAt, 10, 64); err == nil && ms > 0 {
		acct.CreatedAt = time.UnixMilli(ms)
	}
	return acct, nil
}

// SendPasswordResetEmail はパスワード再設定メールの送信を要求する。
func (p *FirebaseProvider) SendPasswordResetEmail(ctx context.Context, email string) error {
	payload := map[string]any{
		"requestType": "PASSWORD_RESET",
		"email":       email,
	}

	var resp struct{}
	return p.post(ctx, p.endpoint("sendOobCode"), payload, &resp)
}

// RefreshIDToken はリフレッシュトークンで新しいIDトークンを取得する。
// トークン更新エンドポイントのみフォームエンコードを要求する。
func (p *FirebaseProvider) RefreshIDToken(ctx context.Context, refreshToken string) (*Credentials, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}

	reqURL := p.config.TokenURL + "?key=" + url.QueryEscape(p.config.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := p.do(req)
	if err != nil {
		return nil, err
	}

	var resp refreshResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse refresh response: %w", err)
	}
	if resp.IDToken == "" {
		return nil, fmt.Errorf("empty id_token in refresh response")
	}

	return &Credentials{
		IDToken:      resp.IDToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    time.Now().Add(parseExpiresIn(resp.ExpiresIn)),
	}, nil
}

// endpoint はaccounts APIのエンドポイントURLを構築する。
func (p *FirebaseProvider) endpoint(op string) string {
	return p.config.AccountsURL + ":" + op + "?key=" + url.QueryEscape(p.config.APIKey)
}

// post はJSONリクエストを送信し、レスポンスをoutにデコードする。
func (p *FirebaseProvider) post(ctx context.Context, reqURL string, payload any, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := p.do(req)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse provider response: %w", err)
	}
	return nil
}

// do はリクエストを実行し、成功時はレスポンスボディを返す。
// エラーステータスの場合はエラーコードを正規化した*FaultErrorを返す。
func (p *FirebaseProvider) do(req *http.Request) ([]byte, error) {
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read provider response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var fault faultResponse
		if err := json.Unmarshal(body, &fault); err == nil && fault.Error.Message != "" {
			return nil, &FaultError{
				Code:       normalizeFaultCode(fault.Error.Message),
				StatusCode: resp.StatusCode,
			}
		}
		return nil, fmt.Errorf("provider returned status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// normalizeFaultCode はエラーコードを正規化する。
// "WEAK_PASSWORD : Password should be at least 6 characters" のように
// 説明文が付随する形式からコード部分のみを取り出す。
func normalizeFaultCode(message string) string {
	code, _, _ := strings.Cut(message, ":")
	return strings.TrimSpace(code)
}

// parseExpiresIn は秒数文字列をDurationに変換する。
// パース不能な場合はデフォルトの1時間を返す。
func parseExpiresIn(s string) time.Duration {
	secs, err := strconv.ParseInt(s, 10, 64)
	if err != nil || secs <= 0 {
		return time.Hour
	}
	return time.Duration(secs) * time.Second
}

// compile-time interface check
var _ Provider = (*FirebaseProvider)(nil)
