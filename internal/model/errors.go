// Package model はドメインモデルを定義する。
package model

import "fmt"

// 認証エラーは3種類に分類される:
//   - EmailAlreadyExistsError: 登録時にメールアドレスが使用済み
//   - InvalidEmailError: メールアドレスの形式不正
//   - それ以外: メッセージを保持する汎用エラー
//
// 区別された2種類は呼び出し側がerrors.Asで分岐し、UI上で
// 「ログインに切り替える」等の導線を出すために存在する。
// ネットワーク障害、パスワード誤り、レート制限等はすべて汎用エラーに集約する。

// EmailAlreadyExistsError は登録しようとしたメールアドレスが既に使用されていることを表す。
type EmailAlreadyExistsError struct {
	Message string
}

// Error はerrorインターフェースを実装する。
func (e *EmailAlreadyExistsError) Error() string {
	if e.Message == "" {
		return "このメールアドレスは既に使用されています"
	}
	return e.Message
}

// NewEmailAlreadyExistsError はEmailAlreadyExistsErrorを生成する。
func NewEmailAlreadyExistsError(message string) *EmailAlreadyExistsError {
	return &EmailAlreadyExistsError{Message: message}
}

// InvalidEmailError はメールアドレスの形式が不正であることを表す。
type InvalidEmailError struct {
	Message string
}

// Error はerrorインターフェースを実装する。
func (e *InvalidEmailError) Error() string {
	if e.Message == "" {
		return "メールアドレスの形式が正しくありません"
	}
	return e.Message
}

// NewInvalidEmailError はInvalidEmailErrorを生成する。
func NewInvalidEmailError(message string) *InvalidEmailError {
	return &InvalidEmailError{Message: message}
}

// APIError はHTTP APIの統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, catalog, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeEmailAlreadyExists = "EMAIL_ALREADY_EXISTS"
	ErrCodeInvalidEmail       = "INVALID_EMAIL"
	ErrCodeAuthFailed         = "AUTH_FAILED"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeValidationFailed   = "VALIDATION_FAILED"
	ErrCodeCharacterNotFound  = "CHARACTER_NOT_FOUND"
	ErrCodeFruitNotFound      = "FRUIT_NOT_FOUND"
	ErrCodeInvalidFruitType   = "INVALID_FRUIT_TYPE"
	ErrCodeCatalogUnavailable = "CATALOG_UNAVAILABLE"
)

// NewEmailAlreadyExistsAPIError はメールアドレス重複のAPIエラーを生成する。
func NewEmailAlreadyExistsAPIError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeEmailAlreadyExists,
		Message:  message,
		Category: "auth",
		Action:   "登録済みのメールアドレスです。ログインをお試しください。",
	}
}

// NewInvalidEmailAPIError はメールアドレス形式不正のAPIエラーを生成する。
func NewInvalidEmailAPIError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidEmail,
		Message:  message,
		Category: "validation",
		Action:   "メールアドレスの形式を確認してください。",
	}
}

// NewAuthFailedAPIError は認証操作の失敗を表すAPIエラーを生成する。
func NewAuthFailedAPIError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeAuthFailed,
		Message:  message,
		Category: "auth",
		Action:   "入力内容を確認し、再度お試しください。",
	}
}

// NewUnauthorizedAPIError は未認証リクエストのAPIエラーを生成する。
func NewUnauthorizedAPIError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証されていません。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewCharacterNotFoundAPIError はキャラクター未検出のAPIエラーを生成する。
func NewCharacterNotFoundAPIError(id int) *APIError {
	return &APIError{
		Code:     ErrCodeCharacterNotFound,
		Message:  fmt.Sprintf("指定されたキャラクターが見つかりません: %d", id),
		Category: "catalog",
		Action:   "キャラクターIDを確認してください。",
	}
}

// NewFruitNotFoundAPIError は悪魔の実未検出のAPIエラーを生成する。
func NewFruitNotFoundAPIError(id int) *APIError {
	return &APIError{
		Code:     ErrCodeFruitNotFound,
		Message:  fmt.Sprintf("指定された悪魔の実が見つかりません: %d", id),
		Category: "catalog",
		Action:   "IDを確認してください。",
	}
}

// NewInvalidFruitTypeAPIError は無効な系統指定のAPIエラーを生成する。
func NewInvalidFruitTypeAPIError(t string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidFruitType,
		Message:  fmt.Sprintf("無効な系統です: %s", t),
		Category: "validation",
		Action:   "系統には Paramecia、Zoan、Logia のいずれかを指定してください。",
	}
}

// NewCatalogUnavailableAPIError はカタログAPIへの到達失敗を表すAPIエラーを生成する。
func NewCatalogUnavailableAPIError() *APIError {
	return &APIError{
		Code:     ErrCodeCatalogUnavailable,
		Message:  "カタログデータを取得できませんでした。",
		Category: "catalog",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
