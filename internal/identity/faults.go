package identity

import (
	"errors"

	"github.com/jmvillanueva/grandline/internal/model"
)

// プロバイダーのエラーコードからエラー分類への変換は
// このファイルのマッピングテーブルに集約する。
// 分類は3種類: EmailAlreadyExistsError、InvalidEmailError、
// メッセージを保持する汎用エラー。

// faultKind はプロバイダーエラーの分類。
type faultKind int

const (
	faultGeneric faultKind = iota
	faultEmailExists
	faultInvalidEmail
)

// faultRule はエラーコード1件の変換先を表す。
type faultRule struct {
	kind    faultKind
	message string
}

// messageNetworkFailure はFaultError以外のエラー全般に使う汎用メッセージ。
const messageNetworkFailure = "通信に失敗しました。接続を確認して再度お試しください。"

// registerFaults はアカウント作成時のエラーコード変換テーブル。
var registerFaults = map[string]faultRule{
	"EMAIL_EXISTS": {
		kind:    faultEmailExists,
		message: "このメールアドレスは既に使用されています",
	},
	"INVALID_EMAIL": {
		kind:    faultInvalidEmail,
		message: "メールアドレスの形式が正しくありません",
	},
	"WEAK_PASSWORD": {
		kind:    faultGeneric,
		message: "パスワードは6文字以上で入力してください",
	},
	"OPERATION_NOT_ALLOWED": {
		kind:    faultGeneric,
		message: "メールアドレスとパスワードによる登録は現在利用できません",
	},
	"TOO_MANY_ATTEMPTS_TRY_LATER": {
		kind:    faultGeneric,
		message: "試行回数が多すぎます。しばらく待ってから再度お試しください",
	},
}

// loginFaults はサインイン時のエラーコード変換テーブル。
// アカウント未検出とパスワード誤りは意図的に同じメッセージに畳む。
var loginFaults = map[string]faultRule{
	"EMAIL_NOT_FOUND": {
		kind:    faultGeneric,
		message: "メールアドレスまたはパスワードが正しくありません",
	},
	"INVALID_PASSWORD": {
		kind:    faultGeneric,
		message: "メールアドレスまたはパスワードが正しくありません",
	},
	"INVALID_LOGIN_CREDENTIALS": {
		kind:    faultGeneric,
		message: "メールアドレスまたはパスワードが正しくありません",
	},
	"INVALID_EMAIL": {
		kind:    faultInvalidEmail,
		message: "メールアドレスの形式が正しくありません",
	},
	"USER_DISABLED": {
		kind:    faultGeneric,
		message: "このアカウントは無効化されています",
	},
	"TOO_MANY_ATTEMPTS_TRY_LATER": {
		kind:    faultGeneric,
		message: "試行回数が多すぎます。しばらく待ってから再度お試しください",
	},
}

// updateFaults はプロフィール更新時のエラーコード変換テーブル。
var updateFaults = map[string]faultRule{
	"CREDENTIAL_TOO_OLD_LOGIN_AGAIN": {
		kind:    faultGeneric,
		message: "セキュリティのため再ログインが必要です。ログインし直してから再度お試しください",
	},
	"TOKEN_EXPIRED": {
		kind:    faultGeneric,
		message: "セッションの有効期限が切れました。ログインし直してください",
	},
	"INVALID_ID_TOKEN": {
		kind:    faultGeneric,
		message: "セッションが無効です。ログインし直してください",
	},
	"USER_DISABLED": {
		kind:    faultGeneric,
		message: "このアカウントは無効化されています",
	},
}

// resetFaults はパスワード再設定メール送信時のエラーコード変換テーブル。
// 再設定メールでは形式不正も汎用エラーとして返す。
var resetFaults = map[string]faultRule{
	"EMAIL_NOT_FOUND": {
		kind:    faultGeneric,
		message: "このメールアドレスのアカウントが見つかりません",
	},
	"INVALID_EMAIL": {
		kind:    faultGeneric,
		message: "メールアドレスの形式が正しくありません",
	},
	"TOO_MANY_ATTEMPTS_TRY_LATER": {
		kind:    faultGeneric,
		message: "試行回数が多すぎます。しばらく待ってから再度お試しください",
	},
}

// translateFault はプロバイダーエラーを分類済みエラーに変換する。
// テーブルに無いコードとFaultError以外のエラーはすべて汎用エラーになる。
func translateFault(table map[string]faultRule, err error) error {
	var fault *FaultError
	if !errors.As(err, &fault) {
		return errors.New(messageNetworkFailure)
	}

	rule, ok := table[fault.Code]
	if !ok {
		return errors.New("認証処理に失敗しました。再度お試しください")
	}

	switch rule.kind {
	case faultEmailExists:
		return model.NewEmailAlreadyExistsError(rule.message)
	case faultInvalidEmail:
		return model.NewInvalidEmailError(rule.message)
	default:
		return errors.New(rule.message)
	}
}
