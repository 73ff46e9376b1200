// Package security はアプリケーションのセキュリティ機能を提供する。
//
// DisplaySanitizerService は学生向けコンポーネントが書き込んだ予約の
// 表示用フィールド（学生名・メールアドレス）をダッシュボードに返す前に
// サニタイズする。bluemondayのStrictPolicyですべてのマークアップを
// 除去し、プレーンテキストのみを通過させる。
package security

import (
	"html"

	"github.com/microcosm-cc/bluemonday"
)

// DisplaySanitizerService は表示用テキストのサニタイズ機能のインターフェースを定義する。
type DisplaySanitizerService interface {
	// Sanitize は入力からすべてのHTMLマークアップを除去したプレーンテキストを返す。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// displaySanitizer はDisplaySanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type displaySanitizer struct {
	policy *bluemonday.Policy
}

// NewDisplaySanitizer はDisplaySanitizerServiceの新しいインスタンスを生成する。
// StrictPolicy（全タグ除去）を使用する。予約の表示フィールドは
// プレーンテキストであるべきで、マークアップを許可する理由がない。
func NewDisplaySanitizer() *displaySanitizer {
	return &displaySanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は入力からすべてのHTMLマークアップを除去したプレーンテキストを返す。
// StrictPolicyはエンティティ化した出力を返すため、テキストとして
// 扱えるようアンエスケープして返す。
func (s *displaySanitizer) Sanitize(raw string) string {
	if raw == "" {
		return ""
	}
	return html.UnescapeString(s.policy.Sanitize(raw))
}

// compile-time interface check
var _ DisplaySanitizerService = (*displaySanitizer)(nil)
