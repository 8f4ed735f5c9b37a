package downstream

import (
	"errors"
	"fmt"
)

// ErrBackendUnavailable はバックエンドへの呼び出しが失敗したことを表す。
// 接続失敗、タイムアウト、2xx以外の応答、デコード失敗をすべて含む。
var ErrBackendUnavailable = errors.New("backend unavailable")

// Outcome は呼び出し結果の種類。
type Outcome int

const (
	// OutcomeOK はバックエンドが正常に応答したことを表す。
	OutcomeOK Outcome = iota
	// OutcomeFallback はフォールバック値に置き換えられたことを表す。
	OutcomeFallback
	// OutcomeFailed は結果が得られなかったことを表す。
	OutcomeFailed
)

// String はOutcomeの文字列表現を返す。
func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeFallback:
		return "fallback"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result はバックエンド呼び出しの結果。
type Result[T any] struct {
	// Value は取得した値またはフォールバック値。Failedの場合はゼロ値。
	Value T
	// Outcome は結果の種類。
	Outcome Outcome
	// Err はFallback/Failedの原因。Okの場合はnil。
	Err error
}

// Ok は正常応答の結果を生成する。
func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v, Outcome: OutcomeOK}
}

// Degraded はフォールバック値による結果を生成する。
func Degraded[T any](v T, cause error) Result[T] {
	return Result[T]{Value: v, Outcome: OutcomeFallback, Err: cause}
}

// Failed は失敗の結果を生成する。
func Failed[T any](err error) Result[T] {
	return Result[T]{Outcome: OutcomeFailed, Err: err}
}

// IsOK は正常応答かどうかを返す。
func (r Result[T]) IsOK() bool { return r.Outcome == OutcomeOK }

// IsFallback はフォールバック値かどうかを返す。
func (r Result[T]) IsFallback() bool { return r.Outcome == OutcomeFallback }

// IsFailed は失敗かどうかを返す。
func (r Result[T]) IsFailed() bool { return r.Outcome == OutcomeFailed }

// Get は値を返す。Failedの場合はエラーを返す。
// OkとFallbackは呼び出し元から同じように扱える。
func (r Result[T]) Get() (T, error) {
	if r.Outcome == OutcomeFailed {
		var zero T
		return zero, r.Err
	}
	return r.Value, nil
}
