package downstream

import "fmt"

// Policy はフォールバック値の選択方針。デプロイごとに設定で選ぶ。
type Policy string

const (
	// PolicyStub は固定の番兵値を返す方針。
	PolicyStub Policy = "stub"
	// PolicyEmpty は空のコレクションや値なしを返す方針。
	PolicyEmpty Policy = "empty"
)

// ParsePolicy は文字列をPolicyに変換する。
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyStub, PolicyEmpty:
		return Policy(s), nil
	default:
		return "", fmt.Errorf("不明なフォールバックポリシー: %q", s)
	}
}

// Fallback は劣化時の代替値を供給する関数。
// 呼び出しごとに新しい値を返すこと（呼び出し元が変更しても共有されない）。
type Fallback[T any] func() T

// Choose はポリシーに対応するフォールバック供給関数を返す。
func Choose[T any](p Policy, stub, empty Fallback[T]) (Fallback[T], error) {
	switch p {
	case PolicyStub:
		return stub, nil
	case PolicyEmpty:
		return empty, nil
	default:
		return nil, fmt.Errorf("不明なフォールバックポリシー: %q", p)
	}
}
