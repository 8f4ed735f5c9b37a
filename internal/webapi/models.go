package webapi

// Item はitemsサービスが返すアイテム。
type Item struct {
	// ID はアイテムの識別子。
	ID int64 `json:"id"`
	// Name はアイテム名。
	Name string `json:"name"`
	// ServiceAddress は応答したインスタンスのアドレス。
	ServiceAddress string `json:"serviceAddress,omitempty"`
}

// Review はreviewsサービスが返すレビュー。
type Review struct {
	// ID はレビューの識別子。
	ID int64 `json:"id"`
	// Type はレビュー対象の種別（例: "item"）。
	Type string `json:"type"`
	// TypeID はレビュー対象の識別子。アイテムのレビューではItem.IDと一致する。
	TypeID int64 `json:"typeId"`
	// Rating は評価値。
	Rating int `json:"rating"`
	// RatingMin は評価値の下限。
	RatingMin int `json:"ratingMin"`
	// RatingMax は評価値の上限。
	RatingMax int `json:"ratingMax"`
	// Comment はコメント。
	Comment string `json:"comment"`
	// ServiceAddress は応答したインスタンスのアドレス。
	ServiceAddress string `json:"serviceAddress,omitempty"`
}

// AggregatedItem はアイテムとそのレビューの組。
// Reviewsはnilにならない（JSONでは常に配列になる）。
type AggregatedItem struct {
	Item    Item     `json:"item"`
	Reviews []Review `json:"reviews"`
}
