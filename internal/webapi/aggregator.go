package webapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/edgegate/pkg/downstream"
)

// ErrItemNotFound は要求されたアイテムが存在しないことを表す。
var ErrItemNotFound = errors.New("アイテムが見つかりません")

// ItemsSource はアイテムの取得元。
type ItemsSource interface {
	List(ctx context.Context) downstream.Result[[]Item]
	Get(ctx context.Context, id int64) downstream.Result[*Item]
}

// ReviewsSource はレビューの取得元。
type ReviewsSource interface {
	List(ctx context.Context, reviewType string) downstream.Result[[]Review]
	ListFor(ctx context.Context, reviewType string, typeID int64) downstream.Result[[]Review]
}

// Aggregator はアイテムとレビューを組み合わせる。
type Aggregator struct {
	items      ItemsSource
	reviews    ReviewsSource
	reviewType string
	logger     *slog.Logger
}

// NewAggregator は新しいAggregatorを生成する。
func NewAggregator(items ItemsSource, reviews ReviewsSource, reviewType string, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{items: items, reviews: reviews, reviewType: reviewType, logger: logger}
}

// GetAll はすべてのアイテムを、それぞれのレビューと組にして返す。
// itemsとreviewsは並行に取得する。片方が劣化してもエラーにはならない。
// 片方が失敗した場合はもう片方の呼び出しもキャンセルする。
func (a *Aggregator) GetAll(ctx context.Context) ([]AggregatedItem, error) {
	var (
		items   downstream.Result[[]Item]
		reviews downstream.Result[[]Review]
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items = a.items.List(gctx)
		if _, err := items.Get(); err != nil {
			return fmt.Errorf("アイテム一覧の取得に失敗: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		reviews = a.reviews.List(gctx, a.reviewType)
		if _, err := reviews.Get(); err != nil {
			return fmt.Errorf("レビュー一覧の取得に失敗: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	a.logOutcome(ctx, "getAll", items.Outcome, reviews.Outcome)

	return Aggregate(items.Value, reviews.Value), nil
}

// GetOne はアイテム1件とそのレビューを返す。
// アイテムが存在しない場合（empty方針での劣化を含む）はErrItemNotFoundを返す。
func (a *Aggregator) GetOne(ctx context.Context, id int64) (AggregatedItem, error) {
	var (
		item    downstream.Result[*Item]
		reviews downstream.Result[[]Review]
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		item = a.items.Get(gctx, id)
		if _, err := item.Get(); err != nil {
			return fmt.Errorf("アイテムの取得に失敗: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		reviews = a.reviews.ListFor(gctx, a.reviewType, id)
		if _, err := reviews.Get(); err != nil {
			return fmt.Errorf("レビューの取得に失敗: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return AggregatedItem{}, err
	}
	a.logOutcome(ctx, "getOne", item.Outcome, reviews.Outcome)

	if item.Value == nil {
		return AggregatedItem{}, fmt.Errorf("id=%d: %w", id, ErrItemNotFound)
	}
	reviewList := reviews.Value
	if reviewList == nil {
		reviewList = []Review{}
	}
	return AggregatedItem{Item: *item.Value, Reviews: reviewList}, nil
}

// logOutcome は劣化した呼び出しがあった場合に記録する。
func (a *Aggregator) logOutcome(ctx context.Context, op string, items, reviews downstream.Outcome) {
	if items == downstream.OutcomeOK && reviews == downstream.OutcomeOK {
		return
	}
	a.logger.InfoContext(ctx, "劣化した結果で応答します", "op", op, "items", items.String(), "reviews", reviews.String())
}

// Aggregate は各アイテムに、typeIdがアイテムのIDと一致するレビューを元の順序のまま組み合わせる。
// itemsがnilでも空のスライスを返し、各要素のReviewsもnilにならない。
func Aggregate(items []Item, reviews []Review) []AggregatedItem {
	out := make([]AggregatedItem, 0, len(items))
	for _, it := range items {
		matched := []Review{}
		for _, r := range reviews {
			if r.TypeID == it.ID {
				matched = append(matched, r)
			}
		}
		out = append(out, AggregatedItem{Item: it, Reviews: matched})
	}
	return out
}
