package webapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/nao1215/edgegate/pkg/downstream"
	"github.com/nao1215/edgegate/pkg/httpclient"
)

// stubItemName はitemsサービスの番兵アイテムの名前。
const stubItemName = "ken"

// stubItem は番兵アイテムを返す。
func stubItem() Item {
	return Item{ID: 0, Name: stubItemName}
}

// ItemsClient はitemsサービスのクライアント。
type ItemsClient struct {
	list *downstream.Endpoint[[]Item]
	one  *downstream.Endpoint[*Item]
}

// NewItemsClient は新しいItemsClientを生成する。
// stub方針では番兵アイテム、empty方針では空の一覧と値なしをフォールバック値とする。
func NewItemsClient(client *httpclient.Client, timeout time.Duration, policy downstream.Policy, logger *slog.Logger) (*ItemsClient, error) {
	listFallback, err := downstream.Choose[[]Item](policy,
		func() []Item { return []Item{stubItem()} },
		func() []Item { return []Item{} },
	)
	if err != nil {
		return nil, err
	}
	oneFallback, err := downstream.Choose[*Item](policy,
		func() *Item { it := stubItem(); return &it },
		func() *Item { return nil },
	)
	if err != nil {
		return nil, err
	}

	return &ItemsClient{
		list: downstream.NewEndpoint(downstream.EndpointConfig[[]Item]{
			Name: "items.list", Client: client, Timeout: timeout, Fallback: listFallback, Logger: logger,
		}),
		one: downstream.NewEndpoint(downstream.EndpointConfig[*Item]{
			Name: "items.get", Client: client, Timeout: timeout, Fallback: oneFallback, Logger: logger,
		}),
	}, nil
}

// List はアイテムの一覧を取得する。
func (c *ItemsClient) List(ctx context.Context) downstream.Result[[]Item] {
	return c.list.Get(ctx, "/items")
}

// Get はアイテムを1件取得する。
// itemsサービスが404を返した場合は値なしのOkとする。
func (c *ItemsClient) Get(ctx context.Context, id int64) downstream.Result[*Item] {
	res := c.one.Get(ctx, "/items/"+strconv.FormatInt(id, 10))
	if res.IsFallback() && httpclient.IsStatus(res.Err, http.StatusNotFound) {
		return downstream.Ok[*Item](nil)
	}
	return res
}

// ReviewsClient はreviewsサービスのクライアント。
type ReviewsClient struct {
	client  *httpclient.Client
	timeout time.Duration
	list    *downstream.Endpoint[[]Review]
}

// NewReviewsClient は新しいReviewsClientを生成する。
// reviewsの番兵値は空の一覧であり、どちらの方針でも空の一覧を返す。
func NewReviewsClient(client *httpclient.Client, timeout time.Duration, policy downstream.Policy, logger *slog.Logger) (*ReviewsClient, error) {
	empty := func() []Review { return []Review{} }
	fallback, err := downstream.Choose[[]Review](policy, empty, empty)
	if err != nil {
		return nil, err
	}
	return &ReviewsClient{
		client:  client,
		timeout: timeout,
		list: downstream.NewEndpoint(downstream.EndpointConfig[[]Review]{
			Name: "reviews.list", Client: client, Timeout: timeout, Fallback: fallback, Logger: logger,
		}),
	}, nil
}

// List は種別に属するすべてのレビューを取得する。
func (c *ReviewsClient) List(ctx context.Context, reviewType string) downstream.Result[[]Review] {
	return c.list.Get(ctx, "/reviews/"+url.PathEscape(reviewType))
}

// ListFor は種別と対象IDに属するレビューを取得する。
func (c *ReviewsClient) ListFor(ctx context.Context, reviewType string, typeID int64) downstream.Result[[]Review] {
	return c.list.Get(ctx, "/reviews/"+url.PathEscape(reviewType)+"/"+strconv.FormatInt(typeID, 10))
}

// Create はレビューを作成し、作成されたレビューを返す。
// フォールバックは行わない。
func (c *ReviewsClient) Create(ctx context.Context, r Review) (Review, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var created Review
	if err := c.client.PostJSON(ctx, "/reviews", r, &created); err != nil {
		return Review{}, fmt.Errorf("レビューの作成に失敗: %w", err)
	}
	return created, nil
}

// Delete はレビューを削除する。フォールバックは行わない。
func (c *ReviewsClient) Delete(ctx context.Context, id int64) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if err := c.client.Delete(ctx, "/reviews/"+strconv.FormatInt(id, 10)); err != nil {
		return fmt.Errorf("レビューの削除に失敗: %w", err)
	}
	return nil
}

// withTimeout は呼び出し1回分のタイムアウトを設定する。
func (c *ReviewsClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}
