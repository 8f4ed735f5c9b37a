package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// testItem はテスト用のレスポンスペイロード。
type testItem struct {
	// ID はテスト用のIDフィールド。
	ID int64 `json:"id"`
	// Name はテスト用の名前フィールド。
	Name string `json:"name"`
}

// TestNew はNew関数とオプションを検証する。
func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("デフォルトのタイムアウトが30秒に設定されること", func(t *testing.T) {
		t.Parallel()

		client := New("http://localhost:8081")
		if client.BaseURL() != "http://localhost:8081" {
			t.Errorf("BaseURL() = %q, want %q", client.BaseURL(), "http://localhost:8081")
		}
		if client.httpClient.Timeout != DefaultTimeout {
			t.Errorf("Timeout = %v, want %v", client.httpClient.Timeout, DefaultTimeout)
		}
	})

	t.Run("WithTimeoutでタイムアウトを変更できること", func(t *testing.T) {
		t.Parallel()

		client := New("http://localhost:8081", WithTimeout(250*time.Millisecond))
		if client.httpClient.Timeout != 250*time.Millisecond {
			t.Errorf("Timeout = %v, want 250ms", client.httpClient.Timeout)
		}
	})

	t.Run("0以下のタイムアウトは無視されること", func(t *testing.T) {
		t.Parallel()

		client := New("http://localhost:8081", WithTimeout(0))
		if client.httpClient.Timeout != DefaultTimeout {
			t.Errorf("Timeout = %v, want %v", client.httpClient.Timeout, DefaultTimeout)
		}
	})
}

// TestGetJSON はGetJSON関数を検証する。
func TestGetJSON(t *testing.T) {
	t.Parallel()

	t.Run("レスポンスをデシリアライズできること", func(t *testing.T) {
		t.Parallel()

		var gotPath, gotAccept string
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotAccept = r.Header.Get("Accept")
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode([]testItem{{ID: 1, Name: "widget"}})
		}))
		defer ts.Close()

		var items []testItem
		if err := New(ts.URL).GetJSON(context.Background(), "/items", &items); err != nil {
			t.Fatalf("GetJSON()でエラーが発生: %v", err)
		}
		if gotPath != "/items" {
			t.Errorf("Path = %q, want %q", gotPath, "/items")
		}
		if gotAccept != "application/json" {
			t.Errorf("Accept = %q, want application/json", gotAccept)
		}
		if len(items) != 1 || items[0].Name != "widget" {
			t.Errorf("items = %+v", items)
		}
	})

	t.Run("404の場合はStatusErrorが返ること", func(t *testing.T) {
		t.Parallel()

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`"Failed to find item with id: 7"`))
		}))
		defer ts.Close()

		var item testItem
		err := New(ts.URL).GetJSON(context.Background(), "/items/7", &item)
		if !IsStatus(err, http.StatusNotFound) {
			t.Fatalf("404のStatusErrorが返るべき: %v", err)
		}
		var se *StatusError
		if !errors.As(err, &se) || se.Body == "" {
			t.Errorf("StatusErrorにボディが含まれていない: %v", err)
		}
	})

	t.Run("不正なJSONレスポンスでエラーが返ること", func(t *testing.T) {
		t.Parallel()

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{invalid json}`))
		}))
		defer ts.Close()

		var item testItem
		if err := New(ts.URL).GetJSON(context.Background(), "/items/1", &item); err == nil {
			t.Fatal("GetJSON()がエラーを返すべきだが、nilが返った")
		}
	})

	t.Run("接続できないサーバーに対してエラーが返ること", func(t *testing.T) {
		t.Parallel()

		var item testItem
		err := New("http://127.0.0.1:1").GetJSON(context.Background(), "/items/1", &item)
		if err == nil {
			t.Fatal("GetJSON()がエラーを返すべきだが、nilが返った")
		}
		if IsStatus(err, http.StatusNotFound) {
			t.Error("接続エラーがStatusErrorとして扱われている")
		}
	})

	t.Run("タイムアウトした場合にエラーが返ること", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer ts.Close()
		defer close(release)

		var item testItem
		err := New(ts.URL, WithTimeout(50*time.Millisecond)).GetJSON(context.Background(), "/items/1", &item)
		if err == nil {
			t.Fatal("GetJSON()がエラーを返すべきだが、nilが返った")
		}
	})
}

// TestPostJSON はPostJSON関数を検証する。
func TestPostJSON(t *testing.T) {
	t.Parallel()

	t.Run("JSONボディを送信してレスポンスを取得できること", func(t *testing.T) {
		t.Parallel()

		var gotMethod, gotContentType string
		var gotBody testItem
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotMethod = r.Method
			gotContentType = r.Header.Get("Content-Type")
			b, _ := io.ReadAll(r.Body)
			json.Unmarshal(b, &gotBody)
			json.NewEncoder(w).Encode(testItem{ID: 10, Name: gotBody.Name})
		}))
		defer ts.Close()

		var result testItem
		err := New(ts.URL).PostJSON(context.Background(), "/reviews", testItem{Name: "great"}, &result)
		if err != nil {
			t.Fatalf("PostJSON()でエラーが発生: %v", err)
		}
		if gotMethod != http.MethodPost {
			t.Errorf("Method = %q, want POST", gotMethod)
		}
		if gotContentType != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", gotContentType)
		}
		if result.ID != 10 || result.Name != "great" {
			t.Errorf("result = %+v", result)
		}
	})

	t.Run("シリアライズできないボディでエラーが返ること", func(t *testing.T) {
		t.Parallel()

		err := New("http://127.0.0.1:1").PostJSON(context.Background(), "/reviews", make(chan int), nil)
		if err == nil {
			t.Fatal("PostJSON()がエラーを返すべきだが、nilが返った")
		}
	})

	t.Run("キャンセルされたコンテキストでエラーが返ること", func(t *testing.T) {
		t.Parallel()

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer ts.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := New(ts.URL).PostJSON(ctx, "/reviews", testItem{}, nil)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("context.Canceledが返るべき: %v", err)
		}
	})
}

// TestDelete はDelete関数を検証する。
func TestDelete(t *testing.T) {
	t.Parallel()

	var gotMethod, gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	if err := New(ts.URL).Delete(context.Background(), "/reviews/3"); err != nil {
		t.Fatalf("Delete()でエラーが発生: %v", err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/reviews/3" {
		t.Errorf("got %s %s, want DELETE /reviews/3", gotMethod, gotPath)
	}
}

// TestPropagation はコンテキストの相関情報がヘッダーに伝播されることを検証する。
func TestPropagation(t *testing.T) {
	t.Parallel()

	t.Run("ユーザーID・リクエストID・トークンが伝播されること", func(t *testing.T) {
		t.Parallel()

		var got http.Header
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = r.Header.Clone()
			w.Write([]byte(`[]`))
		}))
		defer ts.Close()

		ctx := WithUserID(context.Background(), "admin")
		ctx = WithRequestID(ctx, "req-123")
		ctx = WithBearerToken(ctx, "token-abc")

		var items []testItem
		if err := New(ts.URL).GetJSON(ctx, "/items", &items); err != nil {
			t.Fatalf("GetJSON()でエラーが発生: %v", err)
		}
		if got.Get(HeaderUserID) != "admin" {
			t.Errorf("X-User-ID = %q, want admin", got.Get(HeaderUserID))
		}
		if got.Get(HeaderRequestID) != "req-123" {
			t.Errorf("X-Request-ID = %q, want req-123", got.Get(HeaderRequestID))
		}
		if got.Get("Authorization") != "Bearer token-abc" {
			t.Errorf("Authorization = %q, want Bearer token-abc", got.Get("Authorization"))
		}
		if RequestIDFrom(ctx) != "req-123" {
			t.Errorf("RequestIDFrom() = %q, want req-123", RequestIDFrom(ctx))
		}
	})

	t.Run("設定されていない場合はヘッダーが付与されないこと", func(t *testing.T) {
		t.Parallel()

		var got http.Header
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = r.Header.Clone()
			w.Write([]byte(`[]`))
		}))
		defer ts.Close()

		var items []testItem
		if err := New(ts.URL).GetJSON(context.Background(), "/items", &items); err != nil {
			t.Fatalf("GetJSON()でエラーが発生: %v", err)
		}
		for _, h := range []string{HeaderUserID, HeaderRequestID, "Authorization"} {
			if _, ok := got[http.CanonicalHeaderKey(h)]; ok {
				t.Errorf("%sヘッダーが設定されている", h)
			}
		}
	})
}
