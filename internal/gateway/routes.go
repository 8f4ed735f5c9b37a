package gateway

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/nao1215/edgegate/pkg/config"
)

// Route は1サービスの転送先。
type Route struct {
	// ServiceID はパス先頭のサービスID。
	ServiceID string
	// Target は転送先のベースURL。
	Target *url.URL
	// StripPrefix がtrueの場合、サービスIDを取り除いたパスで転送する。
	StripPrefix bool
}

// URL は転送先URLの文字列表現を返す。
func (r Route) URL() string {
	return r.Target.String()
}

// TargetURL は受信したパスとクエリから転送先のURLを組み立てる。
// escapedPathはサービスIDを含む受信パス、restはサービスIDを除いた残りのパス。
func (r Route) TargetURL(escapedPath, rest, rawQuery string) string {
	path := escapedPath
	if r.StripPrefix {
		path = rest
	}
	if path == "" {
		path = "/"
	}

	u := strings.TrimSuffix(r.Target.String(), "/") + path
	if rawQuery != "" {
		u += "?" + rawQuery
	}
	return u
}

// RouteTable はサービスIDから転送先を引く表。起動後は変更されない。
type RouteTable struct {
	routes map[string]Route
}

// NewRouteTable は設定から転送先の表を生成する。
func NewRouteTable(cfg map[string]config.RouteConfig) (*RouteTable, error) {
	routes := make(map[string]Route, len(cfg))
	for id, rc := range cfg {
		u, err := url.Parse(rc.URL)
		if err != nil {
			return nil, fmt.Errorf("サービス %s の転送先URLが不正です: %w", id, err)
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("サービス %s の転送先URLが不正です: %s", id, rc.URL)
		}
		routes[id] = Route{ServiceID: id, Target: u, StripPrefix: rc.StripPrefix}
	}
	return &RouteTable{routes: routes}, nil
}

// Resolve はパスの先頭セグメントをサービスIDとして転送先を解決する。
// 転送先が見つからない場合もサービスIDと残りのパスは返す。
func (t *RouteTable) Resolve(escapedPath string) (serviceID, rest string, route Route, ok bool) {
	serviceID, rest = splitServicePath(escapedPath)
	if serviceID == "" {
		return "", rest, Route{}, false
	}
	route, ok = t.routes[serviceID]
	return serviceID, rest, route, ok
}

// List はサービスID順に並べた転送先の一覧を返す。
func (t *RouteTable) List() []Route {
	list := make([]Route, 0, len(t.routes))
	for _, r := range t.routes {
		list = append(list, r)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ServiceID < list[j].ServiceID })
	return list
}

// splitServicePath は "/webapi/items/1" を "webapi" と "/items/1" に分割する。
func splitServicePath(path string) (serviceID, rest string) {
	trimmed := strings.TrimPrefix(path, "/")
	serviceID, rest, found := strings.Cut(trimmed, "/")
	if found {
		rest = "/" + rest
	}
	return serviceID, rest
}
