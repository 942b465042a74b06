package server

import (
	"net/http"
	"sort"

	"github.com/ternarybob/screener/internal/handlers"
)

// RouteHandler is a function type for HTTP handlers
type RouteHandler func(http.ResponseWriter, *http.Request)

// MethodRouter maps HTTP methods to handlers
type MethodRouter map[string]RouteHandler

// RouteByMethod dispatches on the request method. Unknown methods get a JSON 405 with
// the Allow header set.
func RouteByMethod(w http.ResponseWriter, r *http.Request, routes MethodRouter) {
	handler, ok := routes[r.Method]
	if !ok {
		allowed := make([]string, 0, len(routes))
		for method := range routes {
			allowed = append(allowed, method)
		}
		sort.Strings(allowed)
		handlers.WriteMethodNotAllowed(w, allowed...)
		return
	}
	handler(w, r)
}

// RouteResourceCollection routes GET to list and POST to create
func RouteResourceCollection(w http.ResponseWriter, r *http.Request, list, create RouteHandler) {
	RouteByMethod(w, r, MethodRouter{
		http.MethodGet:  list,
		http.MethodPost: create,
	})
}

// RouteResourceItem routes GET, PUT and DELETE on a single resource
func RouteResourceItem(w http.ResponseWriter, r *http.Request, get, update, remove RouteHandler) {
	RouteByMethod(w, r, MethodRouter{
		http.MethodGet:    get,
		http.MethodPut:    update,
		http.MethodDelete: remove,
	})
}
