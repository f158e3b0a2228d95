package products

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"depalletconsole/frontend/shared/html"
	"depalletconsole/infrastructure/backend"
	"depalletconsole/infrastructure/cache"
	"depalletconsole/infrastructure/inventory"
	"depalletconsole/models"
)

// Fetcher reads the backend product table.
type Fetcher interface {
	FetchProducts(ctx context.Context) ([]models.Product, error)
}

// ProductsPageQueryHandler renders the inventory. Products are fetched on the
// first visit and whenever refresh=1 is passed; otherwise the cached snapshot
// is filtered by q. A failed fetch keeps the previous snapshot.
func ProductsPageQueryHandler(fetcher Fetcher, snap *cache.Snapshot[models.Product]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		data := PageData{
			Query:  strings.TrimSpace(q.Get("q")),
			Notice: q.Get("status"),
			Level:  q.Get("level"),
		}

		_, _, loaded := snap.Get()
		if !loaded || q.Get("refresh") == "1" {
			products, err := fetcher.FetchProducts(r.Context())
			if err != nil {
				slog.Warn("fetch products failed", slog.Any("err", err))
				data.Notice = loadNotice(err)
				data.Level = html.LevelError
			} else {
				snap.Replace(products, time.Now())
			}
		}

		products, at, ok := snap.Get()
		data.LoadedAt, data.Loaded = at, ok
		data.Summary = inventory.Summarize(products)
		data.Rows = inventory.Classify(inventory.Filter(products, data.Query))

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := ProductsPage(data).Render(r.Context(), w); err != nil {
			http.Error(w, "failed to render inventory page", http.StatusInternalServerError)
		}
	}
}

func loadNotice(err error) string {
	if errors.Is(err, backend.ErrNetwork) {
		return "Inventory could not be loaded: backend unreachable."
	}
	return fmt.Sprintf("Inventory could not be loaded: %v.", err)
}
