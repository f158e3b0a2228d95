package http

import (
	"github.com/go-chi/chi/v5"

	"depalletconsole/frontend/login"
	"depalletconsole/frontend/logs"
	"depalletconsole/frontend/orders"
	"depalletconsole/frontend/products"
)

// RegisterLoginRoutes registers login/logout routes.
func (s *Server) RegisterLoginRoutes() {
	s.router.Get("/login", login.GetLoginScreenHandler)
	s.router.Post("/login", login.CreateLoginHandler(s.DB, s.SessionCache))
	s.router.Post("/logout", login.LogoutHandler(s.DB, s.SessionCache))
}

// RegisterConsoleRoutes registers the authenticated operator screens under
// /console.
func (s *Server) RegisterConsoleRoutes(r chi.Router) chi.Router {
	s.RegisterOrderRoutes(r)

	r.Get("/products", products.ProductsPageQueryHandler(s.Products, s.ProductCache))

	r.Get("/logs", logs.LogsPageQueryHandler(s.Events))
	r.Get("/logs/orders/{id}.pdf", logs.OrderTrailPDFHandler(s.Events))
	return r
}

func (s *Server) RegisterOrderRoutes(r chi.Router) {
	r.Get("/orders", orders.OrdersPageQueryHandler(s.Orders))
	r.Post("/orders/{id}/approve", orders.ApproveOrderCommandHandler(s.Orders))
	r.Post("/orders/{id}/cancel", orders.CancelOrderCommandHandler(s.Orders))
	r.Get("/orders/{id}/delete", orders.ConfirmDeletePageQueryHandler(s.Orders))
	r.Post("/orders/{id}/delete", orders.DeleteOrderCommandHandler(s.Orders))
}
