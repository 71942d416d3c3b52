package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/freshconcept/gms-ordering/internal/catalog"
	"github.com/freshconcept/gms-ordering/internal/customer"
	"github.com/freshconcept/gms-ordering/internal/handler"
	"github.com/freshconcept/gms-ordering/internal/identity"
	"github.com/freshconcept/gms-ordering/internal/order"
)

func NewRouter(pool *pgxpool.Pool) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	orderRepo := order.NewRepository(pool)
	productRepo := catalog.NewRepository(pool)
	customerRepo := customer.NewRepository(pool)
	userRepo := identity.NewRepository(pool)

	orderSvc := order.NewService(orderRepo, productRepo)
	userSvc := identity.NewService(userRepo)

	handler.NewAuthHandler(userSvc).RegisterRoutes(r)
	handler.NewBulkOrderHandler(orderSvc, customerRepo).RegisterRoutes(r)
	handler.NewProductHandler(productRepo).RegisterRoutes(r)
	handler.NewCustomerHandler(customerRepo).RegisterRoutes(r)
	handler.NewOrderAdminHandler(orderSvc).RegisterRoutes(r)

	return r
}
