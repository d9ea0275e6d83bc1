package wire

import (
	"net/http"

	"stadium-ticketing/internal/adaptor"
	"stadium-ticketing/internal/clock"
	"stadium-ticketing/internal/data/repository"
	"stadium-ticketing/internal/usecase"
	"stadium-ticketing/pkg/cache"
	"stadium-ticketing/pkg/middleware"
	"stadium-ticketing/pkg/queue"
	"stadium-ticketing/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// App holds the wired router
type App struct {
	Router *chi.Mux
}

// Infra carries the optional collaborators built in main.
// Redis stays nil when rate limiting has no backing store.
type Infra struct {
	DB        adaptor.Pinger
	Cache     cache.Cache
	Publisher queue.Publisher
	Redis     redis.Scripter
	Clock     clock.Clock
}

// Wiring builds services, handlers and routes.
func Wiring(repo *repository.Repository, infra Infra, config *utils.Config, logger *zap.Logger) *App {
	if infra.Cache == nil {
		infra.Cache = cache.NewNoop()
	}
	if infra.Publisher == nil {
		infra.Publisher = queue.NewNoopPublisher()
	}
	if infra.Clock == nil {
		infra.Clock = clock.NewSystem()
	}

	service := usecase.NewService(repo, config, logger, infra.Cache, infra.Publisher, infra.Clock)
	handler := adaptor.NewHandler(service, infra.DB, logger)

	router := setupRouter(handler, repo, infra, config, logger)

	return &App{
		Router: router,
	}
}

func setupRouter(
	handler *adaptor.Handler,
	repo *repository.Repository,
	infra Infra,
	config *utils.Config,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS(config.App.CORSOrigins))
	if config.App.RequestTimeout > 0 {
		r.Use(chimw.Timeout(config.App.RequestTimeout))
	}

	wireAuth(r, handler.Auth)
	wireCatalog(r, handler.Catalog, repo, config, logger)
	wireTicket(r, handler.Ticket, repo, infra, config, logger)

	r.Get("/health", handler.Health.Health)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		utils.ResponseNotFound(w, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		utils.ResponseJSON(w, http.StatusMethodNotAllowed, utils.ErrorResponse{Error: "Method not allowed"})
	})

	return r
}
