package di

import (
	"github.com/concertline/tickets/internal/gateway"
	"github.com/concertline/tickets/internal/handler"
	"github.com/concertline/tickets/internal/repository"
	"github.com/concertline/tickets/internal/service"
	"github.com/concertline/tickets/pkg/config"
	"github.com/concertline/tickets/pkg/database"
	"github.com/concertline/tickets/pkg/kafka"
	"github.com/concertline/tickets/pkg/redis"
)

// Container holds all dependencies for the ticket API
type Container struct {
	// Infrastructure
	DB       *database.PostgresDB
	Redis    *redis.Client
	Producer *kafka.Producer
	Gateway  gateway.CheckoutGateway

	// Repositories
	ConcertRepo repository.ConcertRepository
	TypeRepo    repository.TicketTypeRepository
	OrderRepo   repository.OrderRepository

	// Services
	CatalogService  service.CatalogService
	CheckoutService service.CheckoutService

	// Handlers
	HealthHandler   *handler.HealthHandler
	ConcertHandler  *handler.ConcertHandler
	CheckoutHandler *handler.CheckoutHandler
	WebhookHandler  *handler.WebhookHandler
}

// ContainerConfig contains configuration for building the container.
// Redis and Producer are optional.
type ContainerConfig struct {
	Config   *config.Config
	DB       *database.PostgresDB
	Redis    *redis.Client
	Producer *kafka.Producer
	Gateway  gateway.CheckoutGateway
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *ContainerConfig) *Container {
	c := &Container{
		DB:       cfg.DB,
		Redis:    cfg.Redis,
		Producer: cfg.Producer,
		Gateway:  cfg.Gateway,
	}

	// Initialize repositories
	c.ConcertRepo = repository.NewPostgresConcertRepository(c.DB.Pool())
	c.OrderRepo = repository.NewPostgresOrderRepository(c.DB.Pool())

	pgTypeRepo := repository.NewPostgresTicketTypeRepository(c.DB.Pool())
	var cachedTypeRepo *repository.CachedTicketTypeRepository

	// Wrap with cache if Redis is available
	if c.Redis != nil {
		cachedTypeRepo = repository.NewCachedTicketTypeRepository(pgTypeRepo, c.Redis)
		c.TypeRepo = cachedTypeRepo
	} else {
		c.TypeRepo = pgTypeRepo
	}

	// Initialize services
	c.CatalogService = service.NewCatalogService(c.ConcertRepo, c.TypeRepo)

	checkoutCfg := service.CheckoutServiceConfig{
		DB:          c.DB.Pool(),
		ConcertRepo: c.ConcertRepo,
		TypeRepo:    c.TypeRepo,
		OrderRepo:   c.OrderRepo,
		Gateway:     c.Gateway,
		Currency:    cfg.Config.Checkout.Currency,
		ReturnURL:   cfg.Config.Stripe.ReturnURL,
	}
	if c.Producer != nil {
		checkoutCfg.Publisher = c.Producer
	}
	if cachedTypeRepo != nil {
		checkoutCfg.Invalidator = cachedTypeRepo
	}
	c.CheckoutService = service.NewCheckoutService(checkoutCfg)

	// Initialize handlers
	c.HealthHandler = handler.NewHealthHandler(c.DB, c.Redis)
	c.ConcertHandler = handler.NewConcertHandler(c.CatalogService)
	c.CheckoutHandler = handler.NewCheckoutHandler(c.CheckoutService)
	c.WebhookHandler = handler.NewWebhookHandler(c.CheckoutService, cfg.Config.Stripe.WebhookSecret)

	return c
}
