package routes

import (
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/farma-sahayak/sahayak-server/internal/auth"
	"github.com/farma-sahayak/sahayak-server/internal/config"
	"github.com/farma-sahayak/sahayak-server/internal/cropdisease"
	"github.com/farma-sahayak/sahayak-server/internal/farmer"
	"github.com/farma-sahayak/sahayak-server/internal/identity"
	"github.com/farma-sahayak/sahayak-server/internal/middleware"
	"github.com/farma-sahayak/sahayak-server/internal/notification"
	"github.com/farma-sahayak/sahayak-server/internal/prices"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes. Without DB or
// Cache, in development only, the in-memory backends are used instead.
func Setup(app *fiber.App, d Deps) error {
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.Env)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.Env)
		}
	}

	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	RegisterHealthRoutes(app, d)

	codec, err := auth.NewCodec(d.Cfg.JWT.Algorithm, []byte(d.Cfg.JWT.Secret))
	if err != nil {
		return fmt.Errorf("build token codec: %w", err)
	}
	guard := middleware.BearerAuth(codec)

	var (
		users      identity.Store
		revoked    auth.RevocationList
		profiles   farmer.Repository
		priceStore prices.Store
		cropImages cropdisease.Repository
	)
	if d.DB != nil {
		users = identity.NewPostgresRepository(d.DB)
		profiles = farmer.NewPostgresRepository(d.DB)
		priceStore = prices.NewPostgresStore(d.DB)
		cropImages = cropdisease.NewPostgresRepository(d.DB)
	} else {
		users = identity.NewMemoryRepository()
		profiles = farmer.NewMemoryRepository()
		priceStore = prices.NewMemoryStore()
		cropImages = cropdisease.NewMemoryRepository()
	}
	if d.Cache != nil {
		revoked = auth.NewRedisRevocationList(d.Cache)
	} else {
		revoked = auth.NewMemoryRevocationList()
	}

	authSvc := auth.NewService(d.Cfg.JWT, users, auth.NewBcryptHasher(d.Cfg.Auth.PINHashCost), codec, revoked,
		notification.NewLoggerNotifier(d.Logger), d.Logger)
	farmerSvc := farmer.NewService(profiles, users)
	priceSvc := prices.NewService(prices.NewDataGovClient(d.Cfg.DataGov, d.Cfg.UpstreamTimeout), priceStore, d.Logger)
	cropSvc := cropdisease.NewService(cropImages, cropdisease.NewGeminiClient(d.Cfg.Vision, d.Cfg.UpstreamTimeout),
		d.Logger, d.Cfg.MaxUploadBytes)

	rateLimiter := middleware.LoginRateLimit(d.Cache, d.Cfg.Auth.LoginRatePerMinute)
	RegisterAuthRoutes(app, auth.NewHandler(authSvc), guard, rateLimiter)
	RegisterFarmerRoutes(app, farmer.NewHandler(farmerSvc), guard)
	RegisterPriceRoutes(app, prices.NewHandler(priceSvc))
	RegisterCropDiseaseRoutes(app, cropdisease.NewHandler(cropSvc), guard)

	return nil
}
