package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	jwtware "github.com/gofiber/jwt/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/wichananm65/retail-shop-backend/internal/auth"
	"github.com/wichananm65/retail-shop-backend/internal/category"
	"github.com/wichananm65/retail-shop-backend/internal/config"
	"github.com/wichananm65/retail-shop-backend/internal/customer"
	"github.com/wichananm65/retail-shop-backend/internal/docstore"
	"github.com/wichananm65/retail-shop-backend/internal/logging"
	"github.com/wichananm65/retail-shop-backend/internal/metrics"
	"github.com/wichananm65/retail-shop-backend/internal/objectstore"
	"github.com/wichananm65/retail-shop-backend/internal/order"
	"github.com/wichananm65/retail-shop-backend/internal/product"
	"github.com/wichananm65/retail-shop-backend/internal/shop"
	"github.com/wichananm65/retail-shop-backend/internal/view"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logging.New("info", false)
		boot.Fatal().Err(err).Msg("load config")
	}
	log := logging.New(cfg.LogLevel, cfg.LogPretty)

	// prices go out as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := metrics.NewRegistry()
	b, err := openBackends(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("open backends")
	}
	defer b.Close(log)

	docs := docstore.Instrument(b.docs, reg)
	objects := objectstore.Instrument(b.objects, reg)
	tokens := auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)

	app := fiber.New(fiber.Config{
		AppName:               "retail-shop-backend",
		DisableStartupMessage: true,
		BodyLimit:             16 * 1024 * 1024,
	})
	app.Use(recover.New())
	setupCORS(app)
	app.Use(logging.Middleware(log, reg))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(reg.Handler()))

	shopHandler := shop.NewHandler(shop.NewService(shop.NewDocRepository(docs), objects, log), tokens)
	customerHandler := customer.NewHandler(customer.NewService(customer.NewDocRepository(docs), log), tokens)
	categoryHandler := category.NewHandler(category.NewService(category.NewObjectRepository(objects), objects, cfg.UploadTimeout, log))
	productHandler := product.NewHandler(product.NewService(product.NewDocRepository(docs), reg, log))
	viewHandler := view.NewHandler(view.NewService(objects, cfg.ViewPrefix, cfg.UploadTimeout))
	orderHandler := order.NewHandler(order.NewLedger(docs, log))

	shopHandler.RegisterPublicRoutes(app)
	customerHandler.RegisterPublicRoutes(app)
	categoryHandler.RegisterPublicRoutes(app)
	productHandler.RegisterPublicRoutes(app)
	viewHandler.RegisterPublicRoutes(app)

	app.Use(jwtware.New(jwtware.Config{
		SigningKey: []byte(cfg.JWTSecret),
		ContextKey: auth.LocalsKey,
	}))

	customerHandler.RegisterProtectedRoutes(app)
	categoryHandler.RegisterProtectedRoutes(app)
	productHandler.RegisterProtectedRoutes(app)
	orderHandler.RegisterProtectedRoutes(app)

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		shutdown(app, log)
	}()

	log.Info().Str("addr", cfg.Addr).Msg("listening")
	if err := app.Listen(cfg.Addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
	}
}

func shutdown(app *fiber.App, log zerolog.Logger) {
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Warn().Err(err).Msg("shutdown")
	}
}

func setupCORS(app *fiber.App) {
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
}
