package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalog/internal/agent"
	"catalog/internal/cache"
	"catalog/internal/config"
	"catalog/internal/llm"
	"catalog/internal/repositories"
	"catalog/internal/server"
	"catalog/internal/services"
	"catalog/pkg/rabbitmq"

	"github.com/spf13/cobra"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	eventQueue    = "catalog.events.log"
	eventPattern  = "product.*"
	shutdownGrace = 10 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	Long: `Run the catalog HTTP server until SIGINT or SIGTERM.

REDIS_URL enables the product list cache. RABBITMQ_URL enables product events and a
consumer that logs them.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	rt, err := bootstrap()
	if err != nil {
		return err
	}
	defer rt.close()
	cfg, logger := rt.cfg, rt.logger

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []services.ProductOption{}
	if cfg.RedisURL != "" {
		client, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()
		opts = append(opts, services.WithListCache(cache.NewRedisCache(client, cfg.CacheTTL)))
		logger.Info("product list cache enabled", zap.Duration("ttl", cfg.CacheTTL))
	}

	var mq *rabbitmq.Client
	if cfg.RabbitMQURL != "" {
		mq, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}, logger)
		if err != nil {
			return err
		}
		defer mq.Close()
		opts = append(opts, services.WithEventPublisher(mq))
	}

	productService := services.NewProductService(rt.productRepository(), logger, opts...)
	authService := services.NewAuthService(repositories.NewGORMUserRepository(rt.db), cfg.JWTSecret, cfg.JWTTTL, logger)

	generator, err := newGenerator(ctx, cfg, logger)
	if err != nil {
		return err
	}

	app := server.New(server.Deps{
		Products:     productService,
		Auth:         authService,
		Agent:        agent.NewNavigationAgent(generator, productService, logger),
		Logger:       logger,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		AccessLog:    true,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting server", zap.String("addr", cfg.AppPort), zap.String("generator", generator.Name()))
		return app.Listen(cfg.AppPort)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		return app.ShutdownWithTimeout(shutdownGrace)
	})
	if mq != nil {
		g.Go(func() error {
			err := mq.ConsumeEvents(gctx, eventQueue, eventPattern, logEvent(logger))
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("event consumer stopped", zap.Error(err))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server gracefully stopped")
	return nil
}

// newGenerator builds the text generator of the configured provider.
func newGenerator(ctx context.Context, cfg *config.Config, logger *zap.Logger) (agent.TextGenerator, error) {
	if cfg.LLMProvider == config.ProviderGemini {
		client, err := llm.NewGeminiClient(ctx, llm.GeminiConfig{
			APIKey: cfg.GeneratorAPIKey(),
			Model:  cfg.GeminiModel,
		}, logger)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
	if cfg.GeneratorAPIKey() == "" {
		logger.Warn("GROQ_API_KEY is not set; navigation requests will fail")
	}
	return llm.NewGroqClient(llm.GroqConfig{
		APIKey:  cfg.GeneratorAPIKey(),
		BaseURL: cfg.GroqBaseURL,
		Model:   cfg.GroqModel,
		Timeout: cfg.LLMTimeout,
	}, logger), nil
}

func logEvent(logger *zap.Logger) func(msg amqp.Delivery) error {
	return func(msg amqp.Delivery) error {
		logger.Info("product event",
			zap.String("routing_key", msg.RoutingKey),
			zap.Uint64("delivery_tag", msg.DeliveryTag),
			zap.ByteString("body", msg.Body))
		return nil
	}
}
