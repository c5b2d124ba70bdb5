package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"thumbly/internal/adapter/repo"
	"thumbly/internal/cache"
	httpapi "thumbly/internal/http"
	"thumbly/internal/http/handlers"
	"thumbly/internal/infra"
	"thumbly/internal/infra/geoip"
	"thumbly/internal/middleware"
	"thumbly/internal/providers/genai"
	"thumbly/internal/providers/imagekit"
	"thumbly/internal/thumbgen"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	countryResolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	}
	defer countryResolver.Close()
	var countries middleware.CountryLookup
	if countryResolver != nil {
		countries = countryResolver.CountryCode
	}

	var responseCache thumbgen.Cache
	if cfg.CacheEnable {
		responseCache = cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisTTL)
		logger.Info().Str("addr", cfg.RedisAddr).Msg("response cache enabled")
	}

	model := genai.NewClient(genai.Options{
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
		BaseURL: cfg.GeminiBaseURL,
		Logger:  logger,
	})
	assets := imagekit.NewClient(imagekit.Options{
		PublicKey:     cfg.ImageKitPublicKey,
		PrivateKey:    cfg.ImageKitPrivateKey,
		UploadBaseURL: cfg.ImageKitUploadURL,
		Logger:        logger,
	})

	service := thumbgen.NewService(thumbgen.Options{
		Fetcher:        thumbgen.NewFetcher(&http.Client{}),
		Model:          model,
		Publisher:      assets,
		Cache:          responseCache,
		Logger:         logger,
		Folder:         cfg.UploadFolder,
		FetchTimeout:   cfg.FetchTimeout,
		ModelTimeout:   cfg.ModelTimeout,
		PublishTimeout: cfg.PublishTimeout,
	})

	users := repo.NewUserRepository(dbpool)
	app := handlers.NewApp(logger, cfg, service, users, assets)
	router := httpapi.NewRouter(app, countries)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
