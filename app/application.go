package app

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"ipsign.app/api"
	"ipsign.app/background"
	"ipsign.app/cache"
	"ipsign.app/config"
	"ipsign.app/providers"
	"ipsign.app/render"
	"ipsign.app/scheduler"
	"ipsign.app/service"
)

const weatherIconBaseURL = "https://openweathermap.org/img/wn"

// Application represents the main application with all its dependencies
type Application struct {
	config    *config.Config
	store     *cache.Store
	redis     *cache.RedisPersistence
	server    *api.Server
	scheduler *scheduler.Scheduler
}

// NewApplication creates and initializes a new application instance
func NewApplication() (*Application, error) {
	app := &Application{}

	if err := app.loadConfiguration(); err != nil {
		return nil, err
	}

	if err := app.initializeCache(); err != nil {
		return nil, err
	}

	if err := app.initializeServices(); err != nil {
		return nil, err
	}

	return app, nil
}

func (app *Application) loadConfiguration() error {
	slog.Info("Loading configuration...")

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return fmt.Errorf("load application configuration: %w", err)
	}

	app.config = cfg
	slog.Info("Configuration loaded successfully", "environment", cfg.Environment)
	return nil
}

func (app *Application) initializeCache() error {
	slog.Info("Initializing cache...", "type", app.config.Cache.Type)

	persist, err := app.createPersistence()
	if err != nil {
		slog.Error("Failed to initialize cache persistence", "error", err)
		return fmt.Errorf("initialize cache persistence: %w", err)
	}

	app.store = cache.NewStore(persist)
	slog.Info("Cache initialized", "locations", app.store.Len(cache.DomainLocation))
	return nil
}

func (app *Application) createPersistence() (cache.Persistence, error) {
	if app.config.Cache.Type == "redis" {
		redis, err := cache.NewRedisPersistence(&cache.RedisConfig{
			Addr:     app.config.Cache.RedisAddr,
			Password: app.config.Cache.RedisPassword,
			DB:       app.config.Cache.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		app.redis = redis
		return redis, nil
	}
	return cache.NewFilePersistence(app.config.Cache.Dir)
}

func (app *Application) initializeServices() error {
	slog.Info("Initializing services...")

	geoService, err := app.createGeoService()
	if err != nil {
		return fmt.Errorf("create geolocation service: %w", err)
	}

	weatherProvider := providers.NewOpenWeatherMapProvider(app.config.Weather.APIKey, app.config.Weather.BaseURL)
	weatherService := service.NewWeatherService(app.store, weatherProvider)

	quoteProvider := providers.NewHitokotoProvider(app.config.Quote.BaseURL)
	quoteService := service.NewQuoteService(app.store, quoteProvider)

	signatureService := service.NewSignatureService(geoService, weatherService, quoteService)

	renderer, err := app.createRenderer()
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}

	app.server = api.NewServer(app.config, signatureService, renderer)
	app.scheduler = scheduler.NewScheduler(app.store, app.config.Scheduler.SweepSpec)

	slog.Info("Services initialized successfully")
	return nil
}

// createGeoService assembles the provider fallback chain in priority order.
// Only providers with a configured token join the chain; configuration
// validation guarantees at least one is present.
func (app *Application) createGeoService() (*service.GeoService, error) {
	var chain []providers.GeoProvider
	if app.config.Geo.IPInfoToken != "" {
		chain = append(chain, providers.NewIPInfoProvider(app.config.Geo.IPInfoToken, app.config.Geo.IPInfoURL))
	}
	if app.config.Geo.NsmaoToken != "" {
		chain = append(chain, providers.NewNsmaoProvider(app.config.Geo.NsmaoToken, app.config.Geo.NsmaoURL))
	}

	geoChain := providers.NewGeoChain(chain...)
	names := make([]string, 0, len(geoChain.Providers()))
	for _, p := range geoChain.Providers() {
		names = append(names, p.Name())
	}
	slog.Info("Geolocation chain configured", "providers", names)

	geoService := service.NewGeoService(app.store, geoChain)
	if app.config.Geo.ResolvePublicIP {
		geoService = geoService.WithPublicIPResolution(providers.NewIpifyProvider(app.config.Geo.PublicIPURL))
	}
	return geoService, nil
}

func (app *Application) createRenderer() (*render.Renderer, error) {
	backgroundProvider, err := background.New(
		app.config.Background.ImageURL,
		app.config.Cache.Dir,
		app.config.AssetsDir,
	)
	if err != nil {
		return nil, err
	}
	if err := backgroundProvider.Init(); err != nil {
		slog.Warn("Background image unavailable, falling back to gradient", "error", err)
	}

	icons := render.NewIconCache(weatherIconBaseURL)
	fontPath := filepath.Join(app.config.AssetsDir, "fonts", "SourceHanSansSC-Regular.otf")
	boldPath := filepath.Join(app.config.AssetsDir, "fonts", "SourceHanSansSC-Bold.otf")

	return render.NewRenderer(backgroundProvider, icons, fontPath, boldPath), nil
}

// Start starts the application
func (app *Application) Start() error {
	slog.Info("Starting application...")

	if err := app.scheduler.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	slog.Info("Starting HTTP server", "port", app.config.Server.Port)
	return app.server.Start()
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	slog.Info("Shutting down application...")

	if app.scheduler != nil {
		app.scheduler.Stop()
	}

	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			slog.Warn("Error closing redis connection", "error", err)
		}
	}

	slog.Info("Application shutdown complete")
	return nil
}

// Config returns the application configuration
func (app *Application) Config() *config.Config {
	return app.config
}
