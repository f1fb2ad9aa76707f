package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/kyiku/coin-gacha-back/internal/ai"
	"github.com/kyiku/coin-gacha-back/internal/coin"
	"github.com/kyiku/coin-gacha-back/internal/config"
	"github.com/kyiku/coin-gacha-back/internal/gacha"
	"github.com/kyiku/coin-gacha-back/internal/game"
	"github.com/kyiku/coin-gacha-back/internal/handler"
	ratelimit "github.com/kyiku/coin-gacha-back/internal/middleware"
	"github.com/kyiku/coin-gacha-back/internal/session"
	"github.com/kyiku/coin-gacha-back/internal/storage"
)

const (
	sessionExpiry   = 30 * time.Minute
	janitorInterval = time.Minute
	measureTimeout  = 5 * time.Second
	captionTimeout  = 3 * time.Second
	shutdownTimeout = 10 * time.Second
)

// S3Adapter adapts AWS S3 client to our interface
type S3Adapter struct {
	client *s3.Client
	bucket string
}

func (a *S3Adapter) GetObject(ctx context.Context, key string) ([]byte, error) {
	output, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &a.bucket,
		Key:    &key,
	})
	if err != nil {
		return nil, err
	}
	defer output.Body.Close()
	return io.ReadAll(output.Body)
}

func (a *S3Adapter) ListObjects(ctx context.Context, prefix string) ([]string, error) {
	output, err := a.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: &a.bucket,
		Prefix: &prefix,
	})
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(output.Contents))
	for _, obj := range output.Contents {
		keys = append(keys, *obj.Key)
	}
	return keys, nil
}

// BedrockAdapter adapts AWS Bedrock client to our interface
type BedrockAdapter struct {
	client  *bedrockruntime.Client
	timeout time.Duration
}

// BedrockRequest represents the request body for Claude via Bedrock
type BedrockRequest struct {
	AnthropicVersion string           `json:"anthropic_version"`
	MaxTokens        int              `json:"max_tokens"`
	Messages         []BedrockMessage `json:"messages"`
}

// BedrockMessage represents a message in the Bedrock request
type BedrockMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (a *BedrockAdapter) InvokeModel(ctx context.Context, modelID string, prompt string) (string, error) {
	// Build request body for Claude using proper JSON marshaling
	req := BedrockRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        128,
		Messages: []BedrockMessage{
			{Role: "user", Content: prompt},
		},
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	output, err := a.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     &modelID,
		Body:        body,
		ContentType: stringPtr("application/json"),
	})
	if err != nil {
		return "", err
	}

	return string(output.Body), nil
}

func stringPtr(s string) *string {
	return &s
}

func main() {
	e := echo.New()
	e.HideBanner = true

	cfg, err := config.LoadConfig()
	if err != nil {
		e.Logger.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		e.Logger.Fatal(err)
	}
	e.Logger.SetLevel(cfg.Level())

	profile, err := config.LoadProfile(cfg.GameConfigPath, cfg.GameProfile)
	if err != nil {
		e.Logger.Fatal(err)
	}

	appLogger := log.New("coin-gacha")
	appLogger.SetLevel(cfg.Level())

	// Middleware
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			e.Logger.Infof("%s %s %d", v.Method, v.URI, v.Status)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	// CORS configuration - AllowOrigins cannot be "*" when AllowCredentials is true
	origins := []string{cfg.AllowedOrigin}
	if cfg.CloudfrontDomain != "" {
		origins = append(origins, cfg.CloudfrontDomain)
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     origins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type"},
		AllowCredentials: true,
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load AWS config
	var s3Adapter *S3Adapter
	var bedrockAdapter *BedrockAdapter
	if cfg.UseS3() || cfg.BedrockEnabled {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			appLogger.Warnf("Failed to load AWS config: %v (assets and captions use defaults)", err)
		} else {
			if cfg.UseS3() {
				s3Adapter = &S3Adapter{
					client: s3.NewFromConfig(awsCfg),
					bucket: cfg.S3Bucket,
				}
			}
			if cfg.BedrockEnabled {
				bedrockAdapter = &BedrockAdapter{
					client:  bedrockruntime.NewFromConfig(awsCfg),
					timeout: captionTimeout,
				}
			}
		}
	}

	// Coin size and gift set come from asset storage when it is configured
	measurer := coin.NewFixedMeasurer(coin.DefaultCoinRadius)
	catalog := gacha.NewCatalog(nil)
	if s3Adapter != nil {
		assets := storage.NewAssetStore(s3Adapter, cfg.S3Bucket, cfg.CloudfrontDomain)
		measurer = coin.NewMeasurer(assets, storage.CoinImageKey, profile.CoinScale, appLogger)
		measureCtx, cancel := context.WithTimeout(ctx, measureTimeout)
		defer cancel()
		measurer.ResolveAsync(measureCtx)
		catalog = gacha.LoadCatalog(ctx, assets, appLogger)
	}

	var captioner gacha.Captioner
	if bedrockAdapter != nil {
		writer := ai.NewCaptionWriter(bedrockAdapter)
		writer.EnableFallback(true) // Use fallback if Bedrock fails
		if cfg.BedrockModelID != "" {
			writer.SetModel(cfg.BedrockModelID)
		}
		captioner = writer
	}

	resources := game.Resources{
		Profile:   profile,
		Measurer:  measurer,
		Catalog:   catalog,
		Captioner: captioner,
		Debug:     cfg.CoinDebug,
		LogLevel:  cfg.Level(),
	}
	store := session.NewSessionStoreWithExpiry(func(id string) *game.Session {
		return game.NewSession(id, resources)
	}, sessionExpiry)
	go store.RunJanitor(ctx, janitorInterval)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(store, measurer)
	sessionHandler := handler.NewSessionHandler(store, sessionExpiry)
	gameHandler := handler.NewGameHandler(store)
	wsHandler := handler.NewWebSocketHandler(store, cfg.AllowedOrigin, appLogger)

	// Health check (root level for ALB)
	e.GET("/health", healthHandler.Check)

	// WebSocket endpoint
	e.GET("/ws", wsHandler.Connect)

	// API routes
	api := e.Group("/api")
	if cfg.RateLimit > 0 {
		limiter := ratelimit.NewRateLimiter(cfg.RateLimit, time.Second)
		defer limiter.Stop()
		api.Use(limiter.Middleware())
	}

	api.GET("/health", healthHandler.Check)

	// Session endpoints
	api.POST("/session", sessionHandler.Create)
	api.GET("/state", sessionHandler.State)
	api.DELETE("/session", sessionHandler.End)

	// Game endpoints
	api.POST("/layout", gameHandler.Layout)
	api.POST("/resize", gameHandler.Resize)
	api.POST("/redeem", gameHandler.Redeem)
	api.POST("/draw", gameHandler.Draw)
	api.POST("/capsule/open", gameHandler.OpenCapsule)
	api.POST("/overlay/dismiss", gameHandler.DismissOverlay)

	// Debug endpoints
	api.POST("/coins/refill", gameHandler.Refill)
	api.GET("/debug/regions", gameHandler.Regions)
	api.POST("/debug", gameHandler.SetDebug)

	appLogger.Infof("Game profile %s: target %d coins, %d gifts", cfg.GameProfile, profile.Target, catalog.Len())

	// Start server
	go func() {
		appLogger.Infof("Starting server on :%s", cfg.Port)
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			e.Logger.Fatal(err)
		}
	}()

	<-ctx.Done()
	appLogger.Infof("Shutting down")

	store.CloseAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Errorf("shutdown error: %v", err)
	}
}
