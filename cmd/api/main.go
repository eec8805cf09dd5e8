package main

import (
	"context"
	"crypto/rsa"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v4"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric/global"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	_BookingHttpDelivery "github.com/dhruvjyotiray/natours/booking/delivery/http"
	_BookingRepo "github.com/dhruvjyotiray/natours/booking/repository"
	_BookingUcase "github.com/dhruvjyotiray/natours/booking/usecase"
	"github.com/dhruvjyotiray/natours/cmd"
	"github.com/dhruvjyotiray/natours/imgstore"
	"github.com/dhruvjyotiray/natours/mailer"
	"github.com/dhruvjyotiray/natours/metrics"
	_MyMiddleware "github.com/dhruvjyotiray/natours/middleware"
	"github.com/dhruvjyotiray/natours/payment"
	_ReviewHttpDelivery "github.com/dhruvjyotiray/natours/review/delivery/http"
	_ReviewRepo "github.com/dhruvjyotiray/natours/review/repository"
	_ReviewUcase "github.com/dhruvjyotiray/natours/review/usecase"
	"github.com/dhruvjyotiray/natours/store"
	_TourHttpDelivery "github.com/dhruvjyotiray/natours/tour/delivery/http"
	_TourRepo "github.com/dhruvjyotiray/natours/tour/repository"
	_TourUcase "github.com/dhruvjyotiray/natours/tour/usecase"
	_UserHttpDelivery "github.com/dhruvjyotiray/natours/user/delivery/http"
	_UserRepo "github.com/dhruvjyotiray/natours/user/repository"
	_UserUcase "github.com/dhruvjyotiray/natours/user/usecase"
	"github.com/dhruvjyotiray/natours/web"
	"github.com/dhruvjyotiray/natours/web/auth"
)

func main() {
	// Logging
	logger, err := zap.NewDevelopment(zap.AddCaller())
	if err != nil {
		log.Println("can't create logger: ", err)
		return
	}
	defer func() {
		// do not need to check for errors
		_ = logger.Sync()
	}()

	if err := run(logger); err != nil {
		logger.Error("shutting down, error: ", zap.Error(err))
	}
}

func run(logger *zap.Logger) error {
	// Configuration
	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file loaded", zap.Error(err))
	}
	configPath, ok := os.LookupEnv("NATOURS_CONFIG")
	if !ok {
		return fmt.Errorf("NATOURS_CONFIG environment variable is not specified")
	}
	logger.Info("Config path", zap.String(configPath, configPath))
	cfg, err := cmd.AppConfig(configPath, logger)
	if err != nil {
		return err
	}

	// Initialize authentication support
	authenticator, err := createAuth(cfg.Auth.PrivateKeyFile, cfg.Auth.KeyID, cfg.Auth.Algorithm)
	if err != nil {
		return err
	}

	// Initialize context
	timeoutContext := time.Duration(cfg.Server.Timeout) * time.Second
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize tracing
	traceExporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithInsecure(),
		otlptracegrpc.WithEndpoint(cfg.Server.OtlpAddress),
		otlptracegrpc.WithDialOption(grpc.WithBlock()),
	)
	if err != nil {
		return err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			// the service name used to display traces in backends
			semconv.ServiceNameKey.String("natours-api"),
		),
	)
	if err != nil {
		return err
	}

	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()), // dev env only
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp),
	)
	otel.SetTracerProvider(tp)
	tracer := otel.Tracer("natours-tracer")
	defer func() {
		if err = tp.Shutdown(ctx); err != nil {
			logger.Error("shutdown tracer provider", zap.Error(err))
		}
		if err = traceExporter.Shutdown(ctx); err != nil {
			logger.Error("shutdown tracing exporter", zap.Error(err))
		}
	}()

	// Initialize metrics
	metricExporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithInsecure(),
		otlpmetricgrpc.WithEndpoint(cfg.Server.OtlpAddress),
		otlpmetricgrpc.WithDialOption(grpc.WithBlock()),
	)
	if err != nil {
		return err
	}

	meterProvider := metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(metricExporter, metric.WithInterval(10*time.Second))),
		metric.WithResource(res),
	)
	global.SetMeterProvider(meterProvider)

	defer func() {
		if err = meterProvider.Shutdown(ctx); err != nil {
			logger.Error("shutdown meter provider", zap.Error(err))
		}
		if err = metricExporter.Shutdown(ctx); err != nil {
			logger.Error("shutdown metric exporter", zap.Error(err))
		}
	}()

	// Echo configure
	e := echo.New()
	middL := _MyMiddleware.InitMiddleware(logger)
	e.Pre(middleware.Rewrite(map[string]string{
		"/api/*": "/$1",
	}))
	e.Use(middL.CORS)
	e.Use(middL.Logger)
	e.Use(middleware.RecoverWithConfig(middleware.DefaultRecoverConfig))
	e.Use(otelecho.Middleware("natours", otelecho.WithTracerProvider(tp)))
	e.Use(metrics.Middleware(metrics.WithMeterProvider(meterProvider)))

	// Rate limiting
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
	})
	defer func() {
		if err = rdb.Close(); err != nil {
			logger.Error("redis client close error: ", zap.Error(err))
		}
	}()
	limiter := _MyMiddleware.NewRateLimiter(rdb, cfg.Redis.RateLimit, time.Duration(cfg.Redis.RateWindowSec)*time.Second, logger)
	e.Use(limiter.Limit)

	// Create database connection
	client, err := store.Open(ctx, cfg.MongoConfig, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err = client.Disconnect(ctx); err != nil {
			logger.Error("mongodb client disconnect error: ", zap.Error(err))
		}
	}()

	// Initialize validator
	v, err := web.NewAppValidator()
	if err != nil {
		return err
	}
	e.Validator = v

	// External collaborators
	gateway := payment.NewClient(cfg.Payment.APIURL, cfg.Payment.APIKey, timeoutContext, logger, tracer)
	images := imgstore.NewClient(cfg.Images.UploadURL, cfg.Images.APIKey, cfg.Images.APISecret, timeoutContext, logger, tracer)
	mail, err := mailer.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
	if err != nil {
		return err
	}

	// Create Tour API
	tr := _TourRepo.NewMongoTourRepository(client, cfg.MongoConfig.Name, logger, tracer)
	tu := _TourUcase.NewTourUsecase(tr, images, timeoutContext, logger, tracer)
	th := _TourHttpDelivery.NewTourHandler(tu, authenticator, v, logger, tracer)
	th.RegisterRoutes(e)

	// Create User API
	usr := _UserRepo.NewMongoUserRepository(client, cfg.MongoConfig.Name, logger, tracer)
	usu := _UserUcase.NewUserUsecase(usr, mail, timeoutContext, logger, tracer)
	ush := _UserHttpDelivery.NewUserHandler(usu, authenticator, v, logger, tracer)
	ush.RegisterRoutes(e)

	// Create Review API
	rr := _ReviewRepo.NewMongoReviewRepository(client, cfg.MongoConfig.Name, logger, tracer)
	ru := _ReviewUcase.NewReviewUsecase(rr, tr, timeoutContext, logger, tracer)
	rh := _ReviewHttpDelivery.NewReviewHandler(ru, authenticator, v, logger, tracer)
	rh.RegisterRoutes(e)

	// Create Booking API
	br := _BookingRepo.NewMongoBookingRepository(client, cfg.MongoConfig.Name, logger, tracer)
	bu := _BookingUcase.NewBookingUsecase(br, tr, usr, gateway, cfg.Server.FrontendURL, timeoutContext, logger, tracer)
	bh := _BookingHttpDelivery.NewBookingHandler(bu, authenticator, v, cfg.Payment.WebhookSecret, logger, tracer)
	bh.RegisterRoutes(e)

	// Status check
	store.NewStatusHandler(e, client.Database(cfg.MongoConfig.Name))

	go func() {
		if err := e.Start(cfg.Server.Address); err != nil {
			logger.Error("can't start server: ", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	shutdownCtx, cancelSrv := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelSrv()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("can't shutdownn server: %w", err)
	}

	return nil
}

func createAuth(privateKeyFile, keyID, algorithm string) (*auth.Authenticator, error) {
	keyContents, err := os.ReadFile(privateKeyFile)
	if err != nil {
		return nil, fmt.Errorf("can't read auth private key: %w", err)
	}

	key, err := jwt.ParseRSAPrivateKeyFromPEM(keyContents)
	if err != nil {
		return nil, fmt.Errorf("can't parse auth private key: %w", err)
	}

	if _, ok := key.Public().(*rsa.PublicKey); !ok {
		return nil, fmt.Errorf("auth private key has no rsa public part")
	}

	return auth.NewAuthenticator(key, keyID, algorithm)
}
