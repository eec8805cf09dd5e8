package metrics

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/contrib"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/global"
	"go.opentelemetry.io/otel/metric/instrument"
	"go.opentelemetry.io/otel/metric/unit"
	"go.uber.org/zap"
)

const meterName = "natours-meter"

// config is used to configure the metrics middleware.
type config struct {
	MeterProvider metric.MeterProvider
	Logger        *zap.Logger
}

// Option specifies instrumentation configuration options.
type Option func(*config)

// WithMeterProvider option sets metric provider. If none is specified, the global provider is used.
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(cfg *config) {
		cfg.MeterProvider = provider
	}
}

// WithLogger option sets the logger used for instrument creation failures
func WithLogger(logger *zap.Logger) Option {
	return func(cfg *config) {
		cfg.Logger = logger
	}
}

var (
	codeLabel   = attribute.Key("code")
	methodLabel = attribute.Key("method")
	hostLabel   = attribute.Key("host")
	routeLabel  = attribute.Key("route")
)

// Middleware records request count, latency and request/response sizes for
// every route. Instruments are created once, when the middleware is built.
func Middleware(opts ...Option) echo.MiddlewareFunc {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.MeterProvider == nil {
		cfg.MeterProvider = global.MeterProvider()
	}

	meter := cfg.MeterProvider.Meter(
		meterName,
		metric.WithInstrumentationVersion(contrib.SemVersion()),
	)

	requests, err := meter.Int64Counter("requests_total",
		instrument.WithDescription("How many HTTP requests processed, partitioned by status code and HTTP method."),
		instrument.WithUnit(unit.Dimensionless))
	duration, err2 := meter.Float64Histogram("request_duration_milliseconds",
		instrument.WithDescription("The HTTP request latencies in milliseconds."),
		instrument.WithUnit(unit.Milliseconds))
	responseSize, err3 := meter.Int64Histogram("response_size_bytes",
		instrument.WithDescription("The HTTP response sizes in bytes."),
		instrument.WithUnit(unit.Bytes))
	requestSize, err4 := meter.Int64Histogram("request_size_bytes",
		instrument.WithDescription("The HTTP request sizes in bytes."),
		instrument.WithUnit(unit.Bytes))

	for _, e := range []error{err, err2, err3, err4} {
		if e != nil {
			if cfg.Logger != nil {
				cfg.Logger.Error("can't create metric instrument: ", zap.Error(e))
			}
			return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			reqSz := computeApproximateRequestSize(c.Request())

			if err := next(c); err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			ctx := c.Request().Context()

			elapsed := float64(time.Since(start)) / float64(time.Millisecond)

			lbl := []attribute.KeyValue{
				codeLabel.Int(status),
				methodLabel.String(c.Request().Method),
				hostLabel.String(c.Request().Host),
				routeLabel.String(c.Path()),
			}

			requests.Add(ctx, 1, lbl...)
			duration.Record(ctx, elapsed, lbl...)
			responseSize.Record(ctx, c.Response().Size, lbl...)
			requestSize.Record(ctx, reqSz, lbl...)

			return nil
		}
	}
}

func computeApproximateRequestSize(r *http.Request) int64 {
	s := 0
	if r.URL != nil {
		s = len(r.URL.Path)
	}

	s += len(r.Method)
	s += len(r.Proto)
	for name, values := range r.Header {
		s += len(name)
		for _, value := range values {
			s += len(value)
		}
	}
	s += len(r.Host)

	if r.ContentLength != -1 {
		s += int(r.ContentLength)
	}
	return int64(s)
}
