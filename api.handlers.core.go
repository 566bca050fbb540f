package main

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

var EmptyData = struct{}{}

// Statistics holds app stats for ops.
type Statistics struct {
	version   string
	container bool
	runtime   string
	platform  string
	called    uint64
	started   time.Time
	status    map[int]uint64
	mu        *sync.RWMutex
}

// Maintenance holds app maintenance mode infos.
type Maintenance struct {
	enabled atomic.Bool
	mu      sync.RWMutex
	message string
	started time.Time
}

// APIHandler defines the API handler.
type APIHandler struct {
	logger      *zap.Logger
	config      *Config
	stats       *Statistics
	mode        *Maintenance
	clock       Clocker
	idsHandler  UIDHandler
	rules       *RulesChecker
	limiter     *IPRateLimiter
	bookService BookServiceProvider
}

// NewAPIHandler provides a new instance of APIHandler.
func NewAPIHandler(logger *zap.Logger, config *Config, stats *Statistics, clock Clocker, idsHandler UIDHandler, bs BookServiceProvider) *APIHandler {
	if config == nil {
		config = &Config{}
	}
	stats.status = make(map[int]uint64)
	stats.mu = &sync.RWMutex{}
	return &APIHandler{
		logger:      logger,
		config:      config,
		stats:       stats,
		mode:        &Maintenance{},
		clock:       clock,
		idsHandler:  idsHandler,
		rules:       NewRulesChecker(),
		limiter:     NewIPRateLimiter(&config.RateLimit, clock),
		bookService: bs,
	}
}

// statusFromError maps a service error to the http status to answer with.
func statusFromError(err error) int {
	var ferrs FieldErrors
	switch {
	case errors.As(err, &ferrs):
		return http.StatusBadRequest
	case errors.Is(err, ErrBookNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// sendError logs the failure and sends the error response to the client.
func (api *APIHandler) sendError(ctx context.Context, w http.ResponseWriter, status int, message string, data interface{}, err error, fields ...zap.Field) {
	requestID := GetValueFromContext(ctx, RequestIDContextKey)
	fields = append(fields, zap.String("request.id", requestID), zap.Int("response.status", status), zap.Error(err))
	api.logger.Error(message, fields...)
	if werr := WriteErrorResponse(ctx, w, NewAPIError(requestID, status, message, data)); werr != nil {
		api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(werr))
	}
}

// sendResponse sends the success response to the client.
func (api *APIHandler) sendResponse(ctx context.Context, w http.ResponseWriter, status int, message string, total *int, data interface{}) {
	requestID := GetValueFromContext(ctx, RequestIDContextKey)
	if err := WriteResponse(ctx, w, GenericResponse(requestID, status, message, total, data)); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}
