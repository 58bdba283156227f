package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DeliveryStatus represents the outcome of one channel delivery
type DeliveryStatus string

const (
	StatusDelivered DeliveryStatus = "DELIVERED"
	StatusFailed    DeliveryStatus = "FAILED"
)

var knownChannels = map[string]bool{
	"sms":      true,
	"whatsapp": true,
	"telegram": true,
}

// SendRequest is what the notifier posts per channel
type SendRequest struct {
	EventID   string `json:"event_id"`
	Recipient string `json:"recipient" binding:"required"`
	Text      string `json:"text" binding:"required"`
}

// SendResponse mirrors the notifier's expectations
type SendResponse struct {
	EventID     string         `json:"event_id"`
	Status      DeliveryStatus `json:"status"`
	ErrorCode   string         `json:"error_code,omitempty"`
	ErrorMsg    string         `json:"error_message,omitempty"`
	GatewayID   string         `json:"gateway_id"`
	ProcessedAt time.Time      `json:"processed_at"`
}

// HealthResponse reports simulator state
type HealthResponse struct {
	Status       string    `json:"status"`
	GatewayID    string    `json:"gateway_id"`
	Timestamp    time.Time `json:"timestamp"`
	DeliveryRate float64   `json:"delivery_rate"`
}

// MockGateway simulates a messaging channel provider (WhatsApp, Telegram,
// SMS aggregator) behind a single HTTP surface.
type MockGateway struct {
	deliveryRate float64
	minDelay     time.Duration
	maxDelay     time.Duration
	gatewayID    string
	rng          *rand.Rand
}

func NewMockGateway(deliveryRate float64, minDelay, maxDelay time.Duration) *MockGateway {
	return &MockGateway{
		deliveryRate: deliveryRate,
		minDelay:     minDelay,
		maxDelay:     maxDelay,
		gatewayID:    "MOCK_GATEWAY_" + uuid.New().String()[:8],
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (m *MockGateway) simulateDelivery(channel string, req *SendRequest) *SendResponse {
	delay := m.randomDelay()
	time.Sleep(delay)

	response := &SendResponse{
		EventID:     req.EventID,
		GatewayID:   m.gatewayID,
		ProcessedAt: time.Now(),
	}

	if m.shouldSucceed() {
		response.Status = StatusDelivered
		log.Info().
			Str("channel", channel).
			Str("recipient", req.Recipient).
			Dur("delay", delay).
			Msg("notification delivered")
	} else {
		response.Status = StatusFailed
		response.ErrorCode = m.randomErrorCode()
		response.ErrorMsg = m.errorMessage(response.ErrorCode)
		log.Warn().
			Str("channel", channel).
			Str("recipient", req.Recipient).
			Str("error_code", response.ErrorCode).
			Msg("notification delivery failed")
	}

	return response
}

func (m *MockGateway) randomDelay() time.Duration {
	delta := m.maxDelay - m.minDelay
	if delta <= 0 {
		return m.minDelay
	}
	return m.minDelay + time.Duration(m.rng.Int63n(int64(delta)))
}

func (m *MockGateway) shouldSucceed() bool {
	return m.rng.Float64() < m.deliveryRate
}

func (m *MockGateway) randomErrorCode() string {
	errorCodes := []string{
		"INVALID_RECIPIENT",
		"NETWORK_ERROR",
		"TIMEOUT",
		"BLOCKED",
		"RATE_LIMITED",
	}
	return errorCodes[m.rng.Intn(len(errorCodes))]
}

func (m *MockGateway) errorMessage(code string) string {
	messages := map[string]string{
		"INVALID_RECIPIENT": "The recipient address is invalid or unreachable",
		"NETWORK_ERROR":     "Network connectivity issue with the channel provider",
		"TIMEOUT":           "Delivery timed out",
		"BLOCKED":           "The recipient has blocked notifications",
		"RATE_LIMITED":      "Channel provider rate limit exceeded",
	}
	if msg, ok := messages[code]; ok {
		return msg
	}
	return "Unknown error occurred"
}

type Handler struct {
	gateway *MockGateway
}

func NewHandler(gateway *MockGateway) *Handler {
	return &Handler{gateway: gateway}
}

// Send handles a per-channel delivery request
func (h *Handler) Send(c *gin.Context) {
	channel := c.Param("channel")
	if !knownChannels[channel] {
		c.JSON(http.StatusNotFound, gin.H{
			"error": fmt.Sprintf("unknown channel %q", channel),
		})
		return
	}

	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	log.Info().
		Str("channel", channel).
		Str("recipient", req.Recipient).
		Msg("received send request")

	response := h.gateway.simulateDelivery(channel, &req)

	statusCode := http.StatusOK
	if response.Status == StatusFailed {
		statusCode = http.StatusAccepted // 202: accepted but failed delivery
	}
	c.JSON(statusCode, response)
}

// HealthCheck reports gateway health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:       "healthy",
		GatewayID:    h.gateway.gatewayID,
		Timestamp:    time.Now(),
		DeliveryRate: h.gateway.deliveryRate,
	})
}

// UpdateConfig allows changing the simulated delivery rate at runtime
func (h *Handler) UpdateConfig(c *gin.Context) {
	var cfg struct {
		DeliveryRate *float64 `json:"delivery_rate"`
	}
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}
	if cfg.DeliveryRate != nil && *cfg.DeliveryRate >= 0 && *cfg.DeliveryRate <= 1.0 {
		h.gateway.deliveryRate = *cfg.DeliveryRate
		log.Info().Float64("rate", *cfg.DeliveryRate).Msg("updated delivery rate")
	}
	c.JSON(http.StatusOK, gin.H{
		"message":       "Configuration updated",
		"delivery_rate": h.gateway.deliveryRate,
	})
}

func SetupRouter(handler *Handler) *gin.Engine {
	router := gin.Default()

	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request processed")
	})

	v1 := router.Group("/api/v1")
	{
		v1.POST("/:channel/send", handler.Send)
		v1.GET("/health", handler.HealthCheck)
		v1.PUT("/config", handler.UpdateConfig)
	}

	router.GET("/health", handler.HealthCheck)

	return router
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	port := getEnv("PORT", "8082")
	deliveryRate := getEnvFloat("DELIVERY_RATE", 1)
	minDelay := getEnvDuration("MIN_DELAY", 100*time.Millisecond)
	maxDelay := getEnvDuration("MAX_DELAY", 1*time.Second)

	log.Info().
		Str("port", port).
		Float64("delivery_rate", deliveryRate).
		Dur("min_delay", minDelay).
		Dur("max_delay", maxDelay).
		Msg("starting mock channel gateway")

	gateway := NewMockGateway(deliveryRate, minDelay, maxDelay)
	handler := NewHandler(gateway)
	router := SetupRouter(handler)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down mock channel gateway")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
