package api

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/insightdelivered/mobile-money-parser/internal/logger"
	"github.com/insightdelivered/mobile-money-parser/internal/models"
	"github.com/insightdelivered/mobile-money-parser/internal/parser"
	"github.com/insightdelivered/mobile-money-parser/internal/samples"
)

// Version is reported by the health endpoint and the CLI.
const Version = "1.0.0"

const requestIDKey = "requestid"

// ParseRequest is the body of POST /api/parse and POST /api/parse/batch.
type ParseRequest struct {
	Message string `json:"message"`
	// Combined asks for the debit notification / confirmation correlator.
	Combined bool `json:"combined"`
}

// ParseResponse is the JSON response from the /api/parse endpoint.
type ParseResponse struct {
	RequestID   string                   `json:"requestId"`
	Transaction models.ParsedTransaction `json:"transaction"`
}

// BatchResponse is the JSON response from the /api/parse/batch endpoint.
type BatchResponse struct {
	RequestID    string                     `json:"requestId"`
	Transactions []models.ParsedTransaction `json:"transactions"`
	Count        int                        `json:"count"`
	Parsed       int                        `json:"parsed"`
}

// SampleResponse pairs a catalog entry with its parse.
type SampleResponse struct {
	Sample      samples.Sample           `json:"sample"`
	Transaction models.ParsedTransaction `json:"transaction"`
}

// ErrorResponse is returned for every non-2xx status.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// Handler holds the HTTP handlers for the API.
type Handler struct {
	Engine    *parser.Engine
	Log       zerolog.Logger
	StaticDir string
}

// NewHandler returns a handler parsing with engine. A nil engine uses the
// default routes with log attached.
func NewHandler(engine *parser.Engine, log zerolog.Logger, staticDir string) *Handler {
	if engine == nil {
		engine = parser.NewEngine(parser.WithLogger(log))
	}
	return &Handler{Engine: engine, Log: log, StaticDir: staticDir}
}

// NewApp builds the fiber app with middleware and routes registered.
func NewApp(h *Handler, bodyLimit int) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "mobile-money-parser " + Version,
		BodyLimit:             bodyLimit,
		ErrorHandler:          errorHandler,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type",
	}))
	app.Use(requestid.New(requestid.Config{
		Generator:  uuid.NewString,
		ContextKey: requestIDKey,
	}))
	app.Use(h.withRequestLogger)

	h.RegisterRoutes(app)
	return app
}

// RegisterRoutes sets up the HTTP routes.
func (h *Handler) RegisterRoutes(app *fiber.App) {
	api := app.Group("/api")
	api.Get("/health", h.HandleHealth)
	api.Post("/parse", h.HandleParse)
	api.Post("/parse/batch", h.HandleBatch)
	api.Get("/samples", h.HandleSamples)
	api.Get("/samples/:name", h.HandleSample)

	// Serve the UI build, falling back to index.html for client routes.
	if h.StaticDir != "" {
		app.Static("/", h.StaticDir)
		app.Get("/*", func(c *fiber.Ctx) error {
			if strings.HasPrefix(c.Path(), "/api/") {
				return fiber.ErrNotFound
			}
			index := filepath.Join(h.StaticDir, "index.html")
			if _, err := os.Stat(index); err != nil {
				return fiber.ErrNotFound
			}
			return c.SendFile(index)
		})
	}
}

// withRequestLogger stores a request-scoped logger in the user context.
func (h *Handler) withRequestLogger(c *fiber.Ctx) error {
	log := logger.WithFields(h.Log, map[string]interface{}{
		"request_id": requestID(c),
		"path":       c.Path(),
	})
	c.SetUserContext(logger.WithContext(c.UserContext(), log))
	return c.Next()
}

// HandleHealth reports liveness.
func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"engine":  "fiber",
		"version": Version,
	})
}

// HandleParse parses one message, or a debit/confirmation pair when
// combined is set. Unparseable messages are a 200 with success=false.
func (h *Handler) HandleParse(c *fiber.Ctx) error {
	req, err := bindParseRequest(c)
	if err != nil {
		return err
	}

	var tx models.ParsedTransaction
	if req.Combined {
		tx = h.Engine.ParseCombined(req.Message)
		if !tx.Success {
			tx = h.Engine.Parse(req.Message)
		}
	} else {
		tx = h.Engine.Parse(req.Message)
	}

	log := logger.FromContext(c.UserContext())
	log.Info().
		Bool("combined", req.Combined).
		Bool("success", tx.Success).
		Str("provider", string(tx.Provider)).
		Str("matcher", tx.Matcher).
		Msg("message parsed")

	return c.JSON(ParseResponse{RequestID: requestID(c), Transaction: tx})
}

// HandleBatch parses every message of a pasted thread.
func (h *Handler) HandleBatch(c *fiber.Ctx) error {
	req, err := bindParseRequest(c)
	if err != nil {
		return err
	}

	txns := h.Engine.ParseBatch(req.Message)
	parsed := 0
	for _, tx := range txns {
		if tx.Success {
			parsed++
		}
	}

	log := logger.FromContext(c.UserContext())
	log.Info().
		Int("count", len(txns)).
		Int("parsed", parsed).
		Msg("batch parsed")

	return c.JSON(BatchResponse{
		RequestID:    requestID(c),
		Transactions: txns,
		Count:        len(txns),
		Parsed:       parsed,
	})
}

// HandleSamples lists the sample catalog, optionally filtered by ?format=.
func (h *Handler) HandleSamples(c *fiber.Ctx) error {
	list := samples.All()
	if format := c.Query("format"); format != "" {
		list = samples.ByFormat(format)
	}
	if list == nil {
		list = []samples.Sample{}
	}
	return c.JSON(list)
}

// HandleSample returns one sample together with its parse.
func (h *Handler) HandleSample(c *fiber.Ctx) error {
	s, ok := samples.Get(c.Params("name"))
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "unknown sample: "+c.Params("name"))
	}
	return c.JSON(SampleResponse{Sample: s, Transaction: h.Engine.ParseText(s.Message)})
}

func bindParseRequest(c *fiber.Ctx) (ParseRequest, error) {
	var req ParseRequest
	if err := c.BodyParser(&req); err != nil {
		return req, fiber.NewError(fiber.StatusBadRequest, "invalid request body: "+err.Error())
	}
	if strings.TrimSpace(req.Message) == "" {
		return req, fiber.NewError(fiber.StatusBadRequest, "message is required")
	}
	return req, nil
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals(requestIDKey).(string); ok {
		return id
	}
	return ""
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		log := logger.FromContext(c.UserContext())
		log.Error().Err(err).Msg("request failed")
	}
	return c.Status(code).JSON(ErrorResponse{Success: false, Error: err.Error()})
}
