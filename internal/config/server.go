package config

import (
	"VoxMail/database/postgres"
	biometricHandler "VoxMail/internal/api/biometric/handler"
	biometricRepository "VoxMail/internal/api/biometric/repository"
	biometricService "VoxMail/internal/api/biometric/service"
	mailHandler "VoxMail/internal/api/mail/handler"
	mailRepository "VoxMail/internal/api/mail/repository"
	mailService "VoxMail/internal/api/mail/service"
	voiceHandler "VoxMail/internal/api/voice/handler"
	voiceRepository "VoxMail/internal/api/voice/repository"
	voiceService "VoxMail/internal/api/voice/service"
	"VoxMail/internal/middleware"
	"VoxMail/pkg/events"
	"VoxMail/pkg/google"
	"VoxMail/pkg/metrics"
	"VoxMail/pkg/nlp"
	"VoxMail/pkg/redis"
	"VoxMail/pkg/s3"
	"VoxMail/pkg/utils"
	websocketPkg "VoxMail/pkg/websocket"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

type ServerOption func(*Server) error

type Server struct {
	engine         *fiber.App
	db             *sqlx.DB
	log            *logrus.Logger
	middleware     middleware.Middleware
	validator      *validator.Validate
	utils          utils.IUtils
	handlers       []handler
	googleProvider google.ItfGoogle
	redisServer    redis.IRedis
	faceEncoder    websocketPkg.IFaceEncoder
	s3Client       s3.ItfS3
	metrics        *metrics.Metrics
	publisher      events.IPublisher
	interpreter    nlp.IInterpreter
	voiceConfig    *voiceService.VoiceConfig
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if server.metrics == nil {
		server.metrics = metrics.DefaultMetrics
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

func WithDatabase() ServerOption {
	return func(s *Server) error {
		db, err := postgres.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to connect to database: %v", err)
			}
			return fmt.Errorf("failed to create database connection: %w", err)
		}
		s.db = db
		return nil
	}
}

func WithGoogleProvider(provider google.ItfGoogle) ServerOption {
	return func(s *Server) error {
		s.googleProvider = provider
		return nil
	}
}

func WithRedisServer(redisServer redis.IRedis) ServerOption {
	return func(s *Server) error {
		s.redisServer = redisServer
		return nil
	}
}

func WithFaceEncoder(encoder websocketPkg.IFaceEncoder) ServerOption {
	return func(s *Server) error {
		s.faceEncoder = encoder
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		s.middleware = middleware.New(s.log)
		return nil
	}
}

func WithS3Client() ServerOption {
	return func(s *Server) error {
		client, err := s3.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to initialize S3 client: %v", err)
			}
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		s.s3Client = client
		return nil
	}
}

func WithMetrics(m *metrics.Metrics) ServerOption {
	return func(s *Server) error {
		s.metrics = m
		return nil
	}
}

func WithPublisher(publisher events.IPublisher) ServerOption {
	return func(s *Server) error {
		s.publisher = publisher
		return nil
	}
}

func WithVoiceConfig(cfg *voiceService.VoiceConfig) ServerOption {
	return func(s *Server) error {
		s.voiceConfig = cfg
		return nil
	}
}

// WithInterpreter loads the command table named by the voice config, or
// the built-in table when none is set. Apply after WithVoiceConfig.
func WithInterpreter() ServerOption {
	return func(s *Server) error {
		path := ""
		if s.voiceConfig != nil {
			path = s.voiceConfig.CommandTablePath
		}

		table, err := nlp.LoadCommandTable(afero.NewOsFs(), path)
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to load command table: %v", err)
			}
			return fmt.Errorf("failed to load command table: %w", err)
		}
		s.interpreter = nlp.NewInterpreter(table)
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.New()
		return nil
	}
}

func (s *Server) RegisterHandler() {
	// Voice Domain
	voiceRepo := voiceRepository.New(s.db, s.log)
	voiceServices := voiceService.NewVoiceService(s.log, voiceRepo, s.utils, s.interpreter, s.publisher, s.metrics, s.voiceConfig)
	voiceHandlers := voiceHandler.New(s.log, s.validator, s.middleware, voiceServices, s.utils)

	// Biometric Domain
	biometricRepo := biometricRepository.New(s.db, s.log)
	biometricServices := biometricService.New(s.log, biometricRepo, s.faceEncoder, s.s3Client, s.utils, s.metrics, LoadBiometricConfig())
	biometricHandlers := biometricHandler.New(s.log, s.validator, s.middleware, biometricServices)

	// Mail Domain
	mailRepo := mailRepository.New(s.db, s.log)
	mailServices := mailService.New(s.log, mailRepo, s.googleProvider, s.redisServer, s.utils, s.metrics, LoadMailConfig())
	mailHandlers := mailHandler.New(s.log, s.validator, s.middleware, mailServices)

	s.setupHealthCheck()
	s.setupMetrics()
	s.handlers = append(s.handlers, voiceHandlers, biometricHandlers, mailHandlers)
}

func (s *Server) Run() error {
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(middleware.LoggerConfig())
	router := s.engine.Group("/api/v1")

	for _, h := range s.handlers {
		h.Start(router)
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "3000"
	}

	return s.engine.Listen(fmt.Sprintf(":%s", port))
}

// Shutdown stops accepting requests and releases the outbound clients.
func (s *Server) Shutdown() error {
	err := s.engine.Shutdown()

	if s.publisher != nil {
		if cerr := s.publisher.Close(); cerr != nil {
			s.log.Errorf("Failed to close event publisher: %v", cerr)
		}
	}
	if s.faceEncoder != nil {
		s.faceEncoder.Close()
	}
	if s.db != nil {
		if cerr := s.db.Close(); cerr != nil {
			s.log.Errorf("Failed to close database: %v", cerr)
		}
	}

	return err
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"message": "Server is Healthy!",
		})
	})
}

func (s *Server) setupMetrics() {
	s.engine.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
}
