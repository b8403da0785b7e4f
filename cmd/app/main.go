package main

import (
	"VoxMail/internal/config"
	"VoxMail/pkg/events"
	"VoxMail/pkg/google"
	"VoxMail/pkg/log"
	"VoxMail/pkg/metrics"
	"VoxMail/pkg/redis"
	websocketPkg "VoxMail/pkg/websocket"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
)

func main() {
	logger := log.NewLogger()
	if err := godotenv.Load(); err != nil {
		logger.Warnf("No .env file loaded: %v", err)
	}

	fiberApp := config.NewFiber(logger)
	validator := config.NewValidator()
	googleProvider := google.New()
	redisServer := redis.New()
	faceEncoder := websocketPkg.NewFaceEncoderClient(logger)
	publisher := events.New(events.ConfigFromEnv(), logger, metrics.DefaultMetrics)

	server, err := config.NewServer(
		config.WithFiber(fiberApp),
		config.WithLogger(logger),
		config.WithValidator(validator),
		config.WithDatabase(),
		config.WithGoogleProvider(googleProvider),
		config.WithRedisServer(redisServer),
		config.WithFaceEncoder(faceEncoder),
		config.WithMiddleware(),
		config.WithS3Client(),
		config.WithMetrics(metrics.DefaultMetrics),
		config.WithPublisher(publisher),
		config.WithVoiceConfig(config.LoadVoiceConfig()),
		config.WithInterpreter(),
		config.WithUtils(),
	)
	if err != nil {
		logger.Fatal(err)
	}

	server.RegisterHandler()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.Run(); err != nil {
			logger.Fatalf("Error starting server: %v", err)
		}
	}()

	logger.Info("Server started successfully")

	<-sigChan
	logger.Info("Shutting down server...")
	if err := server.Shutdown(); err != nil {
		logger.Errorf("Shutdown error: %v", err)
	}
}
