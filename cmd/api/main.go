package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	_ "github.com/johnquangdev/mock-interview/docs"
	"github.com/johnquangdev/mock-interview/internal/adapter/handler"
	"github.com/johnquangdev/mock-interview/internal/adapter/repository"
	"github.com/johnquangdev/mock-interview/internal/adapter/repository/memory"
	"github.com/johnquangdev/mock-interview/internal/domain/repositories"
	"github.com/johnquangdev/mock-interview/internal/infrastructure/cache"
	"github.com/johnquangdev/mock-interview/internal/infrastructure/database"
	httpmw "github.com/johnquangdev/mock-interview/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/mock-interview/internal/infrastructure/storage"
	"github.com/johnquangdev/mock-interview/internal/usecase/analysis"
	"github.com/johnquangdev/mock-interview/internal/usecase/interview"
	pkgai "github.com/johnquangdev/mock-interview/pkg/ai"
	"github.com/johnquangdev/mock-interview/pkg/config"
	"github.com/johnquangdev/mock-interview/pkg/jwt"
	"github.com/johnquangdev/mock-interview/pkg/keylock"
	"github.com/johnquangdev/mock-interview/pkg/logger"
	pkgvalidator "github.com/johnquangdev/mock-interview/pkg/validator"
)

// @title           Mock Interview API
// @version         1.0
// @description     Adaptive interview sessions: answer evaluation, skill profiling, follow-up question generation and multi-modal analysis

// @contact.name   API Support
// @contact.email  support@infoquang.id.vn

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @BasePath  /v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	l, err := logger.New(logger.Options{
		Level:      cfg.Log.Level,
		JSON:       cfg.Log.JSON || cfg.Server.Environment == "production",
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer l.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Echo instance
	e := echo.New()
	e.Validator = pkgvalidator.New()
	e.HTTPErrorHandler = handler.ErrorHandler(l)
	e.HideBanner = true

	e.Use(middleware.RequestID())
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))

	l.Info("🔧 Initializing dependencies...")

	// Repositories
	var (
		sessionRepo  repositories.SessionRepository
		answerRepo   repositories.AnswerRepository
		analysisRepo repositories.AnalysisRepository
	)
	switch cfg.Engine.StoreBackend {
	case "memory":
		l.Warn("⚠️  Using in-memory session store; data is lost on restart")
		mem := memory.NewStore()
		sessionRepo, answerRepo, analysisRepo = mem.Sessions(), mem.Answers(), mem.Analysis()
	default:
		l.Info("📦 Connecting to database...")
		db, err := database.NewPostgresDB(cfg, l)
		if err != nil {
			l.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer database.CloseDB(db)

		// Production deployments manage schema with interviewctl migrate
		if cfg.Database.AutoMigrate {
			if cfg.Server.Environment == "production" {
				l.Fatal("AutoMigrate is enabled in production. Disable DB_AUTO_MIGRATE and run interviewctl migrate up")
			}
			if err := database.AutoMigrate(db, l); err != nil {
				l.Fatal("Failed to run migrations", zap.Error(err))
			}
		}
		sessionRepo = repository.NewSessionRepository(db)
		answerRepo = repository.NewAnswerRepository(db)
		analysisRepo = repository.NewAnalysisRepository(db)
	}

	// Thread memory for the generation service
	var threads pkgai.ThreadStore
	switch cfg.Engine.ThreadBackend {
	case "memory":
		threads = cache.NewMemoryThreadStore(ctx)
	default:
		l.Info("📦 Connecting to Redis...")
		redisClient, err := cache.NewRedisClient(cfg)
		if err != nil {
			l.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		threads = cache.NewRedisThreadStore(redisClient)
	}

	// Blob storage for resumes and media
	var blobs interface {
		interview.BlobStore
		analysis.BlobStore
	}
	if cfg.Storage.Type == "memory" {
		blobs = storage.NewMemoryBlobStore()
	} else {
		l.Info("🗄️  Connecting to object storage...", zap.String("endpoint", cfg.Storage.Endpoint))
		minioClient, err := storage.NewMinIOClient(ctx, &cfg.Storage)
		if err != nil {
			l.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		blobs = minioClient
	}

	// Generation service
	l.Info("🤖 Initializing AI components...", zap.String("provider", cfg.Engine.Provider))
	text, multimodal, err := newGenerators(ctx, cfg, l)
	if err != nil {
		l.Fatal("Failed to initialize generation service", zap.Error(err))
	}
	policy := pkgai.RetryPolicy{
		Timeout:     cfg.Engine.GenerationTimeout,
		MaxAttempts: cfg.Engine.RetryMaxAttempts,
		Initial:     cfg.Engine.RetryInitial,
		Max:         cfg.Engine.RetryMax,
	}
	textGen := pkgai.NewThreadedGenerator(pkgai.NewRetryingGenerator(text, policy, l), threads, cfg.Engine.ThreadTTL)
	var mediaGen pkgai.Generator
	if multimodal != nil {
		mediaGen = pkgai.NewRetryingGenerator(multimodal, policy, l)
	}

	var transcriber analysis.Transcriber
	if cfg.AssemblyAI.APIKey != "" {
		transcriber = pkgai.NewTranscriber(cfg.AssemblyAI.APIKey, l)
	} else {
		l.Warn("⚠️  ASSEMBLYAI_API_KEY not set; transcription is disabled")
	}

	prompts, err := interview.LoadPrompts(cfg.Engine.PromptsFile)
	if err != nil {
		l.Fatal("Failed to load prompt templates", zap.Error(err))
	}

	rating := interview.Scale{Min: cfg.Engine.RatingMin, Max: cfg.Engine.RatingMax}
	skill := interview.Scale{Min: cfg.Engine.SkillMin, Max: cfg.Engine.SkillMax}

	// Services
	l.Info("✨ Initializing interview service...")
	interviewService := interview.NewInterviewService(interview.Dependencies{
		Store:    interview.NewSessionStore(sessionRepo, keylock.New(), l),
		Answers:  answerRepo,
		Analysis: analysisRepo,
		Evaluator: interview.NewEvaluator(textGen, prompts, interview.EvaluatorOptions{
			Rating:       rating,
			Skill:        skill,
			RequestTags:  cfg.Engine.RequestTags,
			ParseRetries: cfg.Engine.EvaluatorRetries,
		}, l),
		Generator: interview.NewQuestionGenerator(textGen, mediaGen, prompts, interview.GeneratorOptions{
			ParseRetries: cfg.Engine.GeneratorRetries,
			FullHistory:  cfg.Engine.FullHistory,
			SeedCount:    cfg.Engine.SeedQuestions,
		}, l),
		Blobs:   blobs,
		Threads: textGen,
		Rating:  rating,
	}, l)

	mediaForAnalysis := mediaGen
	if mediaForAnalysis == nil {
		mediaForAnalysis = pkgai.NewRetryingGenerator(text, policy, l)
	}
	analysisService := analysis.NewAnalysisService(interviewService, mediaForAnalysis, blobs, transcriber, prompts, analysis.Options{
		Rating:       rating,
		ParseRetries: cfg.Engine.GeneratorRetries,
	}, l)

	// JWT validation; tokens are issued by the identity provider or interviewctl token
	jwtManager := jwt.NewManager(cfg.JWT.AccessSecret, cfg.JWT.AccessExpiry)

	// Routes
	l.Info("🛣️  Setting up routes...")
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	router := handler.NewRouter(cfg,
		httpmw.EchoAuth(jwtManager),
		handler.NewInterviewHandler(interviewService, l),
		handler.NewAnalysisHandler(interviewService, analysisService, l),
	)
	router.Setup(e)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		l.Info("🚀 Starting server", zap.String("addr", addr), zap.String("environment", cfg.Server.Environment))

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			l.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	l.Info("🛑 Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		l.Error("❌ Server forced to shutdown", zap.Error(err))
		return
	}

	l.Info("✅ Server stopped gracefully")
}

// newGenerators returns the text generator for ENGINE_PROVIDER and, when a Gemini key is
// configured, a multimodal generator for resume, audio and snapshot attachments
func newGenerators(ctx context.Context, cfg *config.Config, l *zap.Logger) (pkgai.Generator, pkgai.Generator, error) {
	var multimodal pkgai.Generator
	if cfg.Gemini.APIKey != "" {
		gemini, err := pkgai.NewGeminiClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, l)
		if err != nil {
			return nil, nil, err
		}
		multimodal = gemini
	}

	switch cfg.Engine.Provider {
	case "gemini":
		if multimodal == nil {
			return nil, nil, fmt.Errorf("GEMINI_API_KEY is required for provider gemini")
		}
		return multimodal, multimodal, nil
	default:
		if multimodal == nil {
			l.Warn("⚠️  GEMINI_API_KEY not set; resume interviews and media analysis will fail")
		}
		return pkgai.NewGroqClient(&cfg.Groq, l), multimodal, nil
	}
}
