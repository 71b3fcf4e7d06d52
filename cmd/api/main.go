package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classops-api/internal/config"
	"github.com/noah-isme/classops-api/internal/database"
	"github.com/noah-isme/classops-api/internal/handler"
	"github.com/noah-isme/classops-api/internal/middleware"
	"github.com/noah-isme/classops-api/internal/models"
	"github.com/noah-isme/classops-api/internal/repository"
	"github.com/noah-isme/classops-api/internal/router"
	"github.com/noah-isme/classops-api/internal/service"
	"github.com/noah-isme/classops-api/pkg/ai"
	cloud "github.com/noah-isme/classops-api/pkg/cloudinary"
	"github.com/noah-isme/classops-api/pkg/mailer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Class{},
		&models.Enrollment{},
		&models.Group{},
		&models.GroupMember{},
		&models.Assignment{},
		&models.Submission{},
		&models.Evaluation{},
		&models.ClassInvite{},
		&models.ActivityLog{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = nats.Connect(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	}

	uploader, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	var mail mailer.Mailer
	if cfg.SendgridAPIKey != "" && cfg.MailFromAddress != "" {
		mail, err = mailer.NewSendgrid(mailer.SendgridConfig{
			APIKey:      cfg.SendgridAPIKey,
			FromName:    cfg.MailFromName,
			FromAddress: cfg.MailFromAddress,
		}, logger)
		if err != nil {
			log.Fatalf("failed to create sendgrid client: %v", err)
		}
	} else {
		mail = mailer.Console{Logger: logger}
	}

	var evaluator ai.Evaluator
	if cfg.AIProvider == "openai" && cfg.OpenAIAPIKey != "" {
		openAI, err := ai.NewOpenAIEvaluator(ai.OpenAIConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.OpenAIModel,
			Logger: logger,
		})
		if err != nil {
			log.Fatalf("failed to create ai evaluator: %v", err)
		}
		evaluator = openAI
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	events := service.NewEventPublisher(natsConn, logger)

	userRepo := repository.NewUserRepository(db)
	classRepo := repository.NewClassRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	evaluationRepo := repository.NewEvaluationRepository(db)
	inviteRepo := repository.NewInviteRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	activityService := service.NewActivityService(activityRepo, classRepo, logger)
	authService := service.NewAuthService(userRepo, validate, cfg.JWTSecret, cfg.JWTTTL, logger)
	classService := service.NewClassService(classRepo, validate, events, logger)
	groupService := service.NewGroupService(groupRepo, classRepo, validate, activityService, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, submissionRepo, classRepo, validate, uploader, activityService, logger)
	submissionService := service.NewSubmissionService(submissionRepo, assignmentRepo, groupRepo, classRepo, validate, uploader, events, logger)
	evaluationService := service.NewEvaluationService(evaluationRepo, submissionRepo, classRepo, validate, evaluator, events, logger)
	inviteService := service.NewInviteService(inviteRepo, classRepo, userRepo, validate, mail, events, activityService, cfg.InviteBaseURL, logger)
	documentService := service.NewDocumentService(assignmentRepo, submissionRepo, classRepo, logger)
	reminderService := service.NewReminderService(assignmentRepo, classRepo, mail, cfg.ReminderInterval, cfg.ReminderWindow, logger)

	authHandler := handler.NewAuthHandler(authService, logger)
	classHandler := handler.NewClassHandler(classService, logger)
	groupHandler := handler.NewGroupHandler(groupService, logger)
	assignmentHandler := handler.NewAssignmentHandler(assignmentService, logger)
	submissionHandler := handler.NewSubmissionHandler(submissionService, logger)
	evaluationHandler := handler.NewEvaluationHandler(evaluationService, logger)
	inviteHandler := handler.NewInviteHandler(inviteService, logger)
	documentHandler := handler.NewDocumentHandler(documentService, logger)
	activityHandler := handler.NewActivityHandler(activityService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    cfg.MaxUploadBytes,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AllowOrigins: cfg.CORSAllowOrigins})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:       authHandler,
		ClassHandler:      classHandler,
		GroupHandler:      groupHandler,
		AssignmentHandler: assignmentHandler,
		SubmissionHandler: submissionHandler,
		EvaluationHandler: evaluationHandler,
		InviteHandler:     inviteHandler,
		DocumentHandler:   documentHandler,
		ActivityHandler:   activityHandler,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
		DB:                db,
	})

	reminderCtx, stopReminders := context.WithCancel(context.Background())
	defer stopReminders()
	go reminderService.Run(reminderCtx)

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, stopReminders)
}

func waitForShutdown(app *fiber.App, stopReminders context.CancelFunc) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()
	stopReminders()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
