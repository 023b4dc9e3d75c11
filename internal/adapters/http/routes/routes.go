package routes

import (
	"path/filepath"
	"time"

	"sistema-vacunacion/internal/adapters/http/handlers"
	"sistema-vacunacion/internal/adapters/http/middleware"
	"sistema-vacunacion/internal/adapters/persistence/repositories"
	"sistema-vacunacion/internal/config"
	"sistema-vacunacion/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Dependencies are the long-lived collaborators owned by the caller
type Dependencies struct {
	DB      *gorm.DB
	Config  *config.Config
	Auditor services.Auditor
	Codes   services.CodeStore
	Mailer  services.Mailer
	Redis   *redis.Client // nil when Redis is not configured
}

// Setup configures all routes for the application
func Setup(app *fiber.App, deps *Dependencies) error {
	db, cfg := deps.DB, deps.Config

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	roleRepo := repositories.NewRoleRepository(db)
	permissionRepo := repositories.NewPermissionRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	vaccineRepo := repositories.NewVaccineRepository(db)
	scheduleRepo := repositories.NewScheduleRepository(db)
	historyRepo := repositories.NewHistoryRepository(db)
	auditRepo := repositories.NewAuditRepository(db)
	contentRepo := repositories.NewPageContentRepository(db)
	appliedRepo := repositories.NewAppliedVaccineRepository(db)
	uow := repositories.NewUnitOfWork(db)

	// Initialize services
	authService := services.NewAuthService(userRepo, refreshTokenRepo, deps.Codes, deps.Mailer, deps.Auditor, cfg)
	userService := services.NewUserService(userRepo, roleRepo, historyRepo, deps.Auditor)
	roleService := services.NewRoleService(roleRepo, permissionRepo, userRepo, deps.Auditor)
	vaccineService := services.NewVaccineService(vaccineRepo, historyRepo, deps.Auditor)
	scheduleService := services.NewScheduleService(scheduleRepo, vaccineRepo, deps.Auditor)
	doseService := services.NewDoseService(uow, userRepo, historyRepo, deps.Auditor, cfg.Inventory.RestoreStockOnHistoryDelete)
	auditService := services.NewAuditService(auditRepo)
	reportService := services.NewReportService(db, auditRepo)
	contentService := services.NewContentService(contentRepo, deps.Auditor)
	appliedService := services.NewAppliedVaccineService(appliedRepo, userRepo, deps.Auditor)
	mediaService, err := services.NewMediaService(cfg.Upload, deps.Auditor)
	if err != nil {
		return err
	}

	h := &routeHandlers{
		health:   handlers.NewHealthHandler(cfg, deps.Redis),
		auth:     handlers.NewAuthHandler(authService, cfg),
		user:     handlers.NewUserHandler(userService),
		role:     handlers.NewRoleHandler(roleService),
		vaccine:  handlers.NewVaccineHandler(vaccineService, cfg.Inventory.LowStockThreshold),
		schedule: handlers.NewScheduleHandler(scheduleService),
		history:  handlers.NewHistoryHandler(doseService),
		audit:    handlers.NewAuditHandler(auditService),
		report:   handlers.NewReportHandler(reportService),
		content:  handlers.NewContentHandler(contentService, mediaService),
		applied:  handlers.NewAppliedVaccineHandler(appliedService),
	}

	// Health check, metrics & root routes
	app.Get("/", h.health.Root)
	app.Get("/health", h.health.HealthCheck)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// Uploaded images
	app.Use("/"+services.CarouselFolder, middleware.UploadedFiles())
	app.Use("/"+services.AboutUsFolder, middleware.UploadedFiles())
	app.Static("/"+services.CarouselFolder, filepath.Join(cfg.Upload.Dir, services.CarouselFolder), fiber.Static{MaxAge: 3600})
	app.Static("/"+services.AboutUsFolder, filepath.Join(cfg.Upload.Dir, services.AboutUsFolder), fiber.Static{MaxAge: 3600})

	// API v1 group
	apiV1 := app.Group("/api/v1")
	setupAPIV1Routes(apiV1, h, middleware.AuthMiddleware(authService))

	app.Use(middleware.NotFound())
	return nil
}

type routeHandlers struct {
	health   *handlers.HealthHandler
	auth     *handlers.AuthHandler
	user     *handlers.UserHandler
	role     *handlers.RoleHandler
	vaccine  *handlers.VaccineHandler
	schedule *handlers.ScheduleHandler
	history  *handlers.HistoryHandler
	audit    *handlers.AuditHandler
	report   *handlers.ReportHandler
	content  *handlers.ContentHandler
	applied  *handlers.AppliedVaccineHandler
}

// setupAPIV1Routes configures API v1 routes
func setupAPIV1Routes(router fiber.Router, h *routeHandlers, auth fiber.Handler) {
	router.Get("/", h.health.APIInfo)

	setupAuthRoutes(router.Group("/auth"), h.auth, auth)
	setupUserRoutes(router.Group("/users"), h.user, h.role, auth)

	// Profile routes (authenticated users)
	profileRoutes := router.Group("/profile", auth, middleware.NoCache())
	profileRoutes.Get("/", h.user.GetProfile)
	profileRoutes.Put("/", h.user.UpdateProfile)
	profileRoutes.Put("/password", h.user.ChangePassword)

	setupRoleRoutes(router, h.role, auth)
	setupVaccineRoutes(router.Group("/vaccines", auth), h.vaccine)
	setupScheduleRoutes(router.Group("/schedules", auth), h.schedule)
	setupHistoryRoutes(router.Group("/history", auth, middleware.NoCache()), h.history)

	// Audit log (admin only)
	router.Get("/audit-log", auth, middleware.AdminOnly(), h.audit.List)

	setupReportRoutes(router.Group("/reports", auth, middleware.AdminOnly()), h.report)
	setupContentRoutes(router, h.content, auth)

	// Applied vaccine register (staff)
	appliedRoutes := router.Group("/applied-vaccines", auth, middleware.StaffOnly())
	appliedRoutes.Get("/", h.applied.List)
	appliedRoutes.Post("/", h.applied.Create)
	appliedRoutes.Put("/:id", h.applied.Update)
	appliedRoutes.Delete("/:id", h.applied.Delete)
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, auth fiber.Handler) {
	router.Use(middleware.NoCache())

	// Public routes
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/refresh", handler.RefreshToken)
	router.Post("/logout", handler.Logout)
	router.Post("/forgot-password", middleware.StrictRateLimiter(), handler.ForgotPassword)
	router.Post("/verify-code", middleware.AuthRateLimiter(), handler.VerifyCode)
	router.Post("/reset-password", middleware.AuthRateLimiter(), handler.ResetPassword)

	// Protected routes
	router.Get("/me", auth, handler.Me)
	router.Post("/logout-all", auth, handler.LogoutAll)
}

// setupUserRoutes configures user routes. Registration is public.
func setupUserRoutes(router fiber.Router, handler *handlers.UserHandler, roleHandler *handlers.RoleHandler, auth fiber.Handler) {
	admin := middleware.AdminOnly()
	staff := middleware.StaffOnly()

	router.Post("/", middleware.AuthRateLimiter(), handler.Register)

	router.Get("/national-id/:nationalId", auth, staff, handler.GetByNationalID)
	router.Get("/", auth, admin, handler.List)
	router.Get("/:id", auth, admin, handler.Get)
	router.Put("/:id", auth, admin, handler.Update)
	router.Patch("/:id/status", auth, admin, handler.SetStatus)
	router.Delete("/:id", auth, admin, handler.Delete)
	router.Get("/:id/roles", auth, admin, roleHandler.RolesOfUser)
	router.Put("/:id/roles", auth, admin, handler.SetRoles)
}

// setupRoleRoutes configures role and permission routes (admin only)
func setupRoleRoutes(router fiber.Router, handler *handlers.RoleHandler, auth fiber.Handler) {
	router.Get("/permissions", auth, middleware.AdminOnly(), handler.ListPermissions)

	roles := router.Group("/roles", auth, middleware.AdminOnly())
	roles.Get("/", handler.List)
	roles.Post("/", handler.Create)
	roles.Get("/users", handler.UsersWithRoles)
	roles.Get("/:id", handler.Get)
	roles.Put("/:id", handler.Update)
	roles.Delete("/:id", handler.Delete)
	roles.Patch("/:id/status", handler.ToggleStatus)
	roles.Put("/:id/permissions", handler.SetPermissions)
}

// setupVaccineRoutes configures vaccine routes (authenticated)
func setupVaccineRoutes(router fiber.Router, handler *handlers.VaccineHandler) {
	admin := middleware.AdminOnly()
	staff := middleware.StaffOnly()

	router.Get("/", handler.List)
	router.Get("/low-stock", staff, handler.LowStock)
	router.Get("/:id", handler.Get)
	router.Get("/:id/applied-today", staff, handler.AppliedToday)
	router.Patch("/:id/reduce-stock", staff, handler.ReduceStock)

	router.Post("/", admin, handler.Create)
	router.Put("/:id", admin, handler.Update)
	router.Delete("/:id", admin, handler.Delete)
	router.Patch("/:id/status", admin, handler.ToggleStatus)
	router.Put("/:id/stock", admin, handler.SetStock)
}

// setupScheduleRoutes configures dose schedule routes (authenticated)
func setupScheduleRoutes(router fiber.Router, handler *handlers.ScheduleHandler) {
	admin := middleware.AdminOnly()

	router.Get("/", middleware.PrivateCache(5*time.Minute), handler.List)
	router.Post("/", admin, handler.Create)
	router.Put("/:id", admin, handler.Update)
	router.Delete("/:id", admin, handler.Delete)
}

// setupHistoryRoutes configures dose history routes (authenticated)
func setupHistoryRoutes(router fiber.Router, handler *handlers.HistoryHandler) {
	staff := middleware.StaffOnly()

	router.Get("/", staff, handler.List)
	router.Post("/", staff, handler.Apply)
	router.Get("/user/:userId", handler.GetByUserID)
	router.Get("/:nationalId", handler.GetByNationalID)
	router.Put("/:id", staff, handler.Edit)
	router.Delete("/:id", middleware.AdminOnly(), handler.Delete)
}

// setupReportRoutes configures report routes (admin only)
func setupReportRoutes(router fiber.Router, handler *handlers.ReportHandler) {
	router.Get("/dashboard", handler.Dashboard)
	router.Get("/vaccines-applied", handler.VaccinesApplied)
	router.Get("/vaccine-types", handler.VaccineTypes)
	router.Get("/monthly-growth", handler.MonthlyGrowth)
	router.Get("/monthly-progress", handler.MonthlyProgress)
	router.Get("/available-years", handler.AvailableYears)
	router.Get("/users-complete", handler.UsersComplete)
	router.Get("/vaccines-complete", handler.VaccinesComplete)
	router.Get("/audit-complete", handler.AuditComplete)
	router.Get("/upcoming-doses", handler.UpcomingDoses)
}

// setupContentRoutes configures about-us and carousel routes. Reads are public.
func setupContentRoutes(router fiber.Router, handler *handlers.ContentHandler, auth fiber.Handler) {
	admin := middleware.AdminOnly()
	cache := middleware.PublicCache(5 * time.Minute)

	about := router.Group("/about-us")
	about.Get("/", cache, handler.GetAboutUs)
	about.Put("/", auth, admin, handler.ReplaceAboutUs)
	about.Post("/sections", auth, admin, handler.AddSection)
	about.Put("/sections/:index", auth, admin, handler.UpdateSection)
	about.Delete("/sections/:index", auth, admin, handler.DeleteSection)
	about.Post("/image", auth, admin, handler.UploadAboutUsImage)

	carousel := router.Group("/carousel")
	carousel.Get("/", cache, handler.ListCarousel)
	carousel.Post("/", auth, admin, handler.UploadCarousel)
	carousel.Delete("/", auth, admin, handler.DeleteCarousel)
}
