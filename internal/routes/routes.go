package routes

import (
	"time"

	"docmanager/internal/auth"
	"docmanager/internal/handlers"
	"docmanager/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// Setup wires the route table. Authorization layering: the JWT middleware
// rejects unauthenticated requests, AdminRequired gates the admin groups, and
// ownership rules live in the services via the authz package.
func Setup(
	app *fiber.App,
	tokens *auth.TokenService,
	authHandler *handlers.AuthHandler,
	documentHandler *handlers.DocumentHandler,
	userHandler *handlers.UserHandler,
	tagHandler *handlers.TagHandler,
	healthHandler *handlers.HealthHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP.
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Public auth endpoints.
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/refresh", authHandler.Refresh)

	// Auth endpoints that require a valid access token.
	protected := middleware.Protected(tokens)
	authGroup.Post("/logout", protected, authHandler.Logout)
	authGroup.Put("/change-password", protected, authHandler.ChangePassword)
	authGroup.Get("/me", protected, authHandler.Me)
	authGroup.Get("/validate", protected, authHandler.Validate)

	// Documents. Ownership is enforced in the service layer.
	docs := api.Group("/documents", protected)
	docs.Get("/", documentHandler.List)
	docs.Post("/", documentHandler.Create)
	docs.Post("/upload", documentHandler.Upload)
	docs.Get("/search", documentHandler.Search)
	docs.Get("/stats", documentHandler.Stats)
	docs.Get("/:id", documentHandler.Get)
	docs.Get("/:id/download", documentHandler.Download)
	docs.Put("/:id", documentHandler.Update)
	docs.Delete("/:id", documentHandler.Delete)

	// Tags are shared vocabulary, readable by any authenticated user.
	tags := api.Group("/tags", protected)
	tags.Get("/", tagHandler.List)
	tags.Get("/my", tagHandler.My)
	tags.Get("/search", tagHandler.Search)
	tags.Get("/check/:name", tagHandler.Check)
	tags.Post("/", tagHandler.Create)

	// Tag mutation and aggregates span other users' documents; admin-only.
	// Fixed paths register before the :id routes so "stats" and "unused" are
	// never captured as ids.
	tagsAdmin := tags.Group("", middleware.AdminRequired())
	tagsAdmin.Get("/stats", tagHandler.Stats)
	tagsAdmin.Delete("/unused", tagHandler.DeleteUnused)

	tags.Get("/:id", tagHandler.Get)
	tagsAdmin.Put("/:id", tagHandler.Rename)
	tagsAdmin.Delete("/:id", tagHandler.Delete)

	// Users. Profile update is self-or-admin (checked in the service);
	// everything else on this group is administrative.
	users := api.Group("/users", protected)
	users.Put("/:id", userHandler.Update)

	usersAdmin := users.Group("", middleware.AdminRequired())
	usersAdmin.Get("/", userHandler.List)
	usersAdmin.Post("/", userHandler.Create)
	usersAdmin.Get("/username/:username", userHandler.GetByUsername)
	usersAdmin.Get("/check-username/:username", userHandler.CheckUsername)
	usersAdmin.Get("/check-email/:email", userHandler.CheckEmail)
	usersAdmin.Get("/:id", userHandler.Get)
	usersAdmin.Delete("/:id", userHandler.Delete)
}
