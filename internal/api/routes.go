package api

import (
	"adiestra/events-app/internal/domain"
	"adiestra/events-app/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// SetupRoutes wires every handler into the Gin engine.
//
// Event listing and reads sit behind OptionalAuthMiddleware: an anonymous
// request is valid and simply sees the public, upcoming subset. Everything
// that writes goes through AuthMiddleware plus a role check.
func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	trainerService service.TrainerService,
	clientService service.ClientService,
	eventService service.EventService,
	profileService service.ProfileService,
	viewers *service.ViewerResolver,
) {
	userHandler := NewUserHandler(authService, viewers)
	trainerHandler := NewTrainerHandler(trainerService, viewers)
	clientHandler := NewClientHandler(clientService, viewers)
	eventHandler := NewEventHandler(eventService, viewers)
	profileHandler := NewProfileHandler(profileService, viewers)

	authMiddleware := AuthMiddleware(jwtSecret)
	optionalAuth := OptionalAuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")

	// --- Account Routes ---
	usersGroup := apiV1.Group("/users")
	{
		usersGroup.POST("", userHandler.Register)
		usersGroup.POST("/login", userHandler.Login)
		usersGroup.POST("/reset-password", userHandler.RequestPasswordReset)
		usersGroup.POST("/:userId/reset-password/:token", userHandler.ResetPassword)
		usersGroup.GET("/:userId", authMiddleware, userHandler.GetUser)
	}

	// --- Event Read Routes (viewer-dependent visibility) ---
	eventsGroup := apiV1.Group("/events")
	eventsGroup.Use(optionalAuth)
	{
		eventsGroup.GET("", eventHandler.ListEvents)
		eventsGroup.GET("/:eventId", eventHandler.GetEvent)
		eventsGroup.GET("/:eventId/image-url", eventHandler.GetEventImageURL)
	}

	// --- Trainer Routes ---
	trainersGroup := apiV1.Group("/trainers")
	{
		trainersGroup.GET("", trainerHandler.GetAllTrainers)
		trainersGroup.GET("/:trainerId", trainerHandler.GetTrainer)
		trainersGroup.GET("/:trainerId/rating", trainerHandler.GetRating)
		trainersGroup.GET("/:trainerId/events", optionalAuth, eventHandler.GetTrainerEvents)
		trainersGroup.GET("/:trainerId/profile", profileHandler.GetProfile)

		trainersGroup.POST("", authMiddleware, RoleMiddleware(domain.RoleTrainer, domain.RoleAdmin), trainerHandler.CreateTrainer)

		ownerOps := trainersGroup.Group("")
		ownerOps.Use(authMiddleware, RoleMiddleware(domain.RoleTrainer, domain.RoleAdmin))
		{
			ownerOps.PATCH("/:trainerId", trainerHandler.UpdateTrainer)
			ownerOps.DELETE("/:trainerId", trainerHandler.DeleteTrainer)
			ownerOps.GET("/:trainerId/clients", trainerHandler.GetTrainerClients)
			ownerOps.POST("/:trainerId/image-upload", trainerHandler.TrainerImageUpload)

			ownerOps.POST("/:trainerId/events", eventHandler.CreateEvent)
			ownerOps.PATCH("/:trainerId/events/:eventId", eventHandler.UpdateEvent)
			ownerOps.DELETE("/:trainerId/events/:eventId", eventHandler.DeleteEvent)
			ownerOps.POST("/:trainerId/events/:eventId/image-upload", eventHandler.EventImageUpload)

			ownerOps.POST("/:trainerId/profile", profileHandler.CreateProfile)
			ownerOps.PATCH("/:trainerId/profile", profileHandler.UpdateProfile)
			ownerOps.DELETE("/:trainerId/profile", profileHandler.DeleteProfile)
		}

		// Only clients rate trainers; the service checks shared history.
		trainersGroup.PATCH("/:trainerId/rating", authMiddleware, RoleMiddleware(domain.RoleClient), trainerHandler.RateTrainer)
	}

	// --- Client Routes ---
	clientsGroup := apiV1.Group("/clients")
	{
		clientsGroup.GET("", authMiddleware, clientHandler.GetAllClients)
		clientsGroup.GET("/:clientId", authMiddleware, clientHandler.GetClient)

		clientsGroup.POST("", authMiddleware, RoleMiddleware(domain.RoleClient, domain.RoleAdmin), clientHandler.CreateClient)

		ownerOps := clientsGroup.Group("")
		ownerOps.Use(authMiddleware, RoleMiddleware(domain.RoleClient, domain.RoleAdmin))
		{
			ownerOps.PATCH("/:clientId", clientHandler.UpdateClient)
			ownerOps.DELETE("/:clientId", clientHandler.DeleteClient)
			ownerOps.GET("/:clientId/events", clientHandler.GetEnrolledEvents)
			ownerOps.PATCH("/:clientId/events", clientHandler.Enroll)
			ownerOps.DELETE("/:clientId/events/:eventId", clientHandler.Cancel)
		}
	}
}
