package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pego/domain/repository"
	httpHandler "pego/interfaces/http"
	"pego/interfaces/middleware"
)

func InitiateRouter(
	authHandler httpHandler.IAuthHandler,
	uploadHandler httpHandler.IUploadHandler,
	paymentHandler httpHandler.IPaymentHandler,
	videoHandler httpHandler.IVideoHandler,
	adminHandler httpHandler.IAdminHandler,
	userRepository repository.IUser,
	secretKey string,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:4200", "http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public authentication routes
	router.POST("/auth/google", authHandler.GoogleLogin)
	router.POST("/auth/otp/send", authHandler.SendOTP)
	router.POST("/auth/otp/verify", authHandler.VerifyOTP)

	// Public browsing routes
	router.GET("/rounds/active", videoHandler.ActiveRound)
	router.GET("/rounds", videoHandler.ListRounds)
	router.GET("/rounds/:roundId/leaderboard", videoHandler.Leaderboard)
	router.GET("/rounds/:roundId/videos", videoHandler.ListVideos)
	router.POST("/videos/:videoId/view", videoHandler.RecordView)

	// Provider settlement webhook; settlement truth is re-checked upstream.
	router.POST("/webhooks/payments/:sessionId", paymentHandler.ProviderCallback)

	api := router.Group("api")
	api.Use(middleware.Auth(userRepository, secretKey))

	api.GET("/me", authHandler.Me)
	api.PUT("/me", authHandler.UpdateMe)

	uploads := api.Group("/uploads")
	{
		uploads.POST("", uploadHandler.Initiate)
		uploads.POST("/payment", uploadHandler.ChoosePaymentMethod)
		uploads.POST("/:videoId/media", uploadHandler.UploadMedia)
		uploads.DELETE("/:videoId", uploadHandler.Cancel)
		uploads.GET("/:videoId", uploadHandler.GetVideo)
	}

	payments := api.Group("/payments")
	{
		payments.GET("/methods", paymentHandler.Methods)
		payments.POST("/topup", paymentHandler.Topup)
		payments.GET("/:sessionId", paymentHandler.GetSession)
		payments.POST("/:sessionId/confirm", paymentHandler.Confirm)
	}

	credits := api.Group("/credits")
	{
		credits.GET("/balance", paymentHandler.Balance)
		credits.GET("/transactions", paymentHandler.Transactions)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.AdminOnly())
	{
		admin.POST("/rounds", adminHandler.CreateRound)
		admin.POST("/rounds/:roundId/activate", adminHandler.ActivateRound)
		admin.POST("/rounds/:roundId/end", adminHandler.EndRound)
		admin.POST("/users/:userId/ban", adminHandler.BanUser)
		admin.POST("/users/:userId/unban", adminHandler.UnbanUser)
		admin.POST("/users/:userId/credits", adminHandler.AdjustCredit)
		admin.POST("/videos/:videoId/moderate", adminHandler.ModerateVideo)
		admin.GET("/stats", adminHandler.Stats)
	}

	return router
}
