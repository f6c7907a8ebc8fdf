package main

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/aqar-dev/aqarhub/internal/admin"
	"github.com/aqar-dev/aqarhub/internal/alerts"
	"github.com/aqar-dev/aqarhub/internal/auth"
	"github.com/aqar-dev/aqarhub/internal/blobstore"
	"github.com/aqar-dev/aqarhub/internal/comment"
	"github.com/aqar-dev/aqarhub/internal/config"
	"github.com/aqar-dev/aqarhub/internal/db"
	"github.com/aqar-dev/aqarhub/internal/favorite"
	"github.com/aqar-dev/aqarhub/internal/listing"
	"github.com/aqar-dev/aqarhub/internal/logger"
	appmw "github.com/aqar-dev/aqarhub/internal/middleware"
	"github.com/aqar-dev/aqarhub/internal/payment"
	"github.com/aqar-dev/aqarhub/internal/savedsearch"
	"github.com/aqar-dev/aqarhub/internal/user"
)

func main() {
	cfg := config.Load()
	log := logger.New()

	db.Init(cfg)
	alerts.Init()
	defer alerts.Close()

	comment.SetPolicy(cfg.RequireCommentApproval)

	if err := listing.InitCache(cfg.Redis.Addr); err != nil {
		log.Warn().Err(err).Msg("listing cache disabled")
	}
	if err := blobstore.Init(cfg.Blob); err != nil {
		log.Warn().Err(err).Msg("blob store disabled, uploads will fail")
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	e.GET("/health", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	// Public auth routes, throttled against credential stuffing
	authGroup := e.Group("")
	authGroup.Use(echomw.RateLimiter(echomw.NewRateLimiterMemoryStore(10)))
	authGroup.POST("/register", auth.Signup)
	authGroup.POST("/login", auth.Login)
	authGroup.POST("/forgot-password", auth.RequestPasswordReset)
	authGroup.POST("/reset-password", auth.ResetPassword)
	authGroup.POST("/admin-bootstrap", auth.BootstrapAdmin)

	// Public catalog
	e.GET("/listings", listing.GetListings)
	e.GET("/listings/:id", listing.GetListing)
	e.GET("/featured-listings", listing.GetFeaturedListings)
	e.GET("/search-listings", listing.SearchListings)
	e.GET("/ad-types", listing.GetAdTypes)
	e.GET("/payment-methods", payment.GetPaymentMethods)
	e.GET("/users/:id", user.GetPublicProfile)

	// Public comment reads
	e.GET("/listings/:id/comments", comment.GetListingComments)
	e.GET("/listings/:id/comments/:comment_id", comment.GetComment)
	e.GET("/listings/:id/rating", comment.GetListingRating)

	// Authenticated routes
	g := e.Group("")
	g.Use(appmw.JWTMiddleware)

	g.GET("/user", auth.Me)
	g.PUT("/user/profile", user.UpdateProfile)
	g.GET("/user/listings", listing.GetUserListings)
	g.GET("/user/listings/comments", comment.GetMyListingsComments)

	g.POST("/listings", listing.CreateListing, appmw.RequireRoles("owner", "admin"))
	g.PUT("/listings/:id", listing.UpdateListing)
	g.DELETE("/listings/:id", listing.DeleteListing)
	g.POST("/listings/:id/photos", listing.UploadPhoto)

	g.POST("/listings/:id/comments", comment.CreateComment)
	g.PUT("/comments/:id", comment.UpdateComment)
	g.DELETE("/comments/:id", comment.DeleteComment)
	g.POST("/comments/:id/report", comment.ReportComment)

	g.GET("/favorites", favorite.GetFavorites)
	g.POST("/favorites/:listing_id", favorite.AddFavorite)
	g.DELETE("/favorites/:listing_id", favorite.RemoveFavorite)
	g.GET("/favorites/:listing_id/check", favorite.CheckFavorite)
	g.POST("/favorites/:listing_id/toggle", favorite.ToggleFavorite)

	g.GET("/saved-searches", savedsearch.GetSavedSearches)
	g.POST("/saved-searches", savedsearch.CreateSavedSearch)
	g.PUT("/saved-searches/:id", savedsearch.UpdateSavedSearch)
	g.DELETE("/saved-searches/:id", savedsearch.DeleteSavedSearch)

	g.POST("/listings/:id/payment-intent", payment.CreateIntent)
	g.POST("/listings/:id/payments/confirm", payment.Confirm)
	g.GET("/payments", payment.GetPayments)
	g.GET("/payments/:id", payment.GetPayment)

	g.GET("/notifications", alerts.ListNotifications)
	g.POST("/notifications/:id/read", alerts.MarkNotificationRead)

	// Admin console
	adminGroup := e.Group("/admin")
	adminGroup.Use(appmw.JWTMiddleware)
	adminGroup.Use(appmw.AdminGuard)
	adminGroup.GET("/stats", admin.GetStats)
	adminGroup.GET("/users", admin.ListUsers)
	adminGroup.POST("/users/:id/suspend", admin.SuspendUser)
	adminGroup.POST("/users/:id/activate", admin.ActivateUser)
	adminGroup.POST("/users/:id/role", admin.SetUserRole)
	adminGroup.GET("/comments/pending", comment.GetPendingComments)
	adminGroup.POST("/comments/:id/approve", comment.ApproveComment)
	adminGroup.GET("/reports", comment.GetReports)
	adminGroup.POST("/reports/:id/resolve", comment.ResolveReport)
	adminGroup.GET("/payments/pending", payment.GetPendingPayments)
	adminGroup.POST("/payments/:id/approve", payment.ApprovePayment)

	log.Info().Str("port", cfg.Port).Msg("api server listening")
	if err := e.Start(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}
