package api

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gadgets-backend-go/internal/config"
	"gadgets-backend-go/internal/core"
	"gadgets-backend-go/internal/middleware"
)

// Services bundles the core services the routes dispatch to.
type Services struct {
	Users    core.UserService
	Products core.ProductService
	Orders   core.OrderService
	Carts    core.CartService
	Payments core.PaymentService
	Reviews  core.ReviewService
	Teams    core.TeamService
	Blogs    core.BlogService
}

// SetupRoutes registers every endpoint on router. Global middleware (request
// id, logging, recovery, CORS) is expected to be installed by the caller.
func SetupRoutes(
	router *gin.Engine,
	appConfig *config.Config,
	logger *zap.Logger,
	authMW *middleware.AuthMiddleware,
	services Services,
) {
	requireToken := authMW.VerifyToken()
	optionalToken := authMW.OptionalToken()

	userHandler := NewUserHandler(services.Users)
	productHandler := NewProductHandler(services.Products)
	orderHandler := NewOrderHandler(services.Orders)
	cartHandler := NewCartHandler(services.Carts)
	paymentHandler := NewPaymentHandler(services.Payments)
	reviewHandler := NewReviewHandler(services.Reviews)
	teamHandler := NewTeamHandler(services.Teams)
	blogHandler := NewBlogHandler(services.Blogs)

	payments := router.Group("/payment")
	{
		payments.POST("/create-payment-intent", requireToken, paymentHandler.CreatePaymentIntent)
		payments.GET("/history", requireToken, paymentHandler.GetPaymentHistory)
	}
	router.POST("/booking", requireToken, paymentHandler.RecordPayment)

	users := router.Group("/users")
	{
		users.GET("", userHandler.GetUsers)
		users.GET("/all", requireToken, userHandler.ListAllUsers)
		users.PATCH("", requireToken, userHandler.UpdateProfile)
	}

	user := router.Group("/user")
	{
		signIn := []gin.HandlerFunc{userHandler.SignIn}
		if appConfig.FirebaseSignInRequired {
			signIn = append([]gin.HandlerFunc{authMW.VerifyFirebaseSignIn()}, signIn...)
		}
		user.PUT("", signIn...)
		user.PUT("/admin", requireToken, userHandler.GrantAdmin)
		user.PUT("/removeAdmin", requireToken, userHandler.RevokeAdmin)
		user.DELETE("/:email", requireToken, userHandler.DeleteUser)
	}
	router.GET("/admin/:email", userHandler.GetAdminStatus)

	orders := router.Group("/orders")
	{
		orders.GET("", requireToken, orderHandler.ListOrders)
		orders.GET("/all", requireToken, orderHandler.ListAllOrders)
		orders.POST("", requireToken, orderHandler.CreateOrder)
		orders.DELETE("/:id", requireToken, orderHandler.DeleteOrder)
		orders.PATCH("/paid/:id", optionalToken, orderHandler.MarkOrderPaid)
		orders.PATCH("/shipped/:id", requireToken, orderHandler.MarkOrderShipped)
	}

	products := router.Group("/products")
	{
		products.GET("", productHandler.ListProducts)
		products.GET("/all", productHandler.ListAllProducts)
		products.GET("/search", productHandler.SearchProducts)
		products.GET("/:id", productHandler.GetProduct)
		products.POST("", optionalToken, productHandler.CreateProduct)
		products.PUT("/:id", optionalToken, productHandler.ReplaceProduct)
		products.DELETE("/:id", requireToken, productHandler.DeleteProduct)
		products.PATCH("/update-stock/:id", requireToken, productHandler.UpdateStock)
		products.PATCH("/updateQty/:id", optionalToken, productHandler.UpdateQuantity)
	}

	carts := router.Group("/carts", requireToken)
	{
		carts.GET("", cartHandler.ListCart)
		carts.POST("", cartHandler.AddToCart)
		carts.DELETE("/:id", cartHandler.RemoveFromCart)
	}

	router.GET("/teams", teamHandler.ListTeams)
	teamMembers := router.Group("/teamMembers")
	{
		teamMembers.GET("", teamHandler.ListMembers)
		teamMembers.GET("/:id", teamHandler.GetMember)
		teamMembers.POST("", requireToken, teamHandler.CreateMember)
		teamMembers.DELETE("/:id", requireToken, teamHandler.DeleteMember)
	}

	reviews := router.Group("/reviews")
	{
		reviews.GET("", reviewHandler.ListReviews)
		reviews.POST("", requireToken, reviewHandler.CreateReview)
		reviews.DELETE("/:id", requireToken, reviewHandler.DeleteReview)
	}

	blogs := router.Group("/blogs")
	{
		blogs.GET("/all", blogHandler.ListAllBlogs)
		blogs.GET("", blogHandler.ListBlogsByAuthor)
		blogs.GET("/search", blogHandler.SearchBlogs)
		blogs.GET("/:id", blogHandler.GetBlog)
		blogs.POST("", requireToken, blogHandler.CreateBlog)
		blogs.PUT("", requireToken, blogHandler.UpdateBlog)
		blogs.DELETE("", requireToken, blogHandler.DeleteBlog)
	}

	landingPage := filepath.Join(appConfig.StaticDir, "index.html")
	router.GET("/", func(c *gin.Context) {
		c.File(landingPage)
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, HealthResponse{Status: "UP", Message: "Gadgets Destination backend is healthy."})
	})

	logger.Info("API routes configured", zap.Bool("firebaseSignIn", appConfig.FirebaseSignInRequired))
}
