package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/codeatlas/codeatlas/internal/admin"
	"github.com/codeatlas/codeatlas/internal/app/controllers"
	"github.com/codeatlas/codeatlas/internal/middleware"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	authController *controllers.AuthController,
	userController *controllers.UserController,
	courseController *controllers.CourseController,
	identityMiddleware *middleware.IdentityMiddleware,
	adminAuth *admin.AuthBackend,
	adminPanel *admin.Panel,
) {
	// Identity resolution runs on every request, not just the page routes.
	router.Use(identityMiddleware.Resolve())

	// --- JSON API ---
	api := router.Group("/api/admin")
	{
		users := api.Group("/users")
		{
			users.POST("", userController.Create)
			users.GET("", userController.List)
			users.GET("/:id", userController.GetByID)
			users.GET("/username/:username", userController.GetByUsername)
			users.GET("/email/:email", userController.GetByEmail)
			users.PATCH("/:id", userController.Update)
			users.DELETE("/:id", userController.Delete)
		}

		courses := api.Group("/courses")
		{
			courses.POST("", courseController.Create)
			courses.GET("", courseController.List)
			courses.GET("/:id", courseController.GetByID)
			courses.PATCH("/:id", courseController.Update)
			courses.DELETE("/:id", courseController.Delete)
		}
	}

	// --- Server-rendered pages and session endpoints ---
	web := router.Group("")
	{
		web.GET("/", authController.Home)
		web.GET("/signup", authController.SignupPage)
		web.POST("/signup", authController.Signup)
		web.GET("/login", authController.LoginPage)
		web.POST("/login", authController.Login)
		web.GET("/signout", authController.Signout)
		web.GET("/account", authController.Account)
	}

	// --- Admin panel ---
	adminGroup := router.Group("/admin")
	{
		adminGroup.GET("/login", adminAuth.LoginPageHandler)
		adminGroup.POST("/login", adminAuth.LoginHandler)
		adminGroup.GET("/logout", adminAuth.LogoutHandler)

		gated := adminGroup.Group("")
		gated.Use(adminAuth.SessionRequired())
		{
			gated.GET("/users", adminPanel.ListUsers)
			gated.POST("/users", adminPanel.CreateUser)
			gated.GET("/users/export", adminPanel.ExportUsers)
			gated.GET("/users/:id", adminPanel.GetUser)
			gated.PUT("/users/:id", adminPanel.UpdateUser)
			gated.DELETE("/users/:id", adminPanel.DeleteUser)

			gated.GET("/courses", adminPanel.ListCourses)
			gated.POST("/courses", adminPanel.CreateCourse)
			gated.GET("/courses/export", adminPanel.ExportCourses)
			gated.GET("/courses/:id", adminPanel.GetCourse)
			gated.PUT("/courses/:id", adminPanel.UpdateCourse)
			gated.DELETE("/courses/:id", adminPanel.DeleteCourse)

			gated.GET("/enrollments", adminPanel.ListEnrollments)
			gated.POST("/enrollments", adminPanel.CreateEnrollment)
			gated.GET("/enrollments/export", adminPanel.ExportEnrollments)
			gated.GET("/enrollments/:id", adminPanel.GetEnrollment)
			gated.PUT("/enrollments/:id", adminPanel.UpdateEnrollment)
			gated.DELETE("/enrollments/:id", adminPanel.DeleteEnrollment)
		}
	}
}
