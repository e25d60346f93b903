package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/fieldops-hq/fieldops-api/internal/middleware"
	"github.com/fieldops-hq/fieldops-api/internal/models"
	"github.com/fieldops-hq/fieldops-api/internal/repository"
	"github.com/fieldops-hq/fieldops-api/internal/service"
)

// Handlers aggregates every HTTP handler for route registration.
type Handlers struct {
	Auth       *AuthHandler
	Users      *UserHandler
	Permission *PermissionHandler
	Workflow   *WorkflowHandler
	Approval   *ApprovalHandler
	Timesheet  *TimesheetHandler
	Material   *MaterialLogHandler
	Safety     *SafetyFormHandler
	Project    *ProjectHandler
	GlobalData *GlobalDataHandler
	Export     *ExportHandler
	Metrics    *MetricsHandler
}

// RouterDeps carries the services the route middleware needs.
type RouterDeps struct {
	Auth        *service.AuthService
	Permissions *service.PermissionService
	Projects    *service.ProjectService
	Metrics     *service.MetricsService
	Users       *repository.UserRepository
}

// RegisterRoutes mounts the API surface under the prefix. Every module
// group sits behind JWT auth plus a permission-matrix gate keyed by the
// navigation module it belongs to.
func RegisterRoutes(r *gin.Engine, prefix string, h Handlers, deps RouterDeps) {
	api := r.Group(prefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.Refresh)

		authed := auth.Group("")
		authed.Use(middleware.JWT(deps.Auth, deps.Projects))
		authed.POST("/logout", h.Auth.Logout)
		authed.POST("/change-password", h.Auth.ChangePassword)
		authed.GET("/me", h.Auth.Me)
	}

	protected := api.Group("")
	protected.Use(middleware.JWT(deps.Auth, deps.Projects))

	gate := func(module, child models.ModuleKey) gin.HandlerFunc {
		return middleware.Permission(deps.Permissions, deps.Metrics, module, child)
	}

	approvals := protected.Group("/approvals")
	approvals.Use(gate(models.ModuleDashboard, ""))
	{
		approvals.GET("/pending-counts", h.Approval.PendingCounts)
	}

	projects := protected.Group("/projects")
	projects.Use(gate(models.ModuleProjects, ""))
	{
		projects.GET("", h.Project.List)
		projects.POST("", h.Project.Create)
		projects.GET("/:id", h.Project.Get)
		projects.PUT("/:id", h.Project.Update)
		projects.DELETE("/:id", h.Project.Delete)
		projects.PUT("/:id/assignments", h.Project.Assign)
	}

	companies := protected.Group("/companies")
	companies.Use(gate(models.ModuleGlobalData, models.ChildCompanies))
	{
		companies.GET("", h.GlobalData.ListCompanies)
		companies.POST("", h.GlobalData.CreateCompany)
		companies.GET("/:id", h.GlobalData.GetCompany)
		companies.PUT("/:id", h.GlobalData.UpdateCompany)
		companies.DELETE("/:id", h.GlobalData.DeleteCompany)
	}

	employees := protected.Group("/employees")
	employees.Use(gate(models.ModuleGlobalData, models.ChildEmployees))
	{
		employees.GET("", h.GlobalData.ListEmployees)
		employees.POST("", h.GlobalData.CreateEmployee)
		employees.GET("/:id", h.GlobalData.GetEmployee)
		employees.PUT("/:id", h.GlobalData.UpdateEmployee)
		employees.DELETE("/:id", h.GlobalData.DeleteEmployee)
	}

	lookups := protected.Group("/lookups")
	lookups.Use(gate(models.ModuleGlobalData, models.ChildLookups))
	{
		lookups.GET("/:group", h.GlobalData.ListLookupValues)
		lookups.POST("/:group", h.GlobalData.CreateLookupValue)
		lookups.PUT("/:group/:id", h.GlobalData.UpdateLookupValue)
		lookups.DELETE("/:group/:id", h.GlobalData.DeleteLookupValue)
	}

	timesheets := protected.Group("/timesheets")
	timesheets.Use(gate(models.ModuleFieldForms, models.ChildTimesheets))
	{
		timesheets.GET("", h.Timesheet.List)
		timesheets.POST("", h.Timesheet.Create)
		timesheets.GET("/:id", h.Timesheet.Get)
		timesheets.PUT("/:id", h.Timesheet.Update)
		timesheets.DELETE("/:id", h.Timesheet.Delete)
		timesheets.POST("/:id/submit", h.Approval.Submit(models.FormTypeTimesheet))
		timesheets.POST("/:id/approve", h.Approval.Approve(models.FormTypeTimesheet))
		timesheets.POST("/:id/reject", h.Approval.Reject(models.FormTypeTimesheet))
	}

	materialLogs := protected.Group("/material-logs")
	materialLogs.Use(gate(models.ModuleFieldForms, models.ChildMaterialLogs))
	{
		materialLogs.GET("", h.Material.List)
		materialLogs.POST("", h.Material.Create)
		materialLogs.GET("/:id", h.Material.Get)
		materialLogs.PUT("/:id", h.Material.Update)
		materialLogs.DELETE("/:id", h.Material.Delete)
		materialLogs.POST("/:id/submit", h.Approval.Submit(models.FormTypeMaterialLog))
		materialLogs.POST("/:id/approve", h.Approval.Approve(models.FormTypeMaterialLog))
		materialLogs.POST("/:id/reject", h.Approval.Reject(models.FormTypeMaterialLog))
	}

	safetyForms := protected.Group("/safety-forms")
	safetyForms.Use(gate(models.ModuleFieldForms, models.ChildSafetyForms))
	{
		safetyForms.GET("", h.Safety.List)
		safetyForms.POST("", h.Safety.Create)
		safetyForms.GET("/:id", h.Safety.Get)
		safetyForms.POST("/:id/submit", h.Safety.Submit)
		safetyForms.DELETE("/:id", h.Safety.Delete)
	}

	// Download authenticates via signed token, not a bearer token, so the
	// result URL works from a plain browser link.
	api.GET("/exports/download", h.Export.Download)

	exports := protected.Group("/exports")
	exports.Use(gate(models.ModuleReports, ""))
	{
		exports.POST("", h.Export.Request)
		exports.GET("/:id", h.Export.Status)
	}

	users := protected.Group("/users")
	users.Use(gate(models.ModuleSettings, models.ChildUsers))
	users.Use(middleware.Audit(deps.Users, "USER_ADMIN", "users"))
	{
		users.GET("", h.Users.List)
		users.POST("", h.Users.Create)
		users.GET("/:id", h.Users.Get)
		users.PUT("/:id", h.Users.Update)
		users.DELETE("/:id", h.Users.Delete)
	}

	permissions := protected.Group("/permissions")
	permissions.Use(gate(models.ModuleSettings, models.ChildPermissions))
	{
		permissions.GET("", h.Permission.List)
		permissions.GET("/:role", h.Permission.Get)
		permissions.PUT("/:role", h.Permission.Save)
		permissions.POST("/:role/flag", h.Permission.SetFlag)
		permissions.POST("/:role/bulk", h.Permission.BulkSet)
		permissions.POST("/:role/project-access", h.Permission.SetProjectAccess)
		permissions.POST("/:role/reset", h.Permission.Reset)
	}

	workflows := protected.Group("/workflows")
	workflows.Use(gate(models.ModuleSettings, models.ChildWorkflows))
	{
		workflows.GET("", h.Workflow.List)
		workflows.POST("", h.Workflow.Create)
		workflows.GET("/:id", h.Workflow.Get)
		workflows.PUT("/:id", h.Workflow.Update)
		workflows.DELETE("/:id", h.Workflow.Delete)
	}
}
