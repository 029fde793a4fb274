package v1

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"eco-proof/community-portal/community-portal-backend/internal/audit"
	"eco-proof/community-portal/community-portal-backend/internal/award"
	"eco-proof/community-portal/community-portal-backend/internal/export"
	"eco-proof/community-portal/community-portal-backend/internal/ledger"
	"eco-proof/community-portal/community-portal-backend/internal/notifications"
	"eco-proof/community-portal/community-portal-backend/internal/recordstore"
	"eco-proof/community-portal/community-portal-backend/internal/reports"
	"eco-proof/community-portal/community-portal-backend/internal/stats"
	"eco-proof/community-portal/community-portal-backend/internal/upload"
	"eco-proof/community-portal/community-portal-backend/internal/verification"
)

// Dependencies carries what the portal assembly needs from the boot
// sequence.
type Dependencies struct {
	Store         *recordstore.Store
	Uploads       *upload.Service
	Awards        *award.Mapping
	Hub           *notifications.Hub
	AuditSchedule string
	Logger        *zap.Logger
}

// PortalAPI holds the assembled portal components.
type PortalAPI struct {
	Ledger        *ledger.Handler
	Verifications *verification.Handler
	Reports       *reports.Handler
	Stats         *stats.Handler
	Exports       *export.Handler
	Audit         *audit.Handler
	Auditor       *audit.Auditor
	Hub           *notifications.Hub
}

// SetupPortalAPI wires repositories, services and handlers.
func SetupPortalAPI(deps Dependencies) *PortalAPI {
	ledgerSvc := ledger.NewService(ledger.NewStoreRepository(deps.Store), deps.Logger)

	verifSvc := verification.NewService(
		verification.NewStoreRepository(deps.Store, deps.Logger),
		deps.Awards, ledgerSvc, deps.Hub, deps.Logger)

	reportSvc := reports.NewService(reports.NewStoreRepository(deps.Store), deps.Hub, deps.Logger)

	statsSvc := stats.NewService(deps.Store, stats.DefaultTTL, deps.Logger)
	exportSvc := export.NewService(ledgerSvc, verifSvc, deps.Logger)
	auditor := audit.NewAuditor(deps.Store, deps.AuditSchedule, deps.Logger)

	return &PortalAPI{
		Ledger:        ledger.NewHandler(ledgerSvc, deps.Logger),
		Verifications: verification.NewHandler(verifSvc, deps.Uploads, deps.Logger),
		Reports:       reports.NewHandler(reportSvc, deps.Logger),
		Stats:         stats.NewHandler(statsSvc, deps.Logger),
		Exports:       export.NewHandler(exportSvc, deps.Logger),
		Audit:         audit.NewHandler(auditor),
		Auditor:       auditor,
		Hub:           deps.Hub,
	}
}

// RegisterPortalRoutes mounts every portal route. The admin group is a
// routing namespace, not a privilege boundary.
func RegisterPortalRoutes(router *gin.Engine, api *PortalAPI) {
	rg := router.Group("/api/v1")
	api.Verifications.RegisterRoutes(rg)
	api.Ledger.RegisterRoutes(rg)
	api.Reports.RegisterRoutes(rg)
	api.Stats.RegisterRoutes(rg)

	admin := rg.Group("/admin")
	api.Verifications.RegisterAdminRoutes(admin)
	api.Exports.RegisterRoutes(admin)
	api.Audit.RegisterRoutes(admin)

	if api.Hub != nil {
		rg.GET("/ws", func(c *gin.Context) {
			if err := api.Hub.HandleConnection(c.Writer, c.Request); err != nil {
				// The upgrader has already written the failure response.
				return
			}
		})
	}
}
