package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/irfndi/quantsim-go/internal/services"
)

type AdminHandler struct {
	service services.SimulationService
}

func NewAdminHandler(service services.SimulationService) *AdminHandler {
	return &AdminHandler{service: service}
}

// AssetModelData is one row of the asset model table.
type AssetModelData struct {
	AssetType         string  `json:"asset_type"`
	IdentifierPattern string  `json:"identifier_pattern"`
	ModelKind         string  `json:"model_kind"`
	Drift             float64 `json:"drift"`
	Volatility        float64 `json:"volatility"`
}

// ListAssetModels handles GET /api/v1/admin/models.
func (h *AdminHandler) ListAssetModels(c *gin.Context) {
	entries := h.service.AssetModels()
	out := make([]AssetModelData, len(entries))
	for i, e := range entries {
		out[i] = AssetModelData{
			AssetType:         e.AssetType,
			IdentifierPattern: e.IdentifierPattern,
			ModelKind:         e.ModelKind.String(),
			Drift:             e.Parameters.GBM.Drift,
			Volatility:        e.Parameters.GBM.Volatility,
		}
	}
	respondSuccess(c, out)
}
