package simulation

import (
	"github.com/irfndi/quantsim-go/internal/models"
	"github.com/irfndi/quantsim-go/internal/random"
	"github.com/irfndi/quantsim-go/internal/utils"
)

// SimulateStock generates the price path for req using the resolved GBM
// parameters. The step size is converted from days with DaysPerYear.
func SimulateStock(req models.PathSimulationRequest, params models.GBMParameters, src random.Source) (models.PricePath, error) {
	if err := utils.RequireFinite("time_step_days", req.TimeStepInDays); err != nil {
		return models.PricePath{}, err
	}
	if !(req.TimeStepInDays > 0) {
		return models.PricePath{}, utils.NewInvalidParameterf("time_step_days", "Time step in days must be positive. Got %v", req.TimeStepInDays)
	}

	if err := checkHorizon("time_step_days", req.NumSteps, req.TimeStepInDays); err != nil {
		return models.PricePath{}, err
	}

	path, err := SimulateGBM(GBMInput{
		InitialPrice: req.InitialPrice,
		Drift:        params.Drift,
		Volatility:   params.Volatility,
		NumSteps:     req.NumSteps,
		Dt:           req.TimeStepInDays / DaysPerYear,
	}, src)
	if err != nil {
		return models.PricePath{}, err
	}

	path.Symbol = req.Identifier
	return path, nil
}
