package handlers

import (
	"net/http"
)

// GetDashboard retrieves dashboard summary statistics
// @Summary      Get dashboard
// @Description  Get invoice counts, billed, collected, pending and overdue amounts, a per-status breakdown and the monthly trend.
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  Response{data=report.Summary}
// @Router       /dashboard [get]
// @Security     BearerAuth
func (a *API) GetDashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := a.invoices.Dashboard(r.Context())
	if err != nil {
		a.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
