package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Dashboard handler functions. Every view is computed on demand from the
// current snapshot.

func filterFromQuery(c *gin.Context) (Filter, bool) {
	filter := Filter{
		ProjectID: c.Query("project"),
		PartnerID: c.Query("partner"),
		Month:     c.Query("month"),
	}
	if filter.Month != "" {
		if err := validateMonth(filter.Month); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return Filter{}, false
		}
	}
	return filter, true
}

// @Summary Get dashboard summary
// @Description Global totals and per-partner ownership shares, optionally filtered by project, partner and month
// @Tags dashboard
// @Produce json
// @Param project query string false "Project ID"
// @Param partner query string false "Partner ID"
// @Param month query string false "Month (YYYY-MM)"
// @Success 200 {object} map[string]interface{} "Summary"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Router /api/summary [get]
func getSummary(c *gin.Context) {
	filter, ok := filterFromQuery(c)
	if !ok {
		return
	}

	snap := coord.Snapshot()
	scoped := FilterTransactions(snap.Transactions, filter)
	c.JSON(http.StatusOK, gin.H{
		"totals":    ComputeTotals(scoped),
		"ownership": OwnershipShares(snap.Partners, scoped),
	})
}

// @Summary Get project performance
// @Description Income, expense, profit and ROI for one project, optionally scoped to a month
// @Tags dashboard
// @Produce json
// @Param id path string true "Project ID"
// @Param month query string false "Month (YYYY-MM)"
// @Success 200 {object} ProjectPerformance "Project performance"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 404 {object} map[string]interface{} "Project not found"
// @Router /api/projects/{id}/performance [get]
func getProjectPerformance(c *gin.Context) {
	id := c.Param("id")
	month := c.Query("month")
	if month != "" {
		if err := validateMonth(month); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	snap := coord.Snapshot()
	if _, ok := snap.ProjectByID(id); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}
	c.JSON(http.StatusOK, PerformanceForProject(snap.Transactions, id, month))
}

// @Summary Get partner statement
// @Description One partner's invested total, ownership share and transaction history
// @Tags dashboard
// @Produce json
// @Param id path string true "Partner ID"
// @Param month query string false "Month (YYYY-MM)"
// @Success 200 {object} map[string]interface{} "Partner statement"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 404 {object} map[string]interface{} "Partner not found"
// @Router /api/partners/{id}/statement [get]
func getPartnerStatement(c *gin.Context) {
	id := c.Param("id")
	month := c.Query("month")
	if month != "" {
		if err := validateMonth(month); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	snap := coord.Snapshot()
	partner, ok := snap.PartnerByID(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Partner not found"})
		return
	}

	scoped := FilterTransactions(snap.Transactions, Filter{Month: month})
	var share PartnerShare
	for _, s := range OwnershipShares(snap.Partners, scoped) {
		if s.PartnerID == id {
			share = s
			break
		}
	}

	own := FilterTransactions(scoped, Filter{PartnerID: id})
	byProject := make([]gin.H, 0, len(snap.Projects))
	for _, p := range snap.Projects {
		invested := InvestedByPartner(FilterTransactions(own, Filter{ProjectID: p.ID}), id)
		if invested.IsZero() {
			continue
		}
		byProject = append(byProject, gin.H{
			"projectId": p.ID,
			"name":      p.Name,
			"invested":  invested,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"partner":      partner,
		"invested":     share.Invested,
		"sharePercent": share.SharePercent,
		"byProject":    byProject,
		"transactions": own,
	})
}

// @Summary Get recent activity
// @Description Most recent transactions in scope, newest first, with a count of older entries not shown
// @Tags dashboard
// @Produce json
// @Param project query string false "Project ID"
// @Param partner query string false "Partner ID"
// @Param month query string false "Month (YYYY-MM)"
// @Success 200 {object} map[string]interface{} "Recent activity"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Router /api/activity [get]
func getActivity(c *gin.Context) {
	filter, ok := filterFromQuery(c)
	if !ok {
		return
	}

	recent, older := RecentActivity(coord.Snapshot().Transactions, filter)
	c.JSON(http.StatusOK, gin.H{
		"transactions": recent,
		"olderCount":   older,
	})
}
