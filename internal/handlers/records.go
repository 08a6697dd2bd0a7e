package handlers

import (
	"net/http"
	"strconv"

	"github.com/Subhasishpanda1777/Cipher7/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"go.uber.org/zap"
)

type RecordsHandler struct {
	log *zap.Logger
}

func NewRecordsHandler(log *zap.Logger) *RecordsHandler {
	return &RecordsHandler{log: log}
}

func (h *RecordsHandler) GetRecord(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid record id"})
		return
	}
	record, err := repository.GetScreeningByID(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"record": record, "display": record.Result().Display()})
}

func (h *RecordsHandler) ListByParent(c *gin.Context) {
	records, err := repository.ListScreeningsByParent(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

func (h *RecordsHandler) ListByChild(c *gin.Context) {
	records, err := repository.ListScreeningsByChild(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

func (h *RecordsHandler) ListRecent(c *gin.Context) {
	records, err := repository.ListRecentScreenings(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

// ChildChart returns echarts options for a child's score history.
func (h *RecordsHandler) ChildChart(c *gin.Context) {
	childID := c.Param("id")
	points, err := repository.GetRiskTimeline(c.Request.Context(), childID)
	if err != nil {
		h.log.Error("Failed to get timeline data", zap.Error(err), zap.String("childID", childID))
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, generateTimelineChart(points, childID).JSON())
}

func generateTimelineChart(points []repository.TimelinePoint, childID string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Screening History",
			Subtitle: childID,
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Type: "time",
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Type: "value",
			Min:  0,
			Max:  1,
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)

	series := []struct {
		name  string
		value func(repository.TimelinePoint) float64
	}{
		{"Risk", func(p repository.TimelinePoint) float64 { return p.RiskScore }},
		{"Alignment", func(p repository.TimelinePoint) float64 { return p.AlignmentScore }},
		{"Tracking", func(p repository.TimelinePoint) float64 { return p.TrackingScore }},
		{"Contrast", func(p repository.TimelinePoint) float64 { return p.ContrastScore }},
	}
	for _, s := range series {
		// [date, value] pairs
		items := make([]opts.LineData, 0, len(points))
		for _, p := range points {
			items = append(items, opts.LineData{Value: []interface{}{p.CreatedAt, s.value(p)}})
		}
		line.AddSeries(s.name, items)
	}
	line.SetSeriesOptions(charts.WithLineStyleOpts(opts.LineStyle{Width: 2}))
	return line
}
