package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/blrtoday/eventpipe/app/database"
	"github.com/blrtoday/eventpipe/app/sources"
	"github.com/blrtoday/eventpipe/app/tasks"
)

const defaultEventLimit = 500

func NewHandler(eventRepo EventStoreInterface, configCache *sources.ConfigCache,
	runner tasks.PipelineRunner, scheduler tasks.TaskSchedulerInterface) *Handler {
	return &Handler{
		eventRepo:   eventRepo,
		configCache: configCache,
		runner:      runner,
		scheduler:   scheduler,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if eventCount, err := h.eventRepo.GetEventCount(); err == nil {
		health["events"] = eventCount
	}

	health["loaded_sources"] = h.configCache.GetConfigCount()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	total, err := h.eventRepo.GetEventCount()
	if err != nil {
		slog.Error("Database error", "operation", "get_event_count", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	bySource, err := h.eventRepo.GetSourceCounts()
	if err != nil {
		slog.Error("Database error", "operation", "get_source_counts", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	configs := h.configCache.GetConfigs()
	names := make([]string, 0, len(configs))
	for name := range configs {
		names = append(names, name)
	}
	sort.Strings(names)

	sourceList := make([]map[string]interface{}, 0, len(names))
	for _, name := range names {
		cfg := configs[name]
		sourceList = append(sourceList, map[string]interface{}{
			"name":    cfg.Name,
			"enabled": cfg.Settings.Enabled,
			"city":    cfg.Settings.City,
			"events":  bySource[cfg.Name],
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"total_events": total,
		"by_source":    bySource,
		"sources":      sourceList,
	})
}

func (h *Handler) GetEvents(c *gin.Context) {
	filter := database.EventFilter{Limit: defaultEventLimit}

	if from := c.Query("from"); from != "" {
		if !isISODate(from) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'from' date, expected YYYY-MM-DD"})
			return
		}
		filter.From = from
	}
	if to := c.Query("to"); to != "" {
		if !isISODate(to) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'to' date, expected YYYY-MM-DD"})
			return
		}
		filter.To = to
	}

	if bbox := c.Query("bbox"); bbox != "" {
		coords, err := parseBBox(bbox)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		filter.MinLong, filter.MinLat = coords[0], coords[1]
		filter.MaxLong, filter.MaxLat = coords[2], coords[3]
		filter.HasBBox = true
	}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'limit', expected a positive integer"})
			return
		}
		filter.Limit = limit
	}

	events, err := h.eventRepo.GetEvents(filter)
	if err != nil {
		slog.Error("Database error", "operation", "get_events", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if events == nil {
		events = []database.Event{}
	}

	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"total":  len(events),
	})
}

func (h *Handler) APIRunPipeline(c *gin.Context) {
	task := tasks.NewRunPipelineTask("api", h.runner)

	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Error enqueueing pipeline run", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue pipeline run",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Pipeline run enqueued",
		"task": gin.H{
			"id":   task.ID,
			"type": task.Type,
		},
	})
}

func isISODate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// parseBBox parses "minLong,minLat,maxLong,maxLat".
func parseBBox(s string) ([4]float64, error) {
	var coords [4]float64
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return coords, fmt.Errorf("invalid 'bbox', expected minLong,minLat,maxLong,maxLat")
	}
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return coords, fmt.Errorf("invalid 'bbox' coordinate %q", part)
		}
		coords[i] = v
	}
	if coords[0] > coords[2] || coords[1] > coords[3] {
		return coords, fmt.Errorf("invalid 'bbox', min coordinates exceed max")
	}
	return coords, nil
}
