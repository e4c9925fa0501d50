package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/oarbit/oarbit/internal/analysis"
	"github.com/oarbit/oarbit/internal/models"
)

// defaultTimeRange returns start/end defaulting to the last 7 days.
func defaultTimeRange(startStr, endStr string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		end = time.Now()
	}

	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		start = end.AddDate(0, 0, -7)
	}

	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse("2006-01-02", s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, err
}

// parseWorkoutID accepts both raw workout UUIDs and merged session IDs,
// which carry the ID of their first piece behind a prefix.
func parseWorkoutID(id string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimPrefix(id, analysis.SessionIDPrefix))
}

// --- Tool definitions ---

var toolGetWorkouts = mcp.NewTool("get_workouts",
	mcp.WithDescription("Query workouts with optional type filter. Returns workout summaries including distance, duration, pace, watts, stroke rate, and heart rate."),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to 7 days ago.")),
	mcp.WithString("end", mcp.Description("End date (ISO 8601 or YYYY-MM-DD). Defaults to now.")),
	mcp.WithString("type", mcp.Description("Filter by workout type (e.g. 'erg', 'cardio', 'strength')")),
	mcp.WithBoolean("merged", mcp.Description("Merge back-to-back erg pieces of the same distance into sessions. Defaults to false.")),
)

var toolGetWorkoutDetail = mcp.NewTool("get_workout_detail",
	mcp.WithDescription("Get a single workout with its splits and detected interval structure (e.g. '5 x 2k / 3:00r')."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Workout ID. Merged session IDs (session:<uuid>) resolve to their first piece.")),
)

var toolGetTrainingVolume = mcp.NewTool("get_training_volume",
	mcp.WithDescription("Aggregated training volume per period: session count, total meters, total seconds, average pace and heart rate."),
	mcp.WithString("start", mcp.Description("Start date. Defaults to 7 days ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
	mcp.WithString("bucket", mcp.Description("Aggregation period. Defaults to '1 day'."), mcp.Enum("1 day", "1 week", "1 month")),
)

var toolAnalyzeSplits = mcp.NewTool("analyze_splits",
	mcp.WithDescription("Detect interval structure in an ad-hoc list of splits without storing anything. Returns the pattern notation, work count, and work/rest blocks."),
	mcp.WithString("splits", mcp.Required(), mcp.Description(`JSON array of splits, e.g. [{"distance_m":2000,"time_sec":420,"watts":250}]`)),
	mcp.WithString("workout_type", mcp.Description("Monitor workout type hint (e.g. 'FixedDistanceInterval'). Types containing 'interval' trust the split boundaries.")),
)

// --- Tool handlers ---

func (h *handlers) getWorkouts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	uid := UserIDFromContext(ctx)
	workouts, err := h.ds.QueryWorkouts(ctx, start, end, uid, req.GetString("type", ""))
	if err != nil {
		h.log.Error("mcp get_workouts", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	if req.GetBool("merged", false) {
		workouts = analysis.MergeSessions(workouts)
	}

	result, err := mcp.NewToolResultJSON(workouts)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getWorkoutDetail(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idStr, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}
	id, err := parseWorkoutID(idStr)
	if err != nil {
		return mcp.NewToolResultError("invalid workout id"), nil
	}

	uid := UserIDFromContext(ctx)
	w, err := h.ds.GetWorkout(ctx, id, uid)
	if err != nil {
		h.log.Error("mcp get_workout_detail", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if w == nil {
		return mcp.NewToolResultError("workout not found"), nil
	}

	detail := map[string]any{
		"workout":  w,
		"interval": analysis.DetectIntervals(w.Splits, w.WorkoutType),
	}
	result, err := mcp.NewToolResultJSON(detail)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getTrainingVolume(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	bucket := req.GetString("bucket", "1 day")
	uid := UserIDFromContext(ctx)

	periods, err := h.ds.GetTrainingVolume(ctx, start, end, bucket, uid)
	if err != nil {
		h.log.Error("mcp get_training_volume", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(periods)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) analyzeSplits(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("splits")
	if err != nil {
		return mcp.NewToolResultError("splits parameter is required"), nil
	}

	var splits []models.Split
	if err := json.Unmarshal([]byte(raw), &splits); err != nil {
		return mcp.NewToolResultError("invalid splits JSON: " + err.Error()), nil
	}

	pattern := analysis.DetectIntervals(splits, req.GetString("workout_type", ""))
	result, err := mcp.NewToolResultJSON(pattern)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
