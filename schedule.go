package qstash

import (
	"context"
	"net/http"
	"net/url"
)

// Schedule is a recurring publish registered with QStash. On every cron tick
// the service publishes the stored message to the schedule's destination.
type Schedule struct {
	ScheduleID  string              `json:"scheduleId"`
	Cron        string              `json:"cron"`
	Destination string              `json:"destination"`
	Method      string              `json:"method,omitempty"`
	Header      map[string][]string `json:"header,omitempty"`
	Body        string              `json:"body,omitempty"`
	Retries     int                 `json:"retries,omitempty"`
	Delay       int64               `json:"delay,omitempty"`
	Callback    string              `json:"callback,omitempty"`
	CreatedAt   int64               `json:"createdAt"`
}

type createScheduleResponse struct {
	ScheduleID string `json:"scheduleId"`
}

// CreateSchedule registers a recurring publish of body to dest on the given
// cron expression. Publish options apply to every delivery the schedule
// produces.
//
// Example:
//
//	schedule, err := client.CreateSchedule(ctx,
//	    qstash.URL("https://example.com/daily-report"),
//	    "0 8 * * *",
//	    nil,
//	)
func (c *Client) CreateSchedule(ctx context.Context, dest Destination, cron string, body []byte, opts ...PublishOption) (*Schedule, error) {
	if cron == "" {
		return nil, &ConfigError{Reason: "cron expression is required"}
	}
	if err := dest.validate(); err != nil {
		return nil, err
	}

	cfg := resolvePublishConfig(opts)
	cfg.cron = cron

	path := c.transport.path("/schedules/" + dest.value)
	var reqBody any
	if len(body) > 0 {
		reqBody = body
	}
	var resp createScheduleResponse
	respBody, err := c.transport.do(ctx, http.MethodPost, path, cfg.wireHeaders(), reqBody)
	if err != nil {
		return nil, err
	}
	if err := decodeJSON(respBody, &resp); err != nil {
		return nil, err
	}
	return &Schedule{
		ScheduleID:  resp.ScheduleID,
		Cron:        cron,
		Destination: dest.value,
	}, nil
}

// ListSchedules returns all registered schedules.
func (c *Client) ListSchedules(ctx context.Context) ([]Schedule, error) {
	var schedules []Schedule
	if err := c.transport.get(ctx, c.transport.path("/schedules"), &schedules); err != nil {
		return nil, err
	}
	return schedules, nil
}

// GetSchedule retrieves a schedule by its id.
func (c *Client) GetSchedule(ctx context.Context, scheduleID string) (*Schedule, error) {
	var schedule Schedule
	path := c.transport.path("/schedules/" + url.PathEscape(scheduleID))
	if err := c.transport.get(ctx, path, &schedule); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// DeleteSchedule removes a schedule. Messages it already published are
// unaffected.
func (c *Client) DeleteSchedule(ctx context.Context, scheduleID string) error {
	path := c.transport.path("/schedules/" + url.PathEscape(scheduleID))
	return c.transport.delete(ctx, path)
}
