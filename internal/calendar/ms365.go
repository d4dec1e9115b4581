package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/calrichards/eventually/internal/auth"
)

const (
	// MS Graph API endpoint for calendar events
	graphCalendarEndpoint = "https://graph.microsoft.com/v1.0/me/calendarView"

	// Required scope for reading calendars
	calendarReadScope = "Calendars.Read"
)

// tokenProvider can acquire access tokens.
type tokenProvider interface {
	GetToken(ctx context.Context) (*auth.Token, error)
	Close() error
}

// MS365Source fetches events from a Microsoft 365 calendar via the
// Graph API, authenticating with the device code flow.
type MS365Source struct {
	name     string
	auth     tokenProvider
	client   *http.Client
	initOnce sync.Once
	initErr  error
}

// NewMS365Source creates a new MS365 calendar source.
func NewMS365Source(name string) *MS365Source {
	return &MS365Source{
		name: name,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// initAuth initializes the authentication provider on first use.
func (s *MS365Source) initAuth() error {
	s.initOnce.Do(func() {
		deviceCode, err := auth.NewDeviceCodeAuth("", []string{calendarReadScope})
		if err != nil {
			s.initErr = fmt.Errorf("initialize device code auth: %w", err)
			return
		}
		s.auth = deviceCode
	})
	return s.initErr
}

// Name returns the display name of this calendar source.
func (s *MS365Source) Name() string {
	return s.name
}

// Fetch retrieves events from the Microsoft 365 calendar. The Graph
// calendarView endpoint expands recurring series into instances.
func (s *MS365Source) Fetch(ctx context.Context, start, end time.Time) ([]Event, error) {
	if err := s.initAuth(); err != nil {
		return nil, err
	}

	token, err := s.auth.GetToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("get token: %w", err)
	}

	events, err := s.fetchCalendarView(ctx, token.AccessToken, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetch calendar: %w", err)
	}

	return events, nil
}

// Close cleans up resources.
func (s *MS365Source) Close() error {
	if s.auth != nil {
		return s.auth.Close()
	}
	return nil
}

// graphCalendarResponse is the MS Graph API response for calendar events.
type graphCalendarResponse struct {
	Value    []graphEvent `json:"value"`
	NextLink string       `json:"@odata.nextLink,omitempty"`
}

// graphEvent represents an event from the MS Graph API.
type graphEvent struct {
	ID               string              `json:"id"`
	Subject          string              `json:"subject"`
	Start            graphDateTime       `json:"start"`
	End              graphDateTime       `json:"end"`
	Location         *graphLocation      `json:"location,omitempty"`
	IsAllDay         bool                `json:"isAllDay"`
	IsCancelled      bool                `json:"isCancelled"`
	OnlineMeetingURL string              `json:"onlineMeetingUrl,omitempty"`
	OnlineMeeting    *graphOnlineMeeting `json:"onlineMeeting,omitempty"`
	SeriesMasterID   string              `json:"seriesMasterId,omitempty"`
}

type graphDateTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

type graphLocation struct {
	DisplayName string `json:"displayName"`
}

type graphOnlineMeeting struct {
	JoinURL string `json:"joinUrl"`
}

// fetchCalendarView fetches events using the calendarView endpoint.
func (s *MS365Source) fetchCalendarView(ctx context.Context, accessToken string, start, end time.Time) ([]Event, error) {
	params := url.Values{}
	params.Set("startDateTime", start.UTC().Format(time.RFC3339))
	params.Set("endDateTime", end.UTC().Format(time.RFC3339))
	params.Set("$orderby", "start/dateTime")
	params.Set("$top", "500")
	params.Set("$select", "id,subject,start,end,location,isAllDay,isCancelled,onlineMeetingUrl,onlineMeeting,seriesMasterId")

	reqURL := graphCalendarEndpoint + "?" + params.Encode()

	var allEvents []Event

	// Handle pagination
	for reqURL != "" {
		events, nextLink, err := s.fetchPage(ctx, accessToken, reqURL)
		if err != nil {
			return nil, err
		}
		allEvents = append(allEvents, events...)
		reqURL = nextLink
	}

	slog.Debug("fetched MS365 events", "count", len(allEvents))
	return allEvents, nil
}

// fetchPage fetches a single page of events.
func (s *MS365Source) fetchPage(ctx context.Context, accessToken, reqURL string) ([]Event, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	// Request times in UTC; conversion to local happens when parsing.
	req.Header.Set("Prefer", `outlook.timezone="UTC"`)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, "", &statusError{status: resp.StatusCode, op: "graph API"}
	}

	var graphResp graphCalendarResponse
	if err := json.NewDecoder(resp.Body).Decode(&graphResp); err != nil {
		return nil, "", fmt.Errorf("decode response: %w", err)
	}

	events := make([]Event, 0, len(graphResp.Value))
	for _, ge := range graphResp.Value {
		if ge.IsCancelled {
			continue
		}

		event, err := s.convertEvent(ge)
		if err != nil {
			slog.Warn("skip event conversion error", "id", ge.ID, "error", err)
			continue
		}
		events = append(events, event)
	}

	return events, graphResp.NextLink, nil
}

// convertEvent converts a Graph API event to our Event type.
func (s *MS365Source) convertEvent(ge graphEvent) (Event, error) {
	event := Event{
		UID:     ge.ID,
		Summary: ge.Subject,
		Source:  s.name,
		Color:   DefaultColor,
	}

	// calendarView instances of a series carry the series master ID;
	// key identity on the series so the occurrence key disambiguates.
	if ge.SeriesMasterID != "" {
		event.UID = ge.SeriesMasterID
		event.HasRecurrence = true
	}

	start, err := parseGraphDateTime(ge.Start)
	if err != nil {
		return event, fmt.Errorf("parse start: %w", err)
	}
	event.Start = start.In(time.Local)

	end, err := parseGraphDateTime(ge.End)
	if err != nil {
		return event, fmt.Errorf("parse end: %w", err)
	}
	event.End = end.In(time.Local)

	// Graph encodes all-day events as calendar dates at UTC midnight
	// with an exclusive end. Re-anchor those dates in local time so the
	// span is local midnight through 23:59:59 of the final day.
	if ge.IsAllDay {
		y, m, d := start.Date()
		event.Start = time.Date(y, m, d, 0, 0, 0, 0, time.Local)
		y, m, d = end.Add(-time.Second).Date()
		event.End = time.Date(y, m, d, 23, 59, 59, 0, time.Local)
	}

	if ge.Location != nil && ge.Location.DisplayName != "" {
		event.Location = ge.Location.DisplayName
	}

	// Online meeting URL (Teams, etc.) takes over an empty location so
	// the link detector can find it.
	if event.Location == "" {
		if ge.OnlineMeeting != nil && ge.OnlineMeeting.JoinURL != "" {
			event.Location = ge.OnlineMeeting.JoinURL
		} else if ge.OnlineMeetingURL != "" {
			event.Location = ge.OnlineMeetingURL
		}
	}

	event.OccurrenceKey = NewOccurrenceKey(event.UID, event.Start)

	return event, nil
}

// parseGraphDateTime parses a Graph API datetime value.
func parseGraphDateTime(gdt graphDateTime) (time.Time, error) {
	// Format: "2024-01-15T09:00:00.0000000"
	formats := []string{
		"2006-01-02T15:04:05.0000000",
		"2006-01-02T15:04:05",
		"2006-01-02",
	}

	for _, format := range formats {
		t, err := time.ParseInLocation(format, gdt.DateTime, time.UTC)
		if err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("cannot parse datetime: %s", gdt.DateTime)
}

// Ensure MS365Source implements Source.
var _ Source = (*MS365Source)(nil)
