package push

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

const defaultEndpoint = "https://exp.host/--/api/v2/push/send"

// ErrNotRegistered is returned when a device token is no longer valid and
// should be deleted.
var ErrNotRegistered = errors.New("push token no longer registered")

// Payload is the notification sent to a device.
type Payload struct {
	Title string         `json:"title"`
	Body  string         `json:"body"`
	Data  map[string]any `json:"data,omitempty"`
}

// Service sends notifications through the Expo push API.
type Service struct {
	accessToken string
	endpoint    string
	httpClient  *http.Client
}

type Option func(*Service)

func WithHTTPClient(c *http.Client) Option {
	return func(s *Service) {
		s.httpClient = c
	}
}

func WithEndpoint(url string) Option {
	return func(s *Service) {
		s.endpoint = url
	}
}

func NewService(accessToken string, opts ...Option) *Service {
	s := &Service{
		accessToken: accessToken,
		endpoint:    defaultEndpoint,
		httpClient:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type expoMessage struct {
	To string `json:"to"`
	Payload
}

type expoResponse struct {
	Data []struct {
		Status  string `json:"status"`
		Message string `json:"message"`
		Details struct {
			Error string `json:"error"`
		} `json:"details"`
	} `json:"data"`
}

// Send delivers a notification to a single device token.
func (s *Service) Send(token string, payload Payload) error {
	body, err := json.Marshal([]expoMessage{{To: token, Payload: payload}})
	if err != nil {
		return fmt.Errorf("marshal push message: %w", err)
	}

	req, err := http.NewRequest("POST", s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if s.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.accessToken)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("push service returned %d", resp.StatusCode)
	}

	var er expoResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("decode push response: %w", err)
	}
	if len(er.Data) == 0 {
		return nil
	}
	ticket := er.Data[0]
	if ticket.Status == "error" {
		if ticket.Details.Error == "DeviceNotRegistered" {
			return ErrNotRegistered
		}
		return fmt.Errorf("push rejected: %s", ticket.Message)
	}
	return nil
}
