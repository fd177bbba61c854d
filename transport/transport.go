// Package transport is the client side of the collection endpoint: it
// serializes the final answer set, issues exactly one request per submit
// and maps every failure mode onto TransportError.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/formflow/formflow/model"
)

// DefaultTimeout bounds one submit round trip. Expiry surfaces as a
// TransportError like any other network failure.
const DefaultTimeout = 5 * time.Second

// Result is the collection endpoint's answer to a successful submit.
type Result struct {
	SubmissionID string `json:"submissionId"`
	Message      string `json:"message,omitempty"`
}

// TransportError covers an unreachable endpoint, a non-2xx response, or a
// response body lacking the success indicator. Status is 0 when no
// response was received.
type TransportError struct {
	Status  int
	Message string
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("submit failed (%d): %s", e.Status, e.Message)
	}
	return "submit failed: " + e.Message
}

type Client struct {
	base string
	http *http.Client
}

// NewClient talks to the service at base (e.g. "http://localhost:8080").
func NewClient(base string) *Client {
	return &Client{
		base: base,
		http: &http.Client{Timeout: DefaultTimeout},
	}
}

type submitRequest struct {
	FormID  string          `json:"formId"`
	Answers model.AnswerSet `json:"answers"`
}

type submitResponse struct {
	Success      bool   `json:"success"`
	SubmissionID string `json:"submissionId"`
	Message      string `json:"message"`
	Error        string `json:"error"`
}

// Submit POSTs {formId, answers} to the collection endpoint. The caller
// must not invoke it again for the same session while a call is
// outstanding; the wizard enforces that.
func (c *Client) Submit(ctx context.Context, formID string, answers model.AnswerSet) (*Result, error) {
	body, err := json.Marshal(submitRequest{FormID: formID, Answers: answers})
	if err != nil {
		return nil, &TransportError{Message: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/submit", bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Message: err.Error()}
	}
	defer resp.Body.Close()

	var sr submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil && resp.StatusCode < 300 {
		return nil, &TransportError{Status: resp.StatusCode, Message: "malformed response body"}
	}

	if resp.StatusCode >= 300 || !sr.Success {
		msg := sr.Error
		if msg == "" {
			msg = "the form could not be submitted"
		}
		return nil, &TransportError{Status: resp.StatusCode, Message: msg}
	}

	return &Result{SubmissionID: sr.SubmissionID, Message: sr.Message}, nil
}

// FetchForm loads a form definition with its ordered steps and fields.
func (c *Client) FetchForm(ctx context.Context, formID string) (*model.Form, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/forms/"+formID, nil)
	if err != nil {
		return nil, &TransportError{Message: err.Error()}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &TransportError{Status: resp.StatusCode, Message: "the form could not be loaded"}
	}

	form := model.Form{}
	if err := json.NewDecoder(resp.Body).Decode(&form); err != nil {
		return nil, &TransportError{Status: resp.StatusCode, Message: "malformed response body"}
	}
	return &form, nil
}
