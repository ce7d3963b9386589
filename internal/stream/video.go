package stream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"

	"sessionhub/pkg/interfaces"
)

// VideoClient implements interfaces.CallService against Stream video.
type VideoClient struct {
	*client
	baseURL  string
	callType string
}

var _ interfaces.CallService = (*VideoClient)(nil)

// NewVideoClient builds a video client; both credentials are required.
func NewVideoClient(cfg Config, log logrus.FieldLogger) (*VideoClient, error) {
	c, err := newClient(cfg, log.WithField("component", "stream-video"))
	if err != nil {
		return nil, err
	}
	return &VideoClient{
		client:   c,
		baseURL:  orDefault(cfg.VideoBaseURL, DefaultVideoBaseURL),
		callType: orDefault(cfg.CallType, DefaultCallType),
	}, nil
}

type callRequest struct {
	Data callData `json:"data"`
}

type callData struct {
	CreatedByID string                 `json:"created_by_id"`
	Custom      map[string]interface{} `json:"custom,omitempty"`
}

type callResponse struct {
	Created bool `json:"created"`
	Call    struct {
		ID   string `json:"id"`
		Type string `json:"type"`
	} `json:"call"`
}

// GetOrCreateCall provisions the call or returns the existing one.
func (v *VideoClient) GetOrCreateCall(ctx context.Context, callID string, meta interfaces.CallMetadata) (*interfaces.CallHandle, error) {
	body := callRequest{Data: callData{
		CreatedByID: meta.CreatedByID,
		Custom: map[string]interface{}{
			"problem":    meta.Problem,
			"difficulty": meta.Difficulty,
			"sessionId":  meta.SessionID,
		},
	}}

	var res callResponse
	if err := v.do(ctx, http.MethodPost, v.baseURL, v.callPath(callID), nil, body, &res); err != nil {
		return nil, fmt.Errorf("get or create call %s: %w", callID, err)
	}

	handle := &interfaces.CallHandle{ID: res.Call.ID, Type: res.Call.Type, Created: res.Created}
	if handle.ID == "" {
		handle.ID = callID
	}
	if handle.Type == "" {
		handle.Type = v.callType
	}
	return handle, nil
}

// DeleteCall removes the call; a missing call counts as deleted.
func (v *VideoClient) DeleteCall(ctx context.Context, callID string, hard bool) error {
	body := map[string]bool{"hard": hard}
	err := v.do(ctx, http.MethodPost, v.baseURL, v.callPath(callID)+"/delete", nil, body, nil)
	if errors.Is(err, ErrNotFound) {
		v.log.WithField("call_id", callID).Debug("call already deleted")
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete call %s: %w", callID, err)
	}
	return nil
}

func (v *VideoClient) callPath(callID string) string {
	return "/call/" + url.PathEscape(v.callType) + "/" + url.PathEscape(callID)
}
