package stream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"sessionhub/pkg/interfaces"
)

// ChatClient implements interfaces.ChannelService against Stream chat.
type ChatClient struct {
	*client
	baseURL     string
	channelType string
}

var (
	_ interfaces.ChannelService    = (*ChatClient)(nil)
	_ interfaces.ChatUserDirectory = (*ChatClient)(nil)
)

// NewChatClient builds a chat client; both credentials are required.
func NewChatClient(cfg Config, log logrus.FieldLogger) (*ChatClient, error) {
	c, err := newClient(cfg, log.WithField("component", "stream-chat"))
	if err != nil {
		return nil, err
	}
	return &ChatClient{
		client:      c,
		baseURL:     orDefault(cfg.ChatBaseURL, DefaultChatBaseURL),
		channelType: orDefault(cfg.ChannelType, DefaultChannelType),
	}, nil
}

type channelQueryRequest struct {
	Data  channelData `json:"data"`
	State bool        `json:"state"`
}

type channelData struct {
	Name        string   `json:"name"`
	CreatedByID string   `json:"created_by_id"`
	Members     []string `json:"members"`
}

type channelQueryResponse struct {
	Channel struct {
		ID   string `json:"id"`
		Type string `json:"type"`
	} `json:"channel"`
	Members []struct {
		UserID string `json:"user_id"`
	} `json:"members"`
}

// CreateChannel creates the channel with its initial members.
func (c *ChatClient) CreateChannel(ctx context.Context, channelID, name, creatorID string, members []string) (*interfaces.ChannelHandle, error) {
	body := channelQueryRequest{
		Data:  channelData{Name: name, CreatedByID: creatorID, Members: members},
		State: true,
	}

	var res channelQueryResponse
	if err := c.do(ctx, http.MethodPost, c.baseURL, c.channelPath(channelID)+"/query", nil, body, &res); err != nil {
		return nil, fmt.Errorf("create channel %s: %w", channelID, err)
	}

	handle := &interfaces.ChannelHandle{ID: res.Channel.ID, Type: res.Channel.Type}
	if handle.ID == "" {
		handle.ID = channelID
	}
	if handle.Type == "" {
		handle.Type = c.channelType
	}
	for _, m := range res.Members {
		handle.Members = append(handle.Members, m.UserID)
	}
	if len(handle.Members) == 0 {
		handle.Members = append(handle.Members, members...)
	}
	return handle, nil
}

// AddMembers adds members to an existing channel.
func (c *ChatClient) AddMembers(ctx context.Context, channelID string, memberIDs []string) error {
	body := map[string][]string{"add_members": memberIDs}
	if err := c.do(ctx, http.MethodPost, c.baseURL, c.channelPath(channelID), nil, body, nil); err != nil {
		return fmt.Errorf("add members to channel %s: %w", channelID, err)
	}
	return nil
}

// DeleteChannel removes the channel; a missing channel counts as deleted.
func (c *ChatClient) DeleteChannel(ctx context.Context, channelID string) error {
	query := url.Values{}
	query.Set("hard_delete", "true")
	err := c.do(ctx, http.MethodDelete, c.baseURL, c.channelPath(channelID), query, nil, nil)
	if errors.Is(err, ErrNotFound) {
		c.log.WithField("channel_id", channelID).Debug("channel already deleted")
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete channel %s: %w", channelID, err)
	}
	return nil
}

type chatUser struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Image string `json:"image,omitempty"`
}

// UpsertUsers creates or updates chat users, keyed by their external id.
func (c *ChatClient) UpsertUsers(ctx context.Context, users []interfaces.ChatUser) error {
	if len(users) == 0 {
		return nil
	}
	byID := make(map[string]chatUser, len(users))
	for _, u := range users {
		byID[u.ID] = chatUser{ID: u.ID, Name: u.Name, Image: u.Image}
	}

	body := map[string]map[string]chatUser{"users": byID}
	if err := c.do(ctx, http.MethodPost, c.baseURL, "/users", nil, body, nil); err != nil {
		return fmt.Errorf("upsert %d chat users: %w", len(users), err)
	}
	return nil
}

// CreateUserToken issues the token a front-end chat or video SDK connects with.
func (c *ChatClient) CreateUserToken(userID string, ttl time.Duration) (string, error) {
	return c.tokens.UserToken(userID, ttl)
}

func (c *ChatClient) channelPath(channelID string) string {
	return "/channels/" + url.PathEscape(c.channelType) + "/" + url.PathEscape(channelID)
}
