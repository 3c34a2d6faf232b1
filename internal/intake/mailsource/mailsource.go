// Package mailsource talks to the mail provider's REST API: fetching full
// messages referenced by push notifications and managing the change
// subscription that produces them.
package mailsource

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"docuflow/internal/intake"
	"docuflow/internal/platform/config"
	dErrors "docuflow/pkg/domain-errors"
)

// Subscription is the provider's view of a change subscription.
type Subscription struct {
	ID        string    `json:"id"`
	ExpiresAt time.Time `json:"expirationDateTime"`
}

// Source is the mail provider contract the intake gateway depends on.
type Source interface {
	FetchMessage(ctx context.Context, messageID string) (*intake.Message, error)
	Subscribe(ctx context.Context, clientState string, expiresAt time.Time) (*Subscription, error)
	Renew(ctx context.Context, subscriptionID string, expiresAt time.Time) (*Subscription, error)
}

// Client implements Source over the provider's REST API.
type Client struct {
	http    *http.Client
	baseURL string
	mailbox string
	token   string

	notificationURL string
}

func NewClient(cfg config.MailSource, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		http:            httpClient,
		baseURL:         cfg.BaseURL,
		mailbox:         cfg.Mailbox,
		token:           cfg.Token,
		notificationURL: cfg.NotificationURL,
	}
}

type messageResponse struct {
	Subject string `json:"subject"`
	From    struct {
		EmailAddress struct {
			Address string `json:"address"`
		} `json:"emailAddress"`
	} `json:"from"`
}

type attachmentsResponse struct {
	Value []struct {
		Name         string `json:"name"`
		ContentType  string `json:"contentType"`
		ContentBytes string `json:"contentBytes"`
	} `json:"value"`
}

// FetchMessage loads the referenced mail item and its attachments and
// normalizes them into a canonical intake message.
func (c *Client) FetchMessage(ctx context.Context, messageID string) (*intake.Message, error) {
	msgPath := fmt.Sprintf("%s/mailboxes/%s/messages/%s", c.baseURL, url.PathEscape(c.mailbox), url.PathEscape(messageID))

	var msgResp messageResponse
	if err := c.get(ctx, msgPath, &msgResp); err != nil {
		return nil, err
	}

	var attResp attachmentsResponse
	if err := c.get(ctx, msgPath+"/attachments", &attResp); err != nil {
		return nil, err
	}

	msg := &intake.Message{
		From:    msgResp.From.EmailAddress.Address,
		Subject: msgResp.Subject,
	}
	for _, att := range attResp.Value {
		content, err := base64.StdEncoding.DecodeString(att.ContentBytes)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "attachment content is not valid base64")
		}
		msg.Attachments = append(msg.Attachments, intake.Attachment{
			FileName:    att.Name,
			ContentType: att.ContentType,
			Content:     content,
		})
	}
	return msg, nil
}

type subscriptionRequest struct {
	ChangeType      string `json:"changeType,omitempty"`
	NotificationURL string `json:"notificationUrl,omitempty"`
	Resource        string `json:"resource,omitempty"`
	ClientState     string `json:"clientState,omitempty"`
	ExpiresAt       string `json:"expirationDateTime"`
}

// Subscribe arms a change subscription on the watched mailbox.
func (c *Client) Subscribe(ctx context.Context, clientState string, expiresAt time.Time) (*Subscription, error) {
	body := subscriptionRequest{
		ChangeType:      "created",
		NotificationURL: c.notificationURL,
		Resource:        fmt.Sprintf("mailboxes/%s/messages", c.mailbox),
		ClientState:     clientState,
		ExpiresAt:       expiresAt.UTC().Format(time.RFC3339),
	}
	var sub Subscription
	if err := c.send(ctx, http.MethodPost, c.baseURL+"/subscriptions", body, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// Renew extends an existing subscription's expiry.
func (c *Client) Renew(ctx context.Context, subscriptionID string, expiresAt time.Time) (*Subscription, error) {
	body := subscriptionRequest{ExpiresAt: expiresAt.UTC().Format(time.RFC3339)}
	var sub Subscription
	path := c.baseURL + "/subscriptions/" + url.PathEscape(subscriptionID)
	if err := c.send(ctx, http.MethodPatch, path, body, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.send(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) send(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode mail source request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, path, reader)
	if err != nil {
		return fmt.Errorf("build mail source request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "mail source request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return dErrors.Newf(dErrors.CodeNotFound, "mail source returned 404 for %s", path)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return dErrors.Newf(dErrors.CodeInternal, "mail source returned status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "decode mail source response")
	}
	return nil
}
