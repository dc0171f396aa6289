package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/flemzord/tweetcron/internal/poster"
)

// createTweetRequest is the body of POST /2/tweets.
type createTweetRequest struct {
	Text  string        `json:"text"`
	Reply *replySetting `json:"reply,omitempty"`
	Media *mediaSetting `json:"media,omitempty"`
}

type replySetting struct {
	InReplyToTweetID string `json:"in_reply_to_tweet_id"`
}

type mediaSetting struct {
	MediaIDs []string `json:"media_ids"`
}

// tweetResponse wraps the data object of POST /2/tweets.
type tweetResponse struct {
	Data poster.Tweet `json:"data"`
}

// meResponse wraps the data object of GET /2/users/me.
type meResponse struct {
	Data poster.Identity `json:"data"`
}

// uploadResponse is the v1.1 media upload response.
type uploadResponse struct {
	MediaIDString string `json:"media_id_string"`
}

// tokenResponse is the OAuth2 token endpoint response.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// CreateTweet posts a single tweet.
func (t *Twitter) CreateTweet(ctx context.Context, accessToken string, req poster.CreateRequest) (poster.Tweet, error) {
	body := createTweetRequest{Text: req.Text}
	if req.ReplyTo != "" {
		body.Reply = &replySetting{InReplyToTweetID: req.ReplyTo}
	}
	if len(req.MediaIDs) > 0 {
		body.Media = &mediaSetting{MediaIDs: req.MediaIDs}
	}

	data, err := json.Marshal(body)
	if err != nil {
		return poster.Tweet{}, fmt.Errorf("twitter: marshaling request: %w", err)
	}

	var out tweetResponse
	err = t.do(ctx, http.MethodPost, t.config.APIURL+"/2/tweets", "application/json", bytes.NewReader(data), bearer(accessToken), &out)
	if err != nil {
		return poster.Tweet{}, err
	}
	return out.Data, nil
}

// UploadMedia sends media as a single multipart upload and returns the
// media id to reference from CreateTweet.
func (t *Twitter) UploadMedia(ctx context.Context, accessToken string, media poster.MediaRef) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	filename := media.Filename
	if filename == "" {
		filename = "media"
	}
	fw, err := mw.CreateFormFile("media", filename)
	if err != nil {
		return "", fmt.Errorf("twitter: building upload: %w", err)
	}
	if _, err := fw.Write(media.Data); err != nil {
		return "", fmt.Errorf("twitter: building upload: %w", err)
	}
	if media.MimeType != "" {
		if err := mw.WriteField("media_type", media.MimeType); err != nil {
			return "", fmt.Errorf("twitter: building upload: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("twitter: building upload: %w", err)
	}

	var out uploadResponse
	err = t.do(ctx, http.MethodPost, t.config.UploadURL+"/1.1/media/upload.json", mw.FormDataContentType(), &buf, bearer(accessToken), &out)
	if err != nil {
		return "", err
	}
	if out.MediaIDString == "" {
		return "", fmt.Errorf("twitter: upload returned no media id: %w", poster.ErrUnavailable)
	}
	return out.MediaIDString, nil
}

// Me returns the account that owns accessToken.
func (t *Twitter) Me(ctx context.Context, accessToken string) (poster.Identity, error) {
	var out meResponse
	if err := t.do(ctx, http.MethodGet, t.config.APIURL+"/2/users/me", "", nil, bearer(accessToken), &out); err != nil {
		return poster.Identity{}, err
	}
	return out.Data, nil
}

// RefreshToken exchanges a refresh token for a new pair.
func (t *Twitter) RefreshToken(ctx context.Context, refreshToken string) (poster.TokenPair, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"client_id":     {t.config.ClientID},
	}

	auth := func(r *http.Request) {
		if t.config.ClientSecret != "" {
			r.SetBasicAuth(t.config.ClientID, t.config.ClientSecret)
		}
	}

	var out tokenResponse
	err := t.do(ctx, http.MethodPost, t.config.APIURL+"/2/oauth2/token", "application/x-www-form-urlencoded",
		strings.NewReader(form.Encode()), auth, &out)
	if err != nil {
		return poster.TokenPair{}, err
	}
	if out.AccessToken == "" {
		return poster.TokenPair{}, fmt.Errorf("twitter: token response without access_token: %w", poster.ErrUnavailable)
	}
	return poster.TokenPair{
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
		ExpiresIn:    time.Duration(out.ExpiresIn) * time.Second,
	}, nil
}

func bearer(token string) func(*http.Request) {
	return func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	}
}

// do sends a request and decodes a 2xx JSON body into out.
func (t *Twitter) do(ctx context.Context, method, endpoint, contentType string, body io.Reader, auth func(*http.Request), out any) error {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("twitter: creating request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	auth(req)

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("twitter: sending request: %w: %w", poster.ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return mapHTTPError(resp.StatusCode, resp.Body)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("twitter: decoding response: %w", err)
	}
	return nil
}
