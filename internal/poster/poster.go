// Package poster defines the port to the external posting API and the
// Poster service that validates content, chains threads and uploads media
// on top of it.
package poster

import (
	"context"
	"time"
)

// Tweet is a post accepted by the upstream API.
type Tweet struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// CreateRequest is a single post. ReplyTo chains the post under an existing
// one; MediaIDs attach previously uploaded media.
type CreateRequest struct {
	Text     string
	ReplyTo  string
	MediaIDs []string
}

// MediaRef is a media payload to upload before posting.
type MediaRef struct {
	Filename string
	MimeType string
	Data     []byte
}

// Identity is the account an access token belongs to.
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// TokenPair is the result of an OAuth2 refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}

// Client is the external posting API. Implementations map upstream HTTP
// statuses onto the sentinel errors of this package.
type Client interface {
	CreateTweet(ctx context.Context, accessToken string, req CreateRequest) (Tweet, error)
	UploadMedia(ctx context.Context, accessToken string, media MediaRef) (string, error)
	Me(ctx context.Context, accessToken string) (Identity, error)
	RefreshToken(ctx context.Context, refreshToken string) (TokenPair, error)
}

// ThreadResult lists the items of a thread that were posted, in order.
type ThreadResult struct {
	Posted []Tweet `json:"posted"`
}

// Service names under which the posting module publishes itself.
const (
	ClientService = "poster.client"
	Service       = "poster.service"
)
