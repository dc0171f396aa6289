package gateway

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/flemzord/tweetcron/internal/poster"
	"github.com/flemzord/tweetcron/internal/security"
	"github.com/flemzord/tweetcron/internal/store"
)

type tweetRequest struct {
	Content string `json:"content"`
}

type threadRequest struct {
	Tweets []string `json:"tweets"`
}

type threadResponse struct {
	Posted []poster.Tweet `json:"posted"`
}

// handlePostTweet returns an http.HandlerFunc for POST /tweet.
func (g *Gateway) handlePostTweet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := IdentityFrom(r.Context())

		var req tweetRequest
		if err := security.DecodeJSON(r.Body, &req); err != nil {
			g.writeError(w, r, err)
			return
		}
		if err := poster.ValidateContent(req.Content); err != nil {
			g.writeError(w, r, err)
			return
		}
		if err := g.allowPosts(id.UserID, 1); err != nil {
			g.writeError(w, r, err)
			return
		}

		tw, err := g.poster.PostOne(r.Context(), id.AccessToken, req.Content)
		g.recordPost(r.Context(), id.UserID, req.Content, tw, err)
		if err != nil {
			g.writeError(w, r, err)
			return
		}
		g.audit.Log(security.AuditEvent{Type: security.EventPost, UserID: id.UserID, Detail: tw.ID})
		writeOK(w, tw, "Tweet posted successfully")
	}
}

// handlePostMedia returns an http.HandlerFunc for POST /tweet/media. The
// body is multipart with a "content" field and a "media" file.
func (g *Gateway) handlePostMedia() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := IdentityFrom(r.Context())

		r.Body = http.MaxBytesReader(w, r.Body, g.config.MaxMediaBytes)
		if err := r.ParseMultipartForm(g.config.MaxMediaBytes); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				g.writeError(w, r, validationError("Media exceeds %d bytes", g.config.MaxMediaBytes))
				return
			}
			g.writeError(w, r, validationError("Invalid multipart body"))
			return
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()

		content := r.FormValue("content")
		if err := poster.ValidateContent(content); err != nil {
			g.writeError(w, r, err)
			return
		}

		file, hdr, err := r.FormFile("media")
		if err != nil {
			g.writeError(w, r, validationError("Media file is required"))
			return
		}
		defer func() { _ = file.Close() }()

		data, err := io.ReadAll(file)
		if err != nil {
			g.writeError(w, r, validationError("Reading media failed"))
			return
		}
		mimeType := hdr.Header.Get("Content-Type")
		if mimeType == "" || mimeType == "application/octet-stream" {
			mimeType = http.DetectContentType(data)
		}

		if err := g.allowPosts(id.UserID, 1); err != nil {
			g.writeError(w, r, err)
			return
		}

		tw, err := g.poster.PostWithMedia(r.Context(), id.AccessToken, content, poster.MediaRef{
			Filename: hdr.Filename,
			MimeType: mimeType,
			Data:     data,
		})
		g.recordPost(r.Context(), id.UserID, content, tw, err)
		if err != nil {
			g.writeError(w, r, err)
			return
		}
		g.audit.Log(security.AuditEvent{Type: security.EventPost, UserID: id.UserID, Detail: tw.ID})
		writeOK(w, tw, "Tweet with media posted successfully")
	}
}

// handlePostThread returns an http.HandlerFunc for POST /thread. On a
// partial failure the error body lists the tweets already posted.
func (g *Gateway) handlePostThread() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := IdentityFrom(r.Context())

		var req threadRequest
		if err := security.DecodeJSON(r.Body, &req); err != nil {
			g.writeError(w, r, err)
			return
		}
		if len(req.Tweets) == 0 {
			g.writeError(w, r, poster.ErrEmptyThread)
			return
		}
		for i, content := range req.Tweets {
			if err := poster.ValidateContent(content); err != nil {
				g.writeError(w, r, &poster.ThreadError{Index: i + 1, Err: err})
				return
			}
		}
		if err := g.allowPosts(id.UserID, len(req.Tweets)); err != nil {
			g.writeError(w, r, err)
			return
		}

		res, err := g.poster.PostThread(r.Context(), id.AccessToken, req.Tweets)
		for i, tw := range res.Posted {
			g.recordPost(r.Context(), id.UserID, req.Tweets[i], tw, nil)
		}
		if err != nil {
			var te *poster.ThreadError
			if errors.As(err, &te) && te.Index >= 1 && te.Index <= len(req.Tweets) {
				g.recordPost(r.Context(), id.UserID, req.Tweets[te.Index-1], poster.Tweet{}, te.Err)
			}
			status, body := g.errorResponse(r, err)
			body.Posted = res.Posted
			writeJSON(w, status, body)
			return
		}

		g.audit.Log(security.AuditEvent{
			Type:     security.EventPost,
			UserID:   id.UserID,
			Detail:   "thread",
			Metadata: map[string]string{"items": strconv.Itoa(len(res.Posted))},
		})
		writeOK(w, threadResponse{Posted: res.Posted}, "Thread posted successfully")
	}
}

// handleListTweets returns an http.HandlerFunc for GET /tweets, the
// caller's post history, newest first.
func (g *Gateway) handleListTweets() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := IdentityFrom(r.Context())

		limit := g.config.HistoryLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				g.writeError(w, r, validationError("limit must be a positive integer"))
				return
			}
			limit = min(n, g.config.HistoryLimit)
		}

		tweets, err := g.store.ListTweets(r.Context(), id.UserID, limit)
		if err != nil {
			g.writeError(w, r, err)
			return
		}
		if tweets == nil {
			tweets = []store.Tweet{}
		}
		writeOK(w, tweets, "")
	}
}

// allowPosts charges n posts against the caller's post budget.
func (g *Gateway) allowPosts(userID string, n int) error {
	if g.limiter == nil {
		return nil
	}
	if err := g.limiter.AllowN(security.KindPost, userID, n); err != nil {
		g.audit.Log(security.AuditEvent{Type: security.EventRateLimit, UserID: userID, Detail: "post"})
		return err
	}
	return nil
}

// recordPost appends one immediate post attempt to the history. Failures
// to record are logged and otherwise ignored.
func (g *Gateway) recordPost(ctx context.Context, userID, content string, tw poster.Tweet, postErr error) {
	if g.store == nil {
		return
	}
	rec := store.Tweet{
		UserID:  userID,
		Content: content,
		Status:  store.StatusPosted,
	}
	if postErr != nil {
		rec.Status = store.StatusFailed
		rec.Error = postErr.Error()
	} else {
		rec.TwitterPostID = tw.ID
		rec.PostedAt = time.Now().UTC()
	}
	if _, err := g.store.RecordTweet(context.WithoutCancel(ctx), rec); err != nil {
		g.logger.Warn("recording tweet history failed", "user", userID, "error", err)
	}
}
