package twitter

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/flemzord/tweetcron/internal/poster"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, srv *httptest.Server) *Twitter {
	t.Helper()
	return &Twitter{
		config: Config{
			APIURL:       srv.URL,
			UploadURL:    srv.URL,
			ClientID:     "cid",
			ClientSecret: "csecret",
		},
		client: srv.Client(),
	}
}

func TestCreateTweet(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/2/tweets" || r.Method != http.MethodPost {
			http.Error(w, "unexpected route", http.StatusNotFound)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			http.Error(w, "bad auth "+got, http.StatusUnauthorized)
			return
		}
		var body createTweetRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if body.Reply == nil || body.Reply.InReplyToTweetID != "99" {
			http.Error(w, "missing reply", http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"data":{"id":"100","text":"`+body.Text+`"}}`)
	})

	tw := newTestClient(t, srv)
	got, err := tw.CreateTweet(t.Context(), "tok", poster.CreateRequest{Text: "hi", ReplyTo: "99"})
	if err != nil {
		t.Fatalf("CreateTweet: %v", err)
	}
	if got.ID != "100" || got.Text != "hi" {
		t.Errorf("tweet = %+v", got)
	}
}

func TestCreateTweet_ErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status int
		body   string
		want   error
	}{
		{http.StatusUnauthorized, `{"title":"Unauthorized","detail":"Unauthorized"}`, poster.ErrUnauthorized},
		{http.StatusForbidden, `{"detail":"You are not permitted"}`, poster.ErrUnauthorized},
		{http.StatusTooManyRequests, `{"title":"Too Many Requests"}`, poster.ErrRateLimited},
		{http.StatusBadRequest, `{"errors":[{"message":"duplicate content"}]}`, poster.ErrRejected},
		{http.StatusServiceUnavailable, ``, poster.ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			t.Parallel()

			srv := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			_, err := newTestClient(t, srv).CreateTweet(t.Context(), "tok", poster.CreateRequest{Text: "x"})
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestMapHTTPError_Message(t *testing.T) {
	t.Parallel()

	err := mapHTTPError(http.StatusBadRequest, strings.NewReader(`{"errors":[{"message":"duplicate content"}]}`))
	if !strings.Contains(err.Error(), "duplicate content") {
		t.Errorf("error %q should carry upstream message", err)
	}
	err = mapHTTPError(http.StatusTeapot, strings.NewReader(""))
	if !strings.Contains(err.Error(), "HTTP 418") {
		t.Errorf("error %q should fall back to status", err)
	}
}

func TestUploadMedia(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/1.1/media/upload.json" {
			http.Error(w, "unexpected route", http.StatusNotFound)
			return
		}
		file, hdr, err := r.FormFile("media")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer func() { _ = file.Close() }()
		data, _ := io.ReadAll(file)
		if hdr.Filename != "cat.png" || string(data) != "PNG" {
			http.Error(w, "bad file", http.StatusBadRequest)
			return
		}
		if r.FormValue("media_type") != "image/png" {
			http.Error(w, "bad media_type", http.StatusBadRequest)
			return
		}
		_, _ = io.WriteString(w, `{"media_id":1,"media_id_string":"1"}`)
	})

	id, err := newTestClient(t, srv).UploadMedia(t.Context(), "tok", poster.MediaRef{
		Filename: "cat.png",
		MimeType: "image/png",
		Data:     []byte("PNG"),
	})
	if err != nil {
		t.Fatalf("UploadMedia: %v", err)
	}
	if id != "1" {
		t.Errorf("media id = %q", id)
	}
}

func TestMe(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/2/users/me" {
			http.Error(w, "unexpected route", http.StatusNotFound)
			return
		}
		_, _ = io.WriteString(w, `{"data":{"id":"42","name":"Ada","username":"ada"}}`)
	})

	id, err := newTestClient(t, srv).Me(t.Context(), "tok")
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if id.ID != "42" || id.Username != "ada" || id.Name != "Ada" {
		t.Errorf("identity = %+v", id)
	}
}

func TestRefreshToken(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/2/oauth2/token" {
			http.Error(w, "unexpected route", http.StatusNotFound)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "cid" || pass != "csecret" {
			http.Error(w, `{"error_description":"bad client"}`, http.StatusUnauthorized)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if r.PostForm.Get("grant_type") != "refresh_token" || r.PostForm.Get("refresh_token") != "r1" {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		_, _ = io.WriteString(w, `{"access_token":"a2","refresh_token":"r2","expires_in":7200}`)
	})

	pair, err := newTestClient(t, srv).RefreshToken(t.Context(), "r1")
	if err != nil {
		t.Fatalf("RefreshToken: %v", err)
	}
	if pair.AccessToken != "a2" || pair.RefreshToken != "r2" {
		t.Errorf("pair = %+v", pair)
	}
	if pair.ExpiresIn.Hours() != 2 {
		t.Errorf("ExpiresIn = %v", pair.ExpiresIn)
	}
}

func TestTransportFailureIsUnavailable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	tw := newTestClient(t, srv)
	srv.Close()

	_, err := tw.Me(t.Context(), "tok")
	if !errors.Is(err, poster.ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
}
