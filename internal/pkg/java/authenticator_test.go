package java

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"go.uber.org/atomic"
)

const aliceProfileJSON = `{
	"id": "069a79f444e94026bff7c661ee8f6a09",
	"name": "Alice",
	"properties": [
		{"name": "textures", "value": "dGV4dHVyZXM=", "signature": "c2ln"}
	]
}`

func TestHTTPSessionAuthenticator_AuthenticateSession(t *testing.T) {
	tt := []struct {
		name    string
		status  int
		body    string
		err     error
		profile *Profile
	}{
		{
			name:   "joined",
			status: http.StatusOK,
			body:   aliceProfileJSON,
			profile: &Profile{
				UUID: uuid.Must(uuid.FromString("069a79f4-44e9-4026-bff7-c661ee8f6a09")),
				Name: "Alice",
				Properties: []Property{
					{Name: "textures", Value: "dGV4dHVyZXM=", Signature: "c2ln"},
				},
			},
		},
		{
			name:   "not joined",
			status: http.StatusNoContent,
			err:    ErrAuthNotJoined,
		},
		{
			name:   "empty body",
			status: http.StatusOK,
			err:    ErrAuthNotJoined,
		},
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			err:    ErrAuthUnexpectedStatus,
		},
		{
			name:   "malformed body",
			status: http.StatusOK,
			body:   `{"id":`,
			err:    ErrAuthMalformedBody,
		},
		{
			name:   "bad uuid",
			status: http.StatusOK,
			body:   `{"id":"not-a-uuid","name":"Alice"}`,
			err:    ErrAuthBadUUID,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			auth := HTTPSessionAuthenticator{
				BaseURL: srv.URL,
				Client:  srv.Client(),
				Timeout: time.Second,
			}

			profile, err := auth.AuthenticateSession(context.Background(), "Alice", "-298c3ec5", nil)
			if !errors.Is(err, tc.err) {
				t.Fatalf("got: %v, want: %v", err, tc.err)
			}

			if tc.err != nil {
				if !errors.Is(err, ErrAuthentication) {
					t.Errorf("%v should match ErrAuthentication", err)
				}
				return
			}

			if profile.UUID != tc.profile.UUID || profile.Name != tc.profile.Name {
				t.Errorf("got: %v, want: %v", profile, tc.profile)
			}

			skin, ok := profile.Skin()
			if !ok || skin != tc.profile.Properties[0] {
				t.Errorf("got: %v, want: %v", skin, tc.profile.Properties[0])
			}
		})
	}
}

func TestHTTPSessionAuthenticator_query(t *testing.T) {
	tt := []struct {
		name         string
		preventProxy bool
		ip           net.IP
		wantIP       string
	}{
		{
			name:   "without ip",
			ip:     net.IPv4(10, 0, 0, 1),
			wantIP: "",
		},
		{
			name:         "prevent proxy connections",
			preventProxy: true,
			ip:           net.IPv4(10, 0, 0, 1),
			wantIP:       "10.0.0.1",
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/session/minecraft/hasJoined" {
					t.Errorf("got path: %s", r.URL.Path)
				}
				q := r.URL.Query()
				if got := q.Get("username"); got != "Alice&Bob" {
					t.Errorf("username got: %q", got)
				}
				if got := q.Get("serverId"); got != "-1f" {
					t.Errorf("serverId got: %q", got)
				}
				if got := q.Get("ip"); got != tc.wantIP {
					t.Errorf("ip got: %q, want: %q", got, tc.wantIP)
				}
				w.WriteHeader(http.StatusNoContent)
			}))
			defer srv.Close()

			auth := HTTPSessionAuthenticator{
				BaseURL:                 srv.URL + "/",
				Client:                  srv.Client(),
				PreventProxyConnections: tc.preventProxy,
			}
			_, _ = auth.AuthenticateSession(context.Background(), "Alice&Bob", "-1f", tc.ip)
		})
	}
}

func TestHTTPSessionAuthenticator_retries(t *testing.T) {
	t.Run("network failures are retried", func(t *testing.T) {
		calls := atomic.NewInt32(0)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Inc() == 1 {
				hj, ok := w.(http.Hijacker)
				if !ok {
					t.Error("response writer cannot hijack")
					return
				}
				conn, _, _ := hj.Hijack()
				conn.Close()
				return
			}
			_, _ = w.Write([]byte(aliceProfileJSON))
		}))
		defer srv.Close()

		auth := HTTPSessionAuthenticator{
			BaseURL: srv.URL,
			Client:  srv.Client(),
			Retries: 1,
		}

		if _, err := auth.AuthenticateSession(context.Background(), "Alice", "0", nil); err != nil {
			t.Fatal(err)
		}
		if calls.Load() != 2 {
			t.Errorf("got: %d calls, want: 2", calls.Load())
		}
	})

	t.Run("rejections are not retried", func(t *testing.T) {
		calls := atomic.NewInt32(0)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Inc()
			w.WriteHeader(http.StatusNoContent)
		}))
		defer srv.Close()

		auth := HTTPSessionAuthenticator{
			BaseURL: srv.URL,
			Client:  srv.Client(),
			Retries: 3,
		}

		_, err := auth.AuthenticateSession(context.Background(), "Alice", "0", nil)
		if !errors.Is(err, ErrAuthNotJoined) {
			t.Fatalf("got: %v, want: %v", err, ErrAuthNotJoined)
		}
		if calls.Load() != 1 {
			t.Errorf("got: %d calls, want: 1", calls.Load())
		}
	})

	t.Run("unreachable server", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		baseURL := srv.URL
		srv.Close()

		auth := HTTPSessionAuthenticator{
			BaseURL: baseURL,
			Timeout: time.Second,
		}
		_, err := auth.AuthenticateSession(context.Background(), "Alice", "0", nil)
		if !errors.Is(err, ErrAuthNetwork) {
			t.Errorf("got: %v, want: %v", err, ErrAuthNetwork)
		}
	})
}
