package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestAttachTraceContextEchoesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AttachTraceContext())
	r.GET("/x", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(KeyRequestID))
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(HeaderRequestID, "req-42")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Body.String() != "req-42" || rec.Header().Get(HeaderRequestID) != "req-42" {
		t.Fatalf("request id not echoed: body=%q header=%q", rec.Body.String(), rec.Header().Get(HeaderRequestID))
	}
	if rec.Header().Get(HeaderTraceID) == "" {
		t.Fatalf("trace id header missing")
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rec.Body.Len() == 0 {
		t.Fatalf("request id should be minted when absent")
	}
}

func TestAttachActor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AttachActor(""))
	r.GET("/x", func(c *gin.Context) {
		if id, ok := ActorID(c); ok {
			c.JSON(http.StatusOK, gin.H{"actor": id})
			return
		}
		c.Status(http.StatusNoContent)
	})

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{name: "anonymous", want: http.StatusNoContent},
		{name: "staff user", header: "7", want: http.StatusOK},
		{name: "garbage", header: "seven", want: http.StatusBadRequest},
		{name: "zero", header: "0", want: http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			if tc.header != "" {
				req.Header.Set(HeaderUserID, tc.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("status: got=%d want=%d", rec.Code, tc.want)
			}
		})
	}
}

func TestAttachActorWithSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)
	const secret = "s3cret"
	r := gin.New()
	r.Use(AttachActor(secret))
	r.GET("/x", func(c *gin.Context) {
		id, ok := ActorID(c)
		if !ok {
			c.Status(http.StatusNoContent)
			return
		}
		c.String(http.StatusOK, "%d", id)
	})

	good, err := SignActorToken(secret, 42, time.Hour)
	if err != nil {
		t.Fatalf("SignActorToken: %v", err)
	}
	expired, err := SignActorToken(secret, 42, -time.Hour)
	if err != nil {
		t.Fatalf("SignActorToken: %v", err)
	}
	forged, err := SignActorToken("other", 42, time.Hour)
	if err != nil {
		t.Fatalf("SignActorToken: %v", err)
	}

	cases := []struct {
		name    string
		headers map[string]string
		want    int
		body    string
	}{
		{name: "anonymous", want: http.StatusNoContent},
		{name: "header ignored", headers: map[string]string{HeaderUserID: "7"}, want: http.StatusNoContent},
		{name: "valid token", headers: map[string]string{"Authorization": "Bearer " + good}, want: http.StatusOK, body: "42"},
		{name: "expired", headers: map[string]string{"Authorization": "Bearer " + expired}, want: http.StatusUnauthorized},
		{name: "wrong secret", headers: map[string]string{"Authorization": "bearer " + forged}, want: http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("status: got=%d want=%d", rec.Code, tc.want)
			}
			if tc.body != "" && rec.Body.String() != tc.body {
				t.Fatalf("body: got=%q want=%q", rec.Body.String(), tc.body)
			}
		})
	}
}
