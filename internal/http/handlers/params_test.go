package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestDateAcceptsBothLayouts(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{in: `"2026-03-01"`, want: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
		{in: `"2026-03-01T09:30:00+02:00"`, want: time.Date(2026, 3, 1, 7, 30, 0, 0, time.UTC)},
		{in: `null`},
		{in: `""`},
	}
	for _, tc := range cases {
		var d Date
		if err := json.Unmarshal([]byte(tc.in), &d); err != nil {
			t.Fatalf("%s: %v", tc.in, err)
		}
		if !d.Time.Equal(tc.want) {
			t.Fatalf("%s: got %v want %v", tc.in, d.Time, tc.want)
		}
	}
	var d Date
	if err := json.Unmarshal([]byte(`"03/01/2026"`), &d); err == nil {
		t.Fatalf("expected an error for an unknown layout")
	}
}

func TestListQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/x?status=Draft,%20Approved,,", nil)
	got := listQuery(c, "status")
	if len(got) != 2 || got[0] != "Draft" || got[1] != "Approved" {
		t.Fatalf("listQuery = %v", got)
	}
	if listQuery(c, "missing") != nil {
		t.Fatalf("missing query should yield nil")
	}
}

func TestUintParamRejectsZero(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Params = gin.Params{{Key: "id", Value: "0"}}
	if _, ok := uintParam(c, "id"); ok {
		t.Fatalf("zero id accepted")
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}
