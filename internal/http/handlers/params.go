package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	domainagg "github.com/yungbote/cadenza-backend/internal/domain/aggregates"
	"github.com/yungbote/cadenza-backend/internal/http/middleware"
	"github.com/yungbote/cadenza-backend/internal/http/response"
)

const dateLayout = "2006-01-02"

// Date decodes either a calendar date or an RFC 3339 timestamp.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		d.Time = time.Time{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	t, err := parseDate(raw)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is neither YYYY-MM-DD nor RFC 3339", raw)
	}
	return t.UTC(), nil
}

func badRequest(c *gin.Context, code string, err error) {
	response.RespondError(c, http.StatusBadRequest, code, err)
}

// uintParam reads a positive path parameter. It writes the 400 itself.
func uintParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "invalid_"+name, fmt.Errorf("%s must be a positive integer", name))
		return 0, false
	}
	return uint(id), true
}

func uintQuery(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Query(name), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "invalid_"+name, fmt.Errorf("query %s must be a positive integer", name))
		return 0, false
	}
	return uint(id), true
}

// dateRange reads the from/to query pair. Bounds are checked by the service.
func dateRange(c *gin.Context) (time.Time, time.Time, bool) {
	from, err := parseDate(c.Query("from"))
	if err != nil {
		badRequest(c, "invalid_from", err)
		return time.Time{}, time.Time{}, false
	}
	to, err := parseDate(c.Query("to"))
	if err != nil {
		badRequest(c, "invalid_to", err)
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

// listQuery splits a comma separated query value.
func listQuery(c *gin.Context, name string) []string {
	var out []string
	for _, v := range strings.Split(c.Query(name), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func bindBody(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		badRequest(c, "invalid_body", err)
		return false
	}
	return true
}

// bindOptionalBody accepts an empty body as the zero request.
func bindOptionalBody(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "invalid_body", err)
		return false
	}
	return true
}

func actorFrom(c *gin.Context) domainagg.Actor {
	var a domainagg.Actor
	if id, ok := middleware.ActorID(c); ok {
		a.UserID = &id
	}
	return a
}
