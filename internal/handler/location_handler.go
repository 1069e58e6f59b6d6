package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/trackpoint-dev/locations-backend-go/internal/errs"
	"github.com/trackpoint-dev/locations-backend-go/internal/service"
	"github.com/trackpoint-dev/locations-backend-go/internal/version"
	"github.com/trackpoint-dev/locations-backend-go/pkg/response"
)

// isoTimeLayout is the from/to query format of the compatible query API.
// Epoch seconds are accepted as well.
const isoTimeLayout = "2006-01-02T15:04:05"

// maxReportBytes bounds an ingested report body.
const maxReportBytes = 1 << 20

// LocationHandler maps the /api/0 HTTP surface onto the ingest, query and
// stats services.
type LocationHandler struct {
	ingest *service.IngestService
	query  *service.QueryService
	stats  *service.StatsService
}

// NewLocationHandler creates a new location handler.
func NewLocationHandler(ingest *service.IngestService, query *service.QueryService, stats *service.StatsService) *LocationHandler {
	return &LocationHandler{
		ingest: ingest,
		query:  query,
		stats:  stats,
	}
}

// Publish handles POST /api/0/pub. Routing keys arrive as query parameters
// (u/user and d/device); the body is the raw location report. Tracking
// clients in HTTP mode expect a JSON array of command messages back, so
// acceptance responds with an empty array.
func (h *LocationHandler) Publish(c *gin.Context) {
	user := queryParam(c, "u", "user")
	device := queryParam(c, "d", "device")

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxReportBytes))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "unable to read report body")
		return
	}

	point, err := h.ingest.Ingest(user, device, body)
	if err != nil {
		h.respondError(c, err)
		return
	}

	logrus.WithFields(logrus.Fields{
		"user":   point.User,
		"device": point.Device,
		"tst":    point.Timestamp,
	}).Debug("location report accepted")
	c.JSON(http.StatusOK, []any{})
}

// Last handles GET /api/0/last. With no parameters it returns the last known
// point of every device of every user; with a user it narrows to that user's
// devices; with user and device it returns that single point.
func (h *LocationHandler) Last(c *gin.Context) {
	user := queryParam(c, "u", "user")
	device := queryParam(c, "d", "device")

	switch {
	case user == "" && device == "":
		c.JSON(http.StatusOK, h.query.LastAll())
	case device == "":
		points, err := h.query.LastForUser(user)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, points)
	case user == "":
		response.Error(c, http.StatusBadRequest, "device filter requires a user")
	default:
		point, err := h.query.LastForDevice(user, device)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, point)
	}
}

// Locations handles GET /api/0/locations: the chronologically ordered track
// of one device inside [from, to].
func (h *LocationHandler) Locations(c *gin.Context) {
	user := queryParam(c, "u", "user")
	device := queryParam(c, "d", "device")
	if user == "" || device == "" {
		response.Error(c, http.StatusBadRequest, "user and device are required")
		return
	}

	from, to, ok := h.timeWindow(c)
	if !ok {
		return
	}

	points, err := h.query.History(user, device, from, to)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Locations(c, points)
}

// List handles GET /api/0/list: all users, or the devices of one user.
func (h *LocationHandler) List(c *gin.Context) {
	user := queryParam(c, "u", "user")

	var (
		results []string
		err     error
	)
	if user == "" {
		results, err = h.query.ListUsers()
	} else {
		results, err = h.query.ListDevices(user)
	}
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.List(c, results)
}

// Stats handles GET /api/0/stats: distance, duration and average speed of
// one device's track inside [from, to].
func (h *LocationHandler) Stats(c *gin.Context) {
	user := queryParam(c, "u", "user")
	device := queryParam(c, "d", "device")
	if user == "" || device == "" {
		response.Error(c, http.StatusBadRequest, "user and device are required")
		return
	}

	from, to, ok := h.timeWindow(c)
	if !ok {
		return
	}

	stats, err := h.stats.Summarize(user, device, from, to)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Version handles GET /api/0/version.
func (h *LocationHandler) Version(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"version": version.Version,
		"git":     version.GitRevision,
	})
}

// timeWindow parses the optional from/to parameters, defaulting to the open
// window [0, now]. On a parse failure it writes the error response itself.
func (h *LocationHandler) timeWindow(c *gin.Context) (from, to int64, ok bool) {
	from, err := parseTimeParam(c.Query("from"), 0)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "unable to parse 'from' parameter")
		return 0, 0, false
	}
	to, err = parseTimeParam(c.Query("to"), time.Now().Unix())
	if err != nil {
		response.Error(c, http.StatusBadRequest, "unable to parse 'to' parameter")
		return 0, 0, false
	}
	return from, to, true
}

// parseTimeParam accepts epoch seconds or the query API's ISO form.
func parseTimeParam(value string, fallback int64) (int64, error) {
	if value == "" {
		return fallback, nil
	}
	if epoch, err := strconv.ParseInt(value, 10, 64); err == nil {
		return epoch, nil
	}
	t, err := time.Parse(isoTimeLayout, value)
	if err != nil {
		return 0, err
	}
	return t.Unix(), nil
}

// queryParam returns the first non-empty value among the given query keys.
func queryParam(c *gin.Context, keys ...string) string {
	for _, key := range keys {
		if value := c.Query(key); value != "" {
			return value
		}
	}
	return ""
}

// respondError maps the error taxonomy to stable HTTP statuses. Client input
// defects are not logged as server faults; store failures are.
func (h *LocationHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrMalformedReport),
		errors.Is(err, errs.ErrOutOfRange),
		errors.Is(err, errs.ErrInvalidRange):
		response.Error(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, errs.ErrNotFound):
		response.Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, errs.ErrStoreUnavailable):
		logrus.WithError(err).WithField("path", c.Request.URL.Path).Error("store unavailable")
		response.Error(c, http.StatusServiceUnavailable, err.Error())
	default:
		logrus.WithError(err).WithField("path", c.Request.URL.Path).Error("unexpected failure")
		response.Error(c, http.StatusInternalServerError, err.Error())
	}
}
