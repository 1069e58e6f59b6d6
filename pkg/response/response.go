package response

import (
	"github.com/gin-gonic/gin"

	"github.com/trackpoint-dev/locations-backend-go/internal/models"
)

// ErrorBody is the wire error envelope of the compatible query API.
type ErrorBody struct {
	Error string `json:"error"`
}

// ListBody is the wire envelope of the list endpoint.
type ListBody struct {
	Results []string `json:"results"`
}

// LocationsBody is the wire envelope of the history endpoint. Status is
// always 200 on success; clients of the established protocol read it from
// the body.
type LocationsBody struct {
	Count  int            `json:"count"`
	Data   []models.Point `json:"data"`
	Status int            `json:"status"`
}

// Error sends the wire error envelope with the given HTTP status.
func Error(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorBody{Error: message})
}

// List sends the list envelope. A nil slice still serializes as [].
func List(c *gin.Context, results []string) {
	if results == nil {
		results = []string{}
	}
	c.JSON(200, ListBody{Results: results})
}

// Locations sends the history envelope.
func Locations(c *gin.Context, points []models.Point) {
	if points == nil {
		points = []models.Point{}
	}
	c.JSON(200, LocationsBody{Count: len(points), Data: points, Status: 200})
}
