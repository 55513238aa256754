package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/irfndi/quantsim-go/internal/utils"
)

// TimestampLayout is the wire format of every timestamp in a response.
const TimestampLayout = "2006-01-02T15:04:05"

// SuccessResponse wraps a successful result.
type SuccessResponse struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data"`
}

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// respondSuccess encodes the envelope before writing the status, so a
// payload that cannot be encoded becomes a 500 error envelope instead of a
// 200 with an empty body.
func respondSuccess(c *gin.Context, data interface{}) {
	body, err := json.Marshal(SuccessResponse{Status: "success", Data: data})
	if err != nil {
		respondError(c, http.StatusInternalServerError, fmt.Errorf("failed to encode response: %w", err))
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

func respondError(c *gin.Context, code int, err error) {
	_ = c.Error(err)
	c.JSON(code, ErrorResponse{Status: "error", Error: err.Error()})
}

// respondEngineError maps engine errors to HTTP status codes. Parameter,
// lookup and validation failures are the caller's fault.
func respondEngineError(c *gin.Context, err error) {
	if utils.IsClientError(err) {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	respondError(c, http.StatusInternalServerError, err)
}

// respondBindError reports a request that could not be decoded.
func respondBindError(c *gin.Context, what string, err error) {
	var ve *utils.ValidationError
	if errors.As(err, &ve) {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	respondError(c, http.StatusBadRequest, utils.NewValidationErrorf("Invalid %s: %v", what, err))
}

func formatTimestamps(ts []time.Time) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.UTC().Format(TimestampLayout)
	}
	return out
}

func requireField(name string, present bool) error {
	if !present {
		return utils.NewValidationErrorf("%s is required", name)
	}
	return nil
}
