package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// DataResponse wraps a payload in the standard data envelope
type DataResponse struct {
	Data interface{} `json:"data"`
}

// SuccessOK returns a 200 OK response
func SuccessOK(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, data)
}

// SuccessData returns a 200 OK response in the data envelope
func SuccessData(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, &DataResponse{Data: data})
}

// SuccessCreated returns a 201 Created response
func SuccessCreated(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, data)
}
