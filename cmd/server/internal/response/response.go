package response

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stegosaurus21/minicms-sub001/internal/types"
)

var (
	InternalServerError = echo.NewHTTPError(
		http.StatusInternalServerError,
		types.StringError("something went wrong"),
	)
	NotFoundError     = echo.NewHTTPError(http.StatusNotFound, types.StringError("not found"))
	UnauthorizedError = echo.NewHTTPError(http.StatusUnauthorized, types.StringError("Unauthorized"))
	BadGatewayError   = echo.NewHTTPError(http.StatusBadGateway, types.StringError("judge unavailable"))
)
