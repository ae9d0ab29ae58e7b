package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// APIKeyHeader carries the caller's credential.
const APIKeyHeader = "X-API-Key"

const principalKey = "principal"

// APIKeys maps presented keys to caller ids, one table per caller role.
type APIKeys struct {
	Issuers       map[string]string
	Labs          map[string]string
	ReportClients map[string]string
}

// keyAuth admits requests whose key is in keys and stores the mapped caller id
// on the context.
func keyAuth(keys map[string]string) echo.MiddlewareFunc {
	return middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		KeyLookup: "header:" + APIKeyHeader,
		Validator: func(key string, c echo.Context) (bool, error) {
			id, ok := keys[key]
			if !ok {
				return false, nil
			}
			c.Set(principalKey, id)
			return true, nil
		},
		ErrorHandler: func(_ error, c echo.Context) error {
			return c.JSON(http.StatusUnauthorized, Error{
				Code:    http.StatusUnauthorized,
				Message: "missing or unknown API key",
			})
		},
	})
}

func principal(c echo.Context) string {
	id, _ := c.Get(principalKey).(string)
	return id
}
