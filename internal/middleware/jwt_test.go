package middleware

import (
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/cinegate/screening-reservation/internal/utils"
)

const testSecret = "test-secret"

// runChain sends a request with the given Authorization header through
// JWTAuth plus any extra middleware and reports the recorded response.
// The terminal handler echoes the extracted identity.
func runChain(t *testing.T, authHeader string, extra ...echo.MiddlewareFunc) *httptest.ResponseRecorder {
    t.Helper()
    e := echo.New()
    req := httptest.NewRequest(http.MethodGet, "/", nil)
    if authHeader != "" {
        req.Header.Set("Authorization", authHeader)
    }
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)

    h := func(c echo.Context) error {
        return c.JSON(http.StatusOK, echo.Map{
            "user_id": c.Get("user_id"),
            "role":    c.Get("role"),
        })
    }
    for i := len(extra) - 1; i >= 0; i-- {
        h = extra[i](h)
    }
    require.NoError(t, JWTAuth(testSecret)(h)(c))
    return rec
}

func TestJWTAuthAcceptsMintedToken(t *testing.T) {
    tok, err := utils.NewAccessToken(testSecret, 42, "CUSTOMER", 15)
    require.NoError(t, err)

    rec := runChain(t, "Bearer "+tok.Token)
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Contains(t, rec.Body.String(), `"role":"CUSTOMER"`)
}

func TestJWTAuthRejectsMissingHeader(t *testing.T) {
    rec := runChain(t, "")
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthRejectsGarbageToken(t *testing.T) {
    rec := runChain(t, "Bearer not.a.jwt")
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthRejectsWrongSecret(t *testing.T) {
    tok, err := utils.NewAccessToken("some-other-secret", 42, "CUSTOMER", 15)
    require.NoError(t, err)

    rec := runChain(t, "Bearer "+tok.Token)
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRoleAllowsMatchingRole(t *testing.T) {
    tok, err := utils.NewAccessToken(testSecret, 42, "CUSTOMER", 15)
    require.NoError(t, err)

    rec := runChain(t, "Bearer "+tok.Token, RequireRole("CUSTOMER"))
    assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRoleForbidsOtherRoles(t *testing.T) {
    tok, err := utils.NewAccessToken(testSecret, 42, "ADMIN", 15)
    require.NoError(t, err)

    rec := runChain(t, "Bearer "+tok.Token, RequireRole("CUSTOMER"))
    assert.Equal(t, http.StatusForbidden, rec.Code)
}
