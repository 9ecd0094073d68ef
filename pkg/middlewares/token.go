package middlewares

import (
	t_token "language_exchange_service/pkg/token"

	"github.com/gofiber/fiber/v2"
)

const (
	//QueryToken token in query name
	QueryToken = "auth"

	//CookieToken token in cookie name
	CookieToken = "auth_token"

	//TokenMemberID get member form token, set c.locals name
	TokenMemberID = "MemberID"
	//TokenRole get role form token, set c.locals name
	TokenRole = "role"
	//TokenRaw raw credential, set c.locals name
	TokenRaw = "token"
)

// ExtractToken read token from query, Authorization header or cookie
func ExtractToken(c *fiber.Ctx) string {
	if tokenStr := c.Query(QueryToken); tokenStr != "" {
		return tokenStr
	}
	if header := c.Get(fiber.HeaderAuthorization); header != "" {
		return t_token.StripBearer(header)
	}
	return c.Cookies(CookieToken)
}

// JWTMiddleware validates JWT from query / Authorization header / cookie
func JWTMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := ExtractToken(c)
		if tokenStr == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing token",
				"code":  "AUTHENTICATION_FAILURE",
			})
		}

		claims, err := t_token.ParseJWTWrapper(tokenStr)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
				"code":  "AUTHENTICATION_FAILURE",
			})
		}

		c.Locals(TokenMemberID, claims.MemberID)
		c.Locals(TokenRole, claims.Role)
		c.Locals(TokenRaw, tokenStr)

		return c.Next()
	}
}

// MemberID read member id set by JWTMiddleware
func MemberID(c *fiber.Ctx) (string, bool) {
	id, ok := c.Locals(TokenMemberID).(string)
	return id, ok && id != ""
}
