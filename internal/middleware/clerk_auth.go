package middleware

import (
	"context"
	"strings"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	"github.com/clerk/clerk-sdk-go/v2/jwt"
	"github.com/gofiber/fiber/v3"

	"github.com/ashmitsharp/trackmoney-api/internal/utils"
)

// UserIDKey is the Locals key holding the authenticated user id
const UserIDKey = "user_id"

// TokenVerifier returns the user id a bearer token belongs to
type TokenVerifier func(ctx context.Context, token string) (string, error)

// ClerkVerifier verifies session tokens with Clerk
func ClerkVerifier(secretKey string) TokenVerifier {
	clerk.SetKey(secretKey)

	return func(ctx context.Context, token string) (string, error) {
		claims, err := jwt.Verify(ctx, &jwt.VerifyParams{
			Token: token,
		})
		if err != nil {
			return "", err
		}
		return claims.Subject, nil
	}
}

// ClerkAuth middleware validates Clerk JWT tokens
func ClerkAuth(secretKey string) fiber.Handler {
	if secretKey == "" {
		return func(c fiber.Ctx) error {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Server misconfiguration: CLERK_SECRET_KEY not set")
		}
	}
	return Auth(ClerkVerifier(secretKey))
}

// Auth stores the verified user id in Locals under UserIDKey
func Auth(verify TokenVerifier) fiber.Handler {
	return func(c fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Missing authorization token")
		}

		// Remove "Bearer " prefix
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader || strings.TrimSpace(token) == "" {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid authorization header format")
		}

		userID, err := verify(c.Context(), token)
		if err != nil || userID == "" {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid or expired token")
		}

		c.Locals(UserIDKey, userID)
		return c.Next()
	}
}

// UserID returns the authenticated user id, empty when signed out
func UserID(c fiber.Ctx) string {
	userID, _ := c.Locals(UserIDKey).(string)
	return userID
}
