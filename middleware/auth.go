package middleware

import (
	"strings"

	"manuscript-workflow/helper"
	"manuscript-workflow/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

const actorKey = "actor"

var HTTPHelper = &helper.HTTPHelper{}

// Claims are issued by the identity service; this module only verifies them.
type Claims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// AuthMiddleware verifies the bearer token and stores the caller as a
// models.Actor in the request context. An empty issuer disables the issuer
// check.
func AuthMiddleware(jwtKey []byte, issuer string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			HTTPHelper.SendUnauthorizedError(c, "Authorization header required", HTTPHelper.EmptyJsonMap())
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			HTTPHelper.SendUnauthorizedError(c, "Bearer token required", HTTPHelper.EmptyJsonMap())
			c.Abort()
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return jwtKey, nil
		})
		if err != nil {
			HTTPHelper.SendUnauthorizedError(c, "Invalid token: "+err.Error(), HTTPHelper.EmptyJsonMap())
			c.Abort()
			return
		}

		if !token.Valid {
			HTTPHelper.SendUnauthorizedError(c, "Token is not valid", HTTPHelper.EmptyJsonMap())
			c.Abort()
			return
		}

		if issuer != "" && !claims.VerifyIssuer(issuer, true) {
			HTTPHelper.SendUnauthorizedError(c, "Token issuer is not trusted", HTTPHelper.EmptyJsonMap())
			c.Abort()
			return
		}

		role := models.UserRole(claims.Role)
		if claims.UserID == 0 || !role.Valid() {
			HTTPHelper.SendUnauthorizedError(c, "Token does not identify a user and role", HTTPHelper.EmptyJsonMap())
			c.Abort()
			return
		}

		c.Set(actorKey, models.Actor{UserID: claims.UserID, Role: role})
		c.Set("user_id", claims.UserID)
		c.Set("username", claims.Username)
		c.Set("role", role)

		c.Next()
	}
}

// Actor returns the authenticated caller stored by AuthMiddleware.
func Actor(c *gin.Context) (models.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return models.Actor{}, false
	}
	actor, ok := v.(models.Actor)
	return actor, ok
}

func RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, exists := Actor(c)
		if !exists {
			HTTPHelper.SendUnauthorizedError(c, "User role not found", HTTPHelper.EmptyJsonMap())
			c.Abort()
			return
		}

		for _, role := range roles {
			if actor.Role == role {
				c.Next()
				return
			}
		}

		HTTPHelper.SendForbiddenError(c, "Insufficient permissions", HTTPHelper.EmptyJsonMap())
		c.Abort()
	}
}

// SignToken issues a token in the identity service's format. It exists for
// tooling and tests; this service never issues tokens to users.
func SignToken(jwtKey []byte, claims Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtKey)
}
