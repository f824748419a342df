package config

// JWTKey is the HMAC key shared with the identity service that issues tokens.
func (c Config) JWTKey() []byte {
	return []byte(c.JWTSecret)
}
