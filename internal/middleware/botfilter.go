package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// scannerPatterns are User-Agent substrings (lowercase) of known crawlers and
// mail security scanners that pre-fetch pixels and links before a human ever
// sees the message.
var scannerPatterns = []string{
	"googlebot", "bingbot", "slurp", "duckduckbot",
	"baiduspider", "yandexbot", "facebookexternalhit",
	"twitterbot", "linkedinbot", "applebot", "petalbot",
	"semrushbot", "ahrefsbot", "mj12bot", "bytespider",
	"googleimageproxy", "barracuda", "proofpoint",
	"mimecast", "headlesschrome", "curl/", "python-requests",
}

// BotFilter flags requests from known scanners by setting is_bot on the
// context. Tracking handlers still serve the pixel or redirect so the
// response looks identical, but skip the engagement event.
func BotFilter() gin.HandlerFunc {
	return func(c *gin.Context) {
		ua := strings.ToLower(c.Request.UserAgent())
		if ua == "" || isScanner(ua) {
			c.Set("is_bot", true)
		}
		c.Next()
	}
}

// IsBot reports whether BotFilter flagged the current request.
func IsBot(c *gin.Context) bool {
	flagged, ok := c.Get("is_bot")
	if !ok {
		return false
	}
	isBot, isBool := flagged.(bool)
	return isBool && isBot
}

func isScanner(ua string) bool {
	for _, pattern := range scannerPatterns {
		if strings.Contains(ua, pattern) {
			return true
		}
	}
	return false
}
