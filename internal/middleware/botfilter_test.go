//nolint:testpackage // testing internal matching behaviour
package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func runBotFilter(t *testing.T, userAgent string) bool {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var flagged bool
	router := gin.New()
	router.Use(BotFilter())
	router.GET("/t/c", func(c *gin.Context) {
		flagged = IsBot(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/t/c", nil)
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	router.ServeHTTP(httptest.NewRecorder(), req)

	return flagged
}

func TestBotFilterFlagsScanners(t *testing.T) {
	cases := []struct {
		name      string
		userAgent string
		want      bool
	}{
		{"browser", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36", false},
		{"empty", "", true},
		{"googlebot", "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)", true},
		{"mail_scanner", "Barracuda Sentinel (EE)", true},
		{"curl", "curl/8.4.0", true},
		{"image_proxy", "Mozilla/5.0 (Windows NT 5.1; rv:11.0) Gecko Firefox/11.0 (via ggpht.com GoogleImageProxy)", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := runBotFilter(t, tc.userAgent); got != tc.want {
				t.Errorf("flagged = %v, want %v for %q", got, tc.want, tc.userAgent)
			}
		})
	}
}

func TestIsBotWithoutFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if IsBot(c) {
		t.Error("IsBot should be false when BotFilter never ran")
	}
}
