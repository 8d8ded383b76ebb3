package cors

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/reschedule-api/pkg/config"
)

const (
	allowMethods  = "GET, POST, PUT, DELETE, OPTIONS"
	allowHeaders  = "Authorization, Content-Type, X-Requested-With, X-Request-ID"
	exposeHeaders = "Content-Disposition, X-Request-ID"
)

type policy struct {
	any     bool
	origins map[string]struct{}
	maxAge  string
}

func newPolicy(cfg config.CORSConfig) policy {
	p := policy{origins: make(map[string]struct{}, len(cfg.AllowedOrigins))}
	for _, origin := range cfg.AllowedOrigins {
		origin = strings.TrimRight(origin, "/")
		if origin == "*" {
			p.any = true
			continue
		}
		p.origins[origin] = struct{}{}
	}
	if len(p.origins) == 0 {
		p.any = true
	}
	if cfg.MaxAge > 0 {
		p.maxAge = strconv.Itoa(int(cfg.MaxAge.Seconds()))
	}
	return p
}

// allow returns the Access-Control-Allow-Origin value for origin and whether
// credentials may be sent with it. Browsers refuse credentials on "*".
func (p policy) allow(origin string) (string, bool) {
	if origin == "" {
		if p.any {
			return "*", false
		}
		return "", false
	}
	if _, ok := p.origins[strings.TrimRight(origin, "/")]; ok {
		return origin, true
	}
	if p.any {
		return "*", false
	}
	return "", false
}

// New returns the CORS middleware. An empty origin list, or a "*" entry,
// allows every origin without credentials.
func New(cfg config.CORSConfig) gin.HandlerFunc {
	p := newPolicy(cfg)

	return func(c *gin.Context) {
		header := c.Writer.Header()
		header.Add("Vary", "Origin")

		allowed, credentials := p.allow(c.GetHeader("Origin"))
		if allowed != "" {
			header.Set("Access-Control-Allow-Origin", allowed)
			header.Set("Access-Control-Expose-Headers", exposeHeaders)
			if credentials {
				header.Set("Access-Control-Allow-Credentials", "true")
			}
		}

		if c.Request.Method == http.MethodOptions {
			if allowed != "" {
				header.Set("Access-Control-Allow-Methods", allowMethods)
				header.Set("Access-Control-Allow-Headers", allowHeaders)
				if p.maxAge != "" {
					header.Set("Access-Control-Max-Age", p.maxAge)
				}
			}
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
