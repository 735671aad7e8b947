package middleware

import (
	"github.com/gin-gonic/gin"

	appctx "kinfilter/internal/core/context"
	"kinfilter/internal/core/locale"
)

// Locale negotiates the response language and stores its translator in the
// request context. A locale carried in the user's token wins over
// Accept-Language. Must run after Auth/OptionalAuth.
func Locale(catalog *locale.Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		accept := c.GetHeader("Accept-Language")
		if userLocale := appctx.GetLocale(c.Request.Context()); userLocale != "" {
			accept = userLocale
		}

		tr := catalog.For(accept)
		c.Request = c.Request.WithContext(locale.WithTranslator(c.Request.Context(), tr))
		c.Header("Content-Language", tr.Tag().String())
		c.Next()
	}
}
