package delivery

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the resolver on the assets and uploads prefixes.
func RegisterRoutes(r gin.IRoutes, resolver *Resolver) {
	for _, prefix := range []string{"/assets/*filepath", "/uploads/*filepath"} {
		r.GET(prefix, resolver.Serve)
		r.HEAD(prefix, resolver.Serve)
	}
}
