package middleware

import (
	"net/http"
	"regexp"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"
)

var versionPrefix = regexp.MustCompile(`^/(v[0-9]+)(/|$)`)

// VersionMiddleware resolves and advertises the API version of a request.
type VersionMiddleware struct {
	supported      map[string]string
	defaultVersion string
}

func NewVersionMiddleware() *VersionMiddleware {
	return &VersionMiddleware{
		supported: map[string]string{
			"v1": "Current stable API version",
		},
		defaultVersion: "v1",
	}
}

// VersionHeader adds version information to response headers
func (vm *VersionMiddleware) VersionHeader(version string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set("X-API-Version", version)
			if msg, ok := vm.supported[version]; ok {
				c.Response().Header().Set("X-API-Message", msg)
			}
			return next(c)
		}
	}
}

// APIVersionResolver rejects unknown /vN prefixes and stores the resolved
// version under "api_version".
func (vm *VersionMiddleware) APIVersionResolver() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			m := versionPrefix.FindStringSubmatch(c.Request().URL.Path)
			if m == nil {
				c.Set("api_version", vm.defaultVersion)
				return next(c)
			}
			if _, ok := vm.supported[m[1]]; !ok {
				return c.JSON(http.StatusNotFound, map[string]string{
					"error":              "Unsupported API version",
					"supported_versions": strings.Join(vm.SupportedVersions(), ", "),
				})
			}
			c.Set("api_version", m[1])
			return next(c)
		}
	}
}

func (vm *VersionMiddleware) SupportedVersions() []string {
	versions := make([]string, 0, len(vm.supported))
	for v := range vm.supported {
		versions = append(versions, v)
	}
	sort.Strings(versions)
	return versions
}
