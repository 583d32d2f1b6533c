package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/invoicer/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type healthRoutes struct{}

func (healthRoutes) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "up") })
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestNewRouter(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	assert.NotNil(t, r)
	assert.Equal(t, "v1", r.apiVersion)
	assert.Equal(t, "/api/v1", r.BasePath())
	assert.Empty(t, r.registrars)
}

func TestRouterWithAPIVersion(t *testing.T) {
	r := NewRouter(gin.New(), WithAPIVersion("v2"))

	assert.Equal(t, "v2", r.apiVersion)
	assert.Equal(t, "/api/v2", r.BasePath())
}

func TestRouterRegister(t *testing.T) {
	r := NewRouter(gin.New())

	r.Register(NewDomainGroup("invoices", "/invoices")).RegisterRoot(healthRoutes{})

	assert.Len(t, r.registrars, 1)
	assert.Len(t, r.rootRegistrars, 1)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v1"))

	group := NewDomainGroup("invoices", "/invoices")
	group.POST("/totals", func(c *gin.Context) {
		c.String(http.StatusOK, "totals")
	})

	r.Register(group).RegisterRoot(healthRoutes{})
	r.Setup()

	t.Run("versioned route", func(t *testing.T) {
		w := serve(engine, "POST", "/api/v1/invoices/totals")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "totals", w.Body.String())
	})

	t.Run("root route", func(t *testing.T) {
		w := serve(engine, "GET", "/health")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "up", w.Body.String())

		assert.Equal(t, http.StatusNotFound, serve(engine, "GET", "/api/v1/health").Code)
	})

	t.Run("unknown route answers with JSON envelope", func(t *testing.T) {
		w := serve(engine, "GET", "/api/v1/unknown")
		assert.Equal(t, http.StatusNotFound, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
	})

	t.Run("wrong method answers 405", func(t *testing.T) {
		w := serve(engine, "GET", "/api/v1/invoices/totals")
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
		assert.Contains(t, w.Body.String(), dto.ErrCodeBadRequest)
	})
}

func TestDomainGroup(t *testing.T) {
	t.Run("creates group with name and prefix", func(t *testing.T) {
		g := NewDomainGroup("invoices", "/invoices")
		assert.Equal(t, "invoices", g.Name())
		assert.Equal(t, "/invoices", g.Prefix())
	})

	t.Run("registers routes by method", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("invoices", "/invoices")
		g.GET("/:number", func(c *gin.Context) {
			c.String(http.StatusOK, "get "+c.Param("number"))
		})
		g.POST("", func(c *gin.Context) {
			c.String(http.StatusCreated, "created")
		})
		g.Handle(http.MethodHead, "/:number", func(c *gin.Context) {
			c.Status(http.StatusNoContent)
		})

		g.RegisterRoutes(engine.Group("/api/v1"))

		w := serve(engine, "GET", "/api/v1/invoices/INV-1")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "get INV-1", w.Body.String())

		assert.Equal(t, http.StatusCreated, serve(engine, "POST", "/api/v1/invoices").Code)
		assert.Equal(t, http.StatusNoContent, serve(engine, "HEAD", "/api/v1/invoices/INV-1").Code)
	})

	t.Run("applies middleware", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("invoices", "/invoices")

		g.Use(func(c *gin.Context) {
			c.Header("X-Test-Middleware", "applied")
			c.Next()
		})
		g.GET("", func(c *gin.Context) {
			c.String(http.StatusOK, "ok")
		})

		g.RegisterRoutes(engine.Group("/api/v1"))

		w := serve(engine, "GET", "/api/v1/invoices")
		assert.Equal(t, "applied", w.Header().Get("X-Test-Middleware"))
	})

	t.Run("per-route handlers run in order", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("invoices", "/invoices")
		guard := func(c *gin.Context) {
			c.AbortWithStatus(http.StatusTooManyRequests)
		}
		g.POST("/pdf", guard, func(c *gin.Context) {
			c.String(http.StatusOK, "pdf")
		})

		g.RegisterRoutes(engine.Group("/api/v1"))

		assert.Equal(t, http.StatusTooManyRequests, serve(engine, "POST", "/api/v1/invoices/pdf").Code)
	})

	t.Run("creates subgroups", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("invoices", "/invoices")

		stored := g.Group("stored", "/stored")
		stored.GET("", func(c *gin.Context) {
			c.String(http.StatusOK, "stored list")
		})

		g.RegisterRoutes(engine.Group("/api/v1"))

		w := serve(engine, "GET", "/api/v1/invoices/stored")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "stored list", w.Body.String())
	})
}

func TestChainedMethodCalls(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	g := NewDomainGroup("test", "/test")
	g.GET("/a", func(c *gin.Context) { c.String(http.StatusOK, "a") }).
		POST("/b", func(c *gin.Context) { c.String(http.StatusOK, "b") }).
		Handle(http.MethodPut, "/c", func(c *gin.Context) { c.String(http.StatusOK, "c") })

	r.Register(g).Setup()

	tests := []struct {
		method string
		path   string
	}{
		{"GET", "/api/v1/test/a"},
		{"POST", "/api/v1/test/b"},
		{"PUT", "/api/v1/test/c"},
	}

	for _, tt := range tests {
		w := serve(engine, tt.method, tt.path)
		assert.Equal(t, http.StatusOK, w.Code, "Route %s %s should work", tt.method, tt.path)
	}
}
