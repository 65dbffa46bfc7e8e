package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHumanizeParam(t *testing.T) {
	tests := []struct {
		param string
		want  string
	}{
		{"id", "ID"},
		{"userId", "user ID"},
		{"workspaceId", "workspace ID"},
		{"challengeManagerId", "challenge manager ID"},
		{"slug", "slug"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, humanizeParam(tt.param), tt.param)
	}
}

func TestParseID(t *testing.T) {
	s := &Server{}
	app := fiber.New()
	app.Get("/things/:id", func(c *fiber.Ctx) error {
		id, err := s.parseID(c, "id")
		if err != nil {
			return nil
		}
		return c.JSON(fiber.Map{"id": id})
	})

	tests := []struct {
		name string
		path string
		want int
	}{
		{"Valid", "/things/42", http.StatusOK},
		{"Zero", "/things/0", http.StatusBadRequest},
		{"Negative", "/things/-5", http.StatusBadRequest},
		{"Garbage", "/things/abc", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
			_ = resp.Body.Close()
		})
	}
}

func TestParsePagination(t *testing.T) {
	app := fiber.New()
	var got Pagination
	app.Get("/list", func(c *fiber.Ctx) error {
		got = parsePagination(c, 20)
		return c.SendStatus(http.StatusOK)
	})

	cases := []struct {
		query string
		want  Pagination
	}{
		{"", Pagination{Limit: 20, Offset: 0}},
		{"?limit=50&offset=10", Pagination{Limit: 50, Offset: 10}},
		{"?limit=5000", Pagination{Limit: maxPaginationLimit, Offset: 0}},
		{"?limit=-1&offset=-2", Pagination{Limit: 20, Offset: 0}},
	}
	for _, tt := range cases {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/list"+tt.query, nil))
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.query)
		_ = resp.Body.Close()
	}
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodGet, "/health/live", "", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// sqlite is healthy but there is no Redis in the test env, so readiness
	// reports unavailable.
	var ready struct {
		Status string `json:"status"`
		Checks struct {
			Database string `json:"database"`
			Redis    string `json:"redis"`
		} `json:"checks"`
	}
	resp = env.request(t, http.MethodGet, "/health/ready", "", nil, &ready)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "healthy", ready.Checks.Database)
	assert.Equal(t, "unavailable", ready.Checks.Redis)
}
