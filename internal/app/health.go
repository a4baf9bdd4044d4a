package app

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const healthCheckTimeout = 2 * time.Second

// Check is one dependency probed by the health endpoint
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

type HealthChecker struct {
	checks []Check
}

func NewHealthChecker(checks ...Check) *HealthChecker {
	return &HealthChecker{
		checks: checks,
	}
}

// check pings every dependency concurrently and returns the failures by name
func (h *HealthChecker) check(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	type result struct {
		name string
		err  error
	}

	results := make(chan result, len(h.checks))
	for _, c := range h.checks {
		go func() {
			results <- result{name: c.Name, err: c.Ping(ctx)}
		}()
	}

	failures := make(map[string]string)
	for range h.checks {
		if r := <-results; r.err != nil {
			failures[r.name] = r.err.Error()
		}
	}
	return failures
}

func (h *HealthChecker) Handler(c *gin.Context) {
	if failures := h.check(c.Request.Context()); len(failures) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "fail",
			"errors": failures,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "pass",
	})
}
