package client

import (
	"context"
	"net/http"
	"time"

	"task-dashboard/logging"
)

// StartKeepAlive pings the tasks endpoint on a fixed interval so the hosted
// backend does not spin down between user sessions. Fire and forget: results
// are logged and discarded, failures are never retried early, and nothing in
// application state depends on the outcome. The pinger bypasses the circuit
// breakers for the same reason.
func (c *Client) StartKeepAlive(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/tasks", nil)
				if err != nil {
					continue
				}
				resp, err := c.http.Do(req)
				if err != nil {
					logging.Logger.Warnf("Event ID: KEEPALIVE_FAILED, Description: Backend keep-alive ping failed: %v", err)
					continue
				}
				resp.Body.Close()
				logging.Logger.Infof("Event ID: KEEPALIVE_OK, Description: Backend keep-alive ping returned status %d", resp.StatusCode)
			}
		}
	}()
}
