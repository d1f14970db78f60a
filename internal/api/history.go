package api

import (
	"context"
	"net/http"

	"github.com/sgoswami/eloq/internal/history"
)

// History fetches the read-only assessment archive. It is consumed by the
// history view only; the session controller never reads it.
func (c *Client) History(ctx context.Context) (history.Archive, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/get-history", nil, "")
	if err != nil {
		return history.Archive{}, err
	}

	var archive history.Archive
	if err := c.doJSON(req, &archive); err != nil {
		return history.Archive{}, err
	}
	return archive, nil
}
