package hook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

/* Requester is the one capability the resource services need from a transport
 * *transport.Client satisfies it; tests use mocks.Requester
 */
type Requester interface {
	/* Request returns the unwrapped "data" member of a successful response
	 * together with the response headers
	 */
	Request(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, http.Header, error)
}
