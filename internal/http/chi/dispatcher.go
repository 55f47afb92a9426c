package chi

import (
	"context"
	"errors"
	"fmt"

	"github.com/marcelsud/posthook/hook/payload"
	"github.com/marcelsud/posthook/hook/signature"
)

// ErrNoRoute is returned by Routes when no pattern matches the delivery path
var ErrNoRoute = errors.New("no handler for hook path")

// Dispatcher receives deliveries whose signature has already been verified
type Dispatcher interface {
	Dispatch(ctx context.Context, d signature.Delivery) error
}

type DispatcherFunc func(ctx context.Context, d signature.Delivery) error

func (f DispatcherFunc) Dispatch(ctx context.Context, d signature.Delivery) error {
	return f(ctx, d)
}

type route struct {
	pattern string
	next    Dispatcher
}

/* Routes dispatches on the hook path carried in the payload, not the URL
 * Patterns are exact paths or "/prefix/*"; the first match wins
 */
type Routes struct {
	routes []route
}

func NewRoutes() *Routes {
	return &Routes{}
}

func (r *Routes) Handle(pattern string, next Dispatcher) error {
	if err := payload.ValidatePattern(pattern); err != nil {
		return err
	}
	if next == nil {
		return fmt.Errorf("nil dispatcher for %s", pattern)
	}
	r.routes = append(r.routes, route{pattern: pattern, next: next})
	return nil
}

func (r *Routes) Dispatch(ctx context.Context, d signature.Delivery) error {
	for _, rt := range r.routes {
		if payload.MatchPath(rt.pattern, d.Path) {
			return rt.next.Dispatch(ctx, d)
		}
	}
	return fmt.Errorf("%w: %s", ErrNoRoute, d.Path)
}

// Patterns lists registered patterns in match order
func (r *Routes) Patterns() []string {
	out := make([]string, 0, len(r.routes))
	for _, rt := range r.routes {
		out = append(out, rt.pattern)
	}
	return out
}
