package chi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/marcelsud/posthook/apierror"
	"github.com/marcelsud/posthook/hook/signature"
	"github.com/marcelsud/posthook/metrics"
)

/* HTTP layer DTOs for deliveries
 * Separate from signature.Delivery so the raw body is never echoed back
 */

// deliveryResponse is returned once a delivery has been handled
type deliveryResponse struct {
	HookID string `json:"hook_id,omitempty"`
	Path   string `json:"path"`
}

const (
	msgInvalidSignature = "invalid signature"
	msgDispatchFailed   = "delivery handler failed"
)

// postDelivery handles POST /* with a signed hook body
func postDelivery(verifier *signature.Verifier, dispatcher Dispatcher, opts Options) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The signature covers the exact bytes, so read before anything parses them
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, opts.MaxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		d, err := verifier.ParseDelivery(r.Context(), body, r.Header)
		if err != nil {
			if apierror.IsSignatureVerification(err) {
				opts.Instruments.RecordDelivery(r.Context(), metrics.DeliveryRejected)
				http.Error(w, msgInvalidSignature, http.StatusUnauthorized)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		if err := dispatcher.Dispatch(r.Context(), d); err != nil {
			if errors.Is(err, ErrNoRoute) {
				opts.Instruments.RecordDelivery(r.Context(), metrics.DeliveryUnrouted)
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			opts.Instruments.RecordDelivery(r.Context(), metrics.DeliveryFailed)
			opts.Logger.Error().Err(err).Str("hook_id", d.HookID).Str("path", d.Path).Msg("dispatching delivery")
			http.Error(w, msgDispatchFailed, http.StatusInternalServerError)
			return
		}

		opts.Instruments.RecordDelivery(r.Context(), metrics.DeliveryAccepted)
		w.Header().Set("Content-Type", "application/json")
		response := deliveryResponse{
			HookID: d.HookID,
			Path:   d.Path,
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}
