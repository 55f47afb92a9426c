/*
Package posthook is a client for the Posthook webhook scheduling API.

A Client schedules hooks, inspects and deletes them, runs bulk retry, replay
and cancel operations, and verifies the signature of deliveries Posthook
sends back to your endpoint:

	client, err := posthook.NewClient(posthook.WithAPIKey("pk_..."))
	if err != nil {
		return err
	}
	defer client.Close()

	h, err := client.Hooks.Schedule(ctx, hook.ScheduleRequest{
		Path:   "/webhooks/trial-reminder",
		Data:   map[string]any{"userId": 42},
		PostIn: "3d",
	})

	for h, err := range client.Hooks.ListAll(ctx, hook.ListParams{Status: hook.Failed}) {
		...
	}

Configuration is resolved once, at construction, from explicit options, then
POSTHOOK_API_KEY / POSTHOOK_SIGNING_KEY / POSTHOOK_BASE_URL / POSTHOOK_TIMEOUT,
then an optional config file, then defaults.

Deliveries must be verified over the raw request body:

	d, err := client.Signatures.ParseRequest(r)
	if apierror.IsSignatureVerification(err) {
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}
*/
package posthook
