// Package apierror defines the error taxonomy returned by the posthook SDK.
//
// Every failure that comes from the remote API, the network, or delivery
// signature verification is an *Error. Match a specific kind with errors.Is:
//
//	if errors.Is(err, apierror.ErrNotFound) {
//		// ...
//	}
//
// or inspect the status and server code with errors.As.
package apierror
