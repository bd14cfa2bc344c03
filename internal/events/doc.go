// Package events defines the lifecycle event vocabulary and the in-process
// publish mechanism connecting the fan-out dispatcher to its delivery
// handlers. The emitter is injected explicitly so handlers stay
// unit-testable without any framework-managed event loop.
package events
