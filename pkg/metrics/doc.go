/*
Package metrics exposes Prometheus metrics and process health for the broker.

Metrics cover the controller transport (requests by action and outcome),
lifecycle operations, convergence latency and the managed-server population.
Handler returns the /metrics endpoint; HealthHandler and LivenessHandler
serve JSON health reports fed by RegisterComponent/UpdateComponent.

Timing an operation:

	timer := metrics.NewTimer()
	// ... perform operation ...
	timer.ObserveDurationVec(metrics.ConvergenceDuration, "start")
*/
package metrics
