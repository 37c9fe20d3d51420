/*
Package observability turns chain lifecycle events into logs and Prometheus metrics.

Both helpers return domain.LifecycleHooks, so they can be merged and handed to the engine:

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	hooks := metrics.Hooks().Merge(observability.LoggingHooks(logger))
	eng, err := catena.New("./chains", catena.WithLifecycleHooks(hooks))
*/
package observability
