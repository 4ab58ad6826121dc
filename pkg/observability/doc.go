/*
Package observability provides tools for monitoring the Strata composition engine.

Metrics are Prometheus collectors driven by composition lifecycle hooks:

	m, err := observability.NewMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	eng, err := strata.New("./scene", strata.WithLifecycleHooks(m.Hooks()))

Chain combines several hook sets when more than one consumer is interested.
*/
package observability
