package metrics

import (
	"go.uber.org/fx"

	metrics "github.com/opencatalog/bulkops/pkg/bulkops/core/metrics"
)

// Module is an Fx module that provides the PrometheusRecorder, both as the
// concrete type (for the scrape endpoint) and as the core MetricRecorder
// interface.
var Module = fx.Options(
	fx.Provide(
		NewPrometheusRecorder,
		func(r *PrometheusRecorder) metrics.MetricRecorder { return r },
	),
)
