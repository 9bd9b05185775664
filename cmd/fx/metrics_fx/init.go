package metrics_fx

import (
	"go.uber.org/fx"

	"peervote/pkg/metrics"
)

var Module = fx.Provide(metrics.NewMetricService)
