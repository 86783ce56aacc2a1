// Package retailscope turns a retail transaction ledger into dashboard
// views: revenue and activity by country, product and calendar bucket,
// rankings with percentage shares, and one-line highlights.
//
// Usage:
//
//	import (
//	    "github.com/spektr-org/retailscope/engine"
//	    "github.com/spektr-org/retailscope/ledger"
//	)
//
//	batch, err := ledger.NewNormalizer().Normalize(rows)
//	result, err := engine.Execute(engine.QuerySpec{
//	    Name:    "top_countries",
//	    GroupBy: []engine.DimensionID{engine.DimCountry},
//	    Metrics: []engine.MetricSpec{{Metric: engine.MetricRevenue}},
//	    Rank:    &engine.RankSpec{Metric: engine.MetricRevenue, Limit: 5},
//	}, engine.NewSliceView(batch.Items))
//
// Raw rows come from the helpers package (CSV or Postgres). The dashboard
// package runs many queries from a YAML definition concurrently.
// The engine never calls any external service; all computation is local.
package retailscope
