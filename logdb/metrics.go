// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"github.com/vechain/delegation/metrics"
)

var (
	metricQueryCount   = metrics.LazyLoadCounterVec("logdb_query_count", []string{"type", "order"})
	metricLimitBucket  = metrics.LazyLoadHistogramVec("logdb_query_limit_bucket", []string{"type"}, []int64{0, 5, 10, 25, 50, 100, 250, 500, 1000})
	metricWrittenCount = metrics.LazyLoadCounterVec("logdb_written_count", []string{"type"})
	metricStmtCache    = metrics.LazyLoadCounterVec("logdb_stmt_cache", []string{"result"})
)

func metricsHandleQuery(typ string, order Order, opts *Options) {
	if metrics.NoOp() {
		return
	}
	if order == "" {
		order = ASC
	}
	metricQueryCount().AddWithLabel(1, map[string]string{"type": typ, "order": string(order)})
	if opts != nil {
		metricLimitBucket().ObserveWithLabels(int64(opts.Limit), map[string]string{"type": typ})
	}
}

func metricsHandleWrite(events, transfers int) {
	metricWrittenCount().AddWithLabel(1, map[string]string{"type": "receipt"})
	if events > 0 {
		metricWrittenCount().AddWithLabel(int64(events), map[string]string{"type": "event"})
	}
	if transfers > 0 {
		metricWrittenCount().AddWithLabel(int64(transfers), map[string]string{"type": "transfer"})
	}
}
