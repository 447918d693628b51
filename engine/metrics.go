// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "matchingengine"

type metrics struct {
	auctionsOpened  prometheus.Counter
	offersImproved  prometheus.Counter
	ordersExecuted  *prometheus.CounterVec
	auctionsSettled *prometheus.CounterVec
	fastFills       *prometheus.CounterVec
	rejected        *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		auctionsOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "auctions_opened_total",
			Help:      "Auctions opened by an initial offer",
		}),
		offersImproved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "offers_improved_total",
			Help:      "Offers that replaced the best offer of an active auction",
		}),
		ordersExecuted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "orders_executed_total",
			Help:      "Executed auctions, by whether the deposit was penalized",
		}, []string{"penalized"}),
		auctionsSettled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "auctions_settled_total",
			Help:      "Settled orders, by settlement kind",
		}, []string{"kind"}),
		fastFills: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "fast_fills_total",
			Help:      "Local fast fills, by lifecycle event",
		}, []string{"event"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "transitions_rejected_total",
			Help:      "Transitions that failed and left no state behind, by operation",
		}, []string{"op"}),
	}
	if reg == nil {
		return m, nil
	}

	var errs []error
	for _, c := range []prometheus.Collector{
		m.auctionsOpened,
		m.offersImproved,
		m.ordersExecuted,
		m.auctionsSettled,
		m.fastFills,
		m.rejected,
	} {
		errs = append(errs, reg.Register(c))
	}
	return m, errors.Join(errs...)
}

func (m *metrics) executed(penalized bool) {
	m.ordersExecuted.WithLabelValues(strconv.FormatBool(penalized)).Inc()
}
