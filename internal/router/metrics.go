package router

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Event outcomes.
const (
	outcomeReplied     = "replied"
	outcomeNoReply     = "no_reply"
	outcomeDropped     = "dropped"
	outcomeHandlerFail = "handler_error"
	outcomeDispatchErr = "dispatch_error"
	outcomePanic       = "panic"
)

// EventsTotal counts handled events by kind and outcome.
var EventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "newsclaw",
	Name:      "router_events_total",
	Help:      "Inbound events handled by the router, by kind and outcome.",
}, []string{"kind", "outcome"})

// InFlight is the number of events currently being handled.
var InFlight = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "newsclaw",
	Name:      "router_inflight_events",
	Help:      "Inbound events currently being handled by router workers.",
})
