package reliability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	incidentsReported = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reliability_incidents_reported_total",
			Help: "Total incidents recorded, by severity and source type",
		},
		[]string{"severity", "source_type"},
	)

	incidentsResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reliability_incidents_resolved_total",
			Help: "Total incidents resolved, split by auto vs manual",
		},
		[]string{"auto"},
	)

	ticketsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reliability_tickets_created_total",
			Help: "Total support tickets opened from incidents, by severity",
		},
		[]string{"severity"},
	)

	repairJobsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reliability_repair_jobs_dispatched_total",
			Help: "Total recovery jobs dispatched by repair strategies",
		},
		[]string{"strategy"},
	)
)
