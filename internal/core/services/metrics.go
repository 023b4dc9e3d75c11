package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	dosesAppliedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vacunacion_doses_applied_total",
		Help: "Doses registered through the dose application workflow",
	})

	doseRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vacunacion_dose_rejections_total",
			Help: "Dose applications refused, by reason",
		},
		[]string{"reason"},
	)

	auditDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vacunacion_audit_dropped_total",
		Help: "Audit entries dropped after exhausting retries or on a full queue",
	})

	recoveryCodesSentTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vacunacion_recovery_codes_sent_total",
		Help: "Password recovery codes issued",
	})
)
