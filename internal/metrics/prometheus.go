package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

var (
	CodesIssuedTotal          prometheus.Counter
	TokenExchangeSuccessTotal prometheus.Counter
	TokenExchangeFailureTotal prometheus.Counter
	TokenVerifySuccessTotal   prometheus.Counter
	TokenVerifyFailureTotal   prometheus.Counter
	LoginSuccessTotal         prometheus.Counter
	LoginFailureTotal         prometheus.Counter
)

// InitCustomMetrics initializes and registers custom Prometheus metrics.
// It should be called once at application startup.
func InitCustomMetrics(reg prometheus.Registerer) {
	CodesIssuedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "indieauth_codes_issued_total",
		Help: "Total number of authorization codes issued.",
	})
	TokenExchangeSuccessTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "indieauth_token_exchanges_success_total",
		Help: "Total number of successful code-for-token exchanges.",
	})
	TokenExchangeFailureTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "indieauth_token_exchanges_failure_total",
		Help: "Total number of failed code-for-token exchanges.",
	})
	TokenVerifySuccessTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "indieauth_token_verifications_success_total",
		Help: "Total number of successful bearer-token verifications.",
	})
	TokenVerifyFailureTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "indieauth_token_verifications_failure_total",
		Help: "Total number of failed bearer-token verifications.",
	})
	LoginSuccessTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "indieauth_logins_success_total",
		Help: "Total number of successful logins.",
	})
	LoginFailureTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "indieauth_logins_failure_total",
		Help: "Total number of failed logins.",
	})

	if reg == nil {
		return
	}

	collectors := []prometheus.Collector{
		CodesIssuedTotal,
		TokenExchangeSuccessTotal,
		TokenExchangeFailureTotal,
		TokenVerifySuccessTotal,
		TokenVerifyFailureTotal,
		LoginSuccessTotal,
		LoginFailureTotal,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			log.Warn().Err(err).Msg("Failed to register metric")
		}
	}
}
