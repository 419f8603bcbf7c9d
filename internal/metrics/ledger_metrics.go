package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// LedgerMetrics содержит метрики операций с балансом.
type LedgerMetrics struct {
	deposits       prometheus.Counter
	depositedTotal prometheus.Counter
	payments       prometheus.Counter
	refunds        prometheus.Counter
	declined       prometheus.Counter
}

// NewLedgerMetrics создаёт новый экземпляр метрик баланса.
func NewLedgerMetrics() *LedgerMetrics {
	return newLedgerMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newLedgerMetricsWithRegisterer(registerer prometheus.Registerer) *LedgerMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &LedgerMetrics{
		deposits: registerCounter(registerer, prometheus.CounterOpts{
			Name: "petmarket_ledger_deposits_total",
			Help: "Total number of balance deposits",
		}),
		depositedTotal: registerCounter(registerer, prometheus.CounterOpts{
			Name: "petmarket_ledger_deposited_amount_total",
			Help: "Total amount deposited across all users",
		}),
		payments: registerCounter(registerer, prometheus.CounterOpts{
			Name: "petmarket_ledger_payments_total",
			Help: "Total number of successful order payments",
		}),
		refunds: registerCounter(registerer, prometheus.CounterOpts{
			Name: "petmarket_ledger_refunds_total",
			Help: "Total number of refunds issued",
		}),
		declined: registerCounter(registerer, prometheus.CounterOpts{
			Name: "petmarket_ledger_declined_total",
			Help: "Total number of payments declined for insufficient balance",
		}),
	}
}

// RecordDeposit фиксирует пополнение баланса.
func (m *LedgerMetrics) RecordDeposit(amount decimal.Decimal) {
	m.deposits.Inc()
	f, _ := amount.Float64()
	m.depositedTotal.Add(f)
}

// RecordPayment увеличивает счётчик успешных списаний.
func (m *LedgerMetrics) RecordPayment() {
	m.payments.Inc()
}

// RecordRefund увеличивает счётчик возвратов.
func (m *LedgerMetrics) RecordRefund() {
	m.refunds.Inc()
}

// RecordDeclined увеличивает счётчик отказов из-за нехватки средств.
func (m *LedgerMetrics) RecordDeclined() {
	m.declined.Inc()
}
