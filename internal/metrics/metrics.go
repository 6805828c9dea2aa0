// internal/metrics/metrics.go
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tamzrod/eg4-bank/internal/bms"
)

// NewRegistry creates a private registry with the Go and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves the registry in the Prometheus text format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// BankMetrics records bus and pack outcomes. It satisfies poller.Recorder.
type BankMetrics struct {
	Requests        *prometheus.CounterVec // labels: unit, kind, result
	UnitsPresent    prometheus.Gauge
	UnitUp          *prometheus.GaugeVec   // labels: unit
	Refreshes       *prometheus.CounterVec // labels: result
	RefreshDuration prometheus.Histogram

	PackVoltage   prometheus.Gauge
	PackCurrent   prometheus.Gauge
	PackSoC       prometheus.Gauge
	PackSoH       prometheus.Gauge
	PackTempMax   prometheus.Gauge
	PackTempMin   prometheus.Gauge
	PackCellMax   prometheus.Gauge
	PackCellMin   prometheus.Gauge
	PackCellDelta prometheus.Gauge
	PackBalancing prometheus.Gauge
	PackAlarm     *prometheus.GaugeVec // labels: alarm
}

// NewBankMetrics registers and returns the bank metrics.
func NewBankMetrics(reg prometheus.Registerer) *BankMetrics {
	g := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "eg4", Name: name, Help: help})
	}

	m := &BankMetrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eg4",
			Name:      "bus_requests_total",
			Help:      "Bus requests by unit, request kind and outcome.",
		}, []string{"unit", "kind", "result"}),
		UnitsPresent: g("units_present", "Units that answered the last discovery."),
		UnitUp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "eg4",
			Name:      "unit_up",
			Help:      "1 when the unit answered the last discovery.",
		}, []string{"unit"}),
		Refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eg4",
			Name:      "refresh_total",
			Help:      "Refresh cycles by outcome.",
		}, []string{"result"}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "eg4",
			Name:      "refresh_duration_seconds",
			Help:      "Wall time of one refresh cycle.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		PackVoltage:   g("pack_voltage_volts", "Pack voltage."),
		PackCurrent:   g("pack_current_amperes", "Pack current, negative is discharge."),
		PackSoC:       g("pack_soc_percent", "Pack state of charge."),
		PackSoH:       g("pack_soh_percent", "Pack state of health."),
		PackTempMax:   g("pack_temp_max_celsius", "Highest pack temperature."),
		PackTempMin:   g("pack_temp_min_celsius", "Lowest pack temperature."),
		PackCellMax:   g("pack_cell_max_volts", "Highest pack cell voltage."),
		PackCellMin:   g("pack_cell_min_volts", "Lowest pack cell voltage."),
		PackCellDelta: g("pack_cell_delta_volts", "Spread between highest and lowest pack cell."),
		PackBalancing: g("pack_balancing_state", "0 off, 1 balancing, 2 finished."),
		PackAlarm: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "eg4",
			Name:      "pack_alarm_severity",
			Help:      "0 none, 1 warning, 2 protection.",
		}, []string{"alarm"}),
	}

	reg.MustRegister(
		m.Requests, m.UnitsPresent, m.UnitUp, m.Refreshes, m.RefreshDuration,
		m.PackVoltage, m.PackCurrent, m.PackSoC, m.PackSoH,
		m.PackTempMax, m.PackTempMin, m.PackCellMax, m.PackCellMin,
		m.PackCellDelta, m.PackBalancing, m.PackAlarm,
	)
	return m
}

// ---- poller.Recorder ----

func (m *BankMetrics) Request(addr bms.UnitAddress, kind bms.RequestKind, err error) {
	m.Requests.WithLabelValues(unitLabel(addr), kind.String(), Result(err)).Inc()
}

func (m *BankMetrics) Discovery(p bms.PresenceSet) {
	m.UnitUp.Reset()
	for _, a := range bms.AllAddresses() {
		v := 0.0
		if p.Has(a) {
			v = 1
		}
		m.UnitUp.WithLabelValues(unitLabel(a)).Set(v)
	}
	m.UnitsPresent.Set(float64(len(p.Present())))
}

func (m *BankMetrics) Refresh(p bms.PackTelemetry, err error, took time.Duration) {
	m.Refreshes.WithLabelValues(Result(err)).Inc()
	m.RefreshDuration.Observe(took.Seconds())
	if err != nil {
		return
	}

	m.PackVoltage.Set(p.Voltage)
	m.PackCurrent.Set(p.Current)
	m.PackSoC.Set(p.SoC)
	m.PackSoH.Set(p.SoH)
	m.PackTempMax.Set(float64(p.TempMax))
	m.PackTempMin.Set(float64(p.TempMin))
	m.PackCellMax.Set(p.CellMax)
	m.PackCellMin.Set(p.CellMin)
	m.PackCellDelta.Set(p.CellMax - p.CellMin)
	m.PackBalancing.Set(float64(p.Balancing))

	a := p.Alarms
	for name, s := range map[string]bms.Severity{
		"voltage_high":        a.VoltageHigh,
		"voltage_cell_high":   a.VoltageCellHigh,
		"voltage_low":         a.VoltageLow,
		"voltage_cell_low":    a.VoltageCellLow,
		"current_over":        a.CurrentOver,
		"temp_high_internal":  a.TempHighInternal,
		"temp_high_charge":    a.TempHighCharge,
		"temp_high_discharge": a.TempHighDischarge,
		"temp_low_charge":     a.TempLowCharge,
		"soc_low":             a.SocLow,
		"internal_failure":    a.InternalFailure,
	} {
		m.PackAlarm.WithLabelValues(name).Set(float64(s))
	}
}

// Result maps an error to its metric label.
func Result(err error) string {
	if err == nil {
		return "ok"
	}
	var (
		te *bms.TransportError
		pe *bms.ProtocolError
		de *bms.DecodeError
		ce *bms.ConfigError
		ae *bms.AggregationError
	)
	switch {
	case errors.As(err, &pe):
		return "protocol"
	case errors.As(err, &de):
		return "decode"
	case errors.As(err, &ce):
		return "config"
	case errors.As(err, &ae):
		return "aggregation"
	case errors.As(err, &te):
		return "transport"
	default:
		return "error"
	}
}

func unitLabel(a bms.UnitAddress) string {
	return strconv.Itoa(int(a))
}
