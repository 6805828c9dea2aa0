// internal/poller/report.go
package poller

import (
	"go.uber.org/zap"

	"github.com/tamzrod/eg4-bank/internal/bms"
	"github.com/tamzrod/eg4-bank/internal/fault"
)

// statusReport logs a per-cycle summary of the pack and every unit in it.
func (s *Session) statusReport(p bms.PackTelemetry) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if hw, ok := s.hardware[bms.MasterAddress]; ok {
		s.log.Info("hw info", zap.String("make", hw.Make), zap.String("version", hw.Version))
	}

	s.log.Info("bms data",
		zap.Float64("voltage", p.Voltage),
		zap.Float64("current", p.Current),
		zap.Float64("capacity_remain", p.CapacityRemain),
		zap.Float64("capacity_ah", p.Capacity),
		zap.Float64("soc", p.SoC),
		zap.Float64("soh", p.SoH),
		zap.Uint32("cycles", p.Cycles),
		zap.Int("temp1", p.Temp1),
		zap.Int("temp2", p.Temp2),
		zap.Int("temp_mos", p.TempMOS),
		zap.Int("temp_max", p.TempMax),
		zap.Int("temp_min", p.TempMin),
		zap.Stringer("balancing", p.Balancing),
	)
	s.log.Info("warnings/alarms",
		zap.String("warnings", p.Warnings),
		zap.String("protections", p.Protections),
		zap.String("errors", p.Errors),
	)

	for _, a := range p.Units {
		u, ok := s.units[a]
		if !ok {
			continue
		}
		heater, known := fault.HeaterOn(u.HeaterCode)
		fields := []zap.Field{
			zap.Stringer("unit", a),
			zap.String("state", fault.OperatingStatus(u.StatusCode)),
			zap.Stringer("balancing", u.Balancing),
			zap.Float64("pack_voltage", u.CellSum),
			zap.Float64("pack_current", u.Current),
			zap.Float64s("cells", u.Cells),
			zap.Float64("cell_max", u.CellMax),
			zap.Float64("cell_min", u.CellMin),
			zap.Float64("cell_diff", u.CellDelta()),
		}
		if known {
			fields = append(fields, zap.Bool("heater", heater))
		}
		if hw, ok := s.hardware[a]; ok {
			fields = append(fields, zap.String("serial", hw.Serial))
		}
		s.log.Info("pack details", fields...)
	}
}
