// internal/httpapi/views.go
package httpapi

import (
	"time"

	"github.com/tamzrod/eg4-bank/internal/bms"
	"github.com/tamzrod/eg4-bank/internal/fault"
)

type packView struct {
	Voltage        float64    `json:"voltage"`
	Current        float64    `json:"current"`
	CapacityRemain float64    `json:"capacity_remain"`
	Capacity       float64    `json:"capacity"`
	SoC            float64    `json:"soc"`
	SoH            float64    `json:"soh"`
	Cycles         uint32     `json:"cycles"`
	Temp1          int        `json:"temp1"`
	Temp2          int        `json:"temp2"`
	TempMOS        int        `json:"temp_mos"`
	TempMax        int        `json:"temp_max"`
	TempMin        int        `json:"temp_min"`
	CellCount      int        `json:"cell_count"`
	Cells          []float64  `json:"cells"`
	CellMax        float64    `json:"cell_max"`
	CellMin        float64    `json:"cell_min"`
	Balancing      string     `json:"balancing"`
	Warnings       string     `json:"warnings"`
	Protections    string     `json:"protections"`
	Errors         string     `json:"errors"`
	Alarms         bms.Alarms `json:"alarms"`
	Units          []int      `json:"units"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func newPackView(p bms.PackTelemetry) packView {
	units := make([]int, 0, len(p.Units))
	for _, u := range p.Units {
		units = append(units, int(u))
	}
	return packView{
		Voltage:        p.Voltage,
		Current:        p.Current,
		CapacityRemain: p.CapacityRemain,
		Capacity:       p.Capacity,
		SoC:            p.SoC,
		SoH:            p.SoH,
		Cycles:         p.Cycles,
		Temp1:          p.Temp1,
		Temp2:          p.Temp2,
		TempMOS:        p.TempMOS,
		TempMax:        p.TempMax,
		TempMin:        p.TempMin,
		CellCount:      p.CellCount,
		Cells:          p.Cells,
		CellMax:        p.CellMax,
		CellMin:        p.CellMin,
		Balancing:      p.Balancing.String(),
		Warnings:       p.Warnings,
		Protections:    p.Protections,
		Errors:         p.Errors,
		Alarms:         p.Alarms,
		Units:          units,
		UpdatedAt:      p.UpdatedAt,
	}
}

type unitView struct {
	Address          uint8     `json:"address"`
	Voltage          float64   `json:"voltage"`
	Current          float64   `json:"current"`
	CapacityRemain   float64   `json:"capacity_remain"`
	Capacity         float64   `json:"capacity"`
	MaxChargeCurrent float64   `json:"max_charge_current"`
	SoC              float64   `json:"soc"`
	SoH              float64   `json:"soh"`
	Cycles           uint32    `json:"cycles"`
	Temp1            int       `json:"temp1"`
	Temp2            int       `json:"temp2"`
	TempMOS          int       `json:"temp_mos"`
	TempMax          int       `json:"temp_max"`
	TempMin          int       `json:"temp_min"`
	CellCount        int       `json:"cell_count"`
	Cells            []float64 `json:"cells"`
	CellSum          float64   `json:"cell_sum"`
	CellMax          float64   `json:"cell_max"`
	CellMin          float64   `json:"cell_min"`
	CellDelta        float64   `json:"cell_delta"`
	Status           string    `json:"status"`
	Heater           string    `json:"heater"`
	Warning          string    `json:"warning"`
	Protection       string    `json:"protection"`
	Error            string    `json:"error"`
	Balancing        string    `json:"balancing"`
	UpdatedAt        time.Time `json:"updated_at"`

	Hardware *hardwareView `json:"hardware,omitempty"`
}

type hardwareView struct {
	Make    string `json:"make"`
	Version string `json:"version"`
	Serial  string `json:"serial"`
}

func newUnitView(u bms.UnitTelemetry, hw *bms.HardwareInfo) unitView {
	heater := "Unknown"
	if on, ok := fault.HeaterOn(u.HeaterCode); ok {
		heater = "Off"
		if on {
			heater = "On"
		}
	}

	v := unitView{
		Address:          uint8(u.Address),
		Voltage:          u.Voltage,
		Current:          u.Current,
		CapacityRemain:   u.CapacityRemain,
		Capacity:         u.Capacity,
		MaxChargeCurrent: u.MaxChargeCurrent,
		SoC:              u.SoC,
		SoH:              u.SoH,
		Cycles:           u.Cycles,
		Temp1:            u.Temp1,
		Temp2:            u.Temp2,
		TempMOS:          u.TempMOS,
		TempMax:          u.TempMax,
		TempMin:          u.TempMin,
		CellCount:        u.CellCount,
		Cells:            u.Cells,
		CellSum:          u.CellSum,
		CellMax:          u.CellMax,
		CellMin:          u.CellMin,
		CellDelta:        u.CellDelta(),
		Status:           fault.OperatingStatus(u.StatusCode),
		Heater:           heater,
		Warning:          fault.Classify(u.WarningCode, fault.Warning).Text(),
		Protection:       fault.Classify(u.ProtectionCode, fault.Protection).Text(),
		Error:            fault.Classify(u.ErrorCode, fault.Error).Text(),
		Balancing:        u.Balancing.String(),
		UpdatedAt:        u.UpdatedAt,
	}
	if hw != nil {
		v.Hardware = &hardwareView{Make: hw.Make, Version: hw.Version, Serial: hw.Serial}
	}
	return v
}
