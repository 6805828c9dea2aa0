// internal/fault/classify.go
package fault

import (
	"fmt"
	"strings"

	"github.com/tamzrod/eg4-bank/internal/bms"
)

// Classification is the resolved meaning of one raw code.
type Classification struct {
	Category    Category
	Code        uint16
	Tag         Tag
	Description string
	Severity    bms.Severity
	Known       bool
}

// Hex renders the code the way the BMU documentation lists it.
func (c Classification) Hex() string {
	return fmt.Sprintf("%04X", c.Code)
}

// Text is the human summary line for this code.
func (c Classification) Text() string {
	switch {
	case c.Tag == TagNone:
		return noneText[c.Category] + " - " + c.Hex()
	case !c.Known:
		return fmt.Sprintf("%s: %s - UNKNOWN", c.Category, c.Hex())
	default:
		return fmt.Sprintf("%s: %s - %s", c.Category, c.Hex(), c.Description)
	}
}

// Classify resolves code against the category table. It never fails:
// codes missing from the table resolve to TagUnknown.
func Classify(code uint16, cat Category) Classification {
	c := Classification{Category: cat, Code: code}

	if code == 0 {
		c.Tag = TagNone
		c.Description = noneText[cat]
		c.Known = true
		return c
	}

	e, ok := tableFor(cat)[code]
	if !ok {
		c.Tag = TagUnknown
		c.Description = "Unknown(" + c.Hex() + ")"
		return c
	}

	c.Tag = e.tag
	c.Description = e.desc
	c.Severity = severityFor(cat)
	c.Known = true
	return c
}

// Alarms returns the elevated-condition flags this classification raises.
func (c Classification) Alarms() bms.Alarms {
	var a bms.Alarms
	if !c.Known {
		return a
	}
	if e, ok := tableFor(c.Category)[c.Code]; ok && e.flag != nil {
		*e.flag(&a) = c.Severity
	}
	return a
}

// Summary is the resolution of one category across a bank.
type Summary struct {
	Category Category
	Codes    []Classification // distinct, in observation order
	Alarms   bms.Alarms
}

// Text joins one description per distinct code.
func (s Summary) Text() string {
	parts := make([]string, 0, len(s.Codes))
	for _, c := range s.Codes {
		parts = append(parts, c.Text())
	}
	return strings.Join(parts, "; ")
}

// Active reports whether any unit reported a non-zero code.
func (s Summary) Active() bool {
	for _, c := range s.Codes {
		if c.Code != 0 {
			return true
		}
	}
	return false
}

// Summarize classifies every distinct code in observation order.
// Zero codes are dropped when any non-zero code is present; when all
// units report zero a single "none" entry remains.
func Summarize(cat Category, codes []uint16) Summary {
	s := Summary{Category: cat}

	seen := make(map[uint16]bool, len(codes))
	nonZero := false
	for _, code := range codes {
		if code != 0 {
			nonZero = true
		}
	}

	for _, code := range codes {
		if seen[code] || (code == 0 && nonZero) {
			continue
		}
		seen[code] = true

		c := Classify(code, cat)
		s.Codes = append(s.Codes, c)
		s.Alarms.Merge(c.Alarms())
	}

	return s
}

// ---- operating state ----

// OperatingStatus decodes the one-byte status field.
func OperatingStatus(code uint16) string {
	switch code {
	case 0x00:
		return "Standby"
	case 0x01:
		return "Charging"
	case 0x02:
		return "Discharging"
	case 0x04:
		return "Protect"
	case 0x08:
		return "Charging Limit"
	default:
		return fmt.Sprintf("Unknown(%02X)", code)
	}
}

// HeaterOn decodes the heater byte. ok is false for values other than 0x00/0x80.
func HeaterOn(code uint16) (on bool, ok bool) {
	switch code {
	case 0x00:
		return false, true
	case 0x80:
		return true, true
	default:
		return false, false
	}
}
