package powerinfo

import "strings"

// Technology is the battery chemistry.
//
// The numeric values are exposed through the handle boundary and must
// not be reordered.
type Technology uint8

const (
	TechnologyUnknown Technology = iota
	LithiumIon
	LeadAcid
	LithiumPolymer
	NickelMetalHydride
	NickelCadmium
	NickelZinc
	LithiumIronPhosphate
	RechargeableAlkalineManganese
)

// ParseTechnology parses the chemistry abbreviations used by sysfs and ACPI.
func ParseTechnology(s string) Technology {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "li-i", "li-ion", "lion":
		return LithiumIon
	case "pb", "pbac":
		return LeadAcid
	case "lip", "lipo", "li-poly":
		return LithiumPolymer
	case "nimh":
		return NickelMetalHydride
	case "nicd":
		return NickelCadmium
	case "nizn":
		return NickelZinc
	case "life":
		return LithiumIronPhosphate
	case "ram":
		return RechargeableAlkalineManganese
	default:
		return TechnologyUnknown
	}
}

func (t Technology) String() string {
	switch t {
	case LithiumIon:
		return "lithium-ion"
	case LeadAcid:
		return "lead-acid"
	case LithiumPolymer:
		return "lithium-polymer"
	case NickelMetalHydride:
		return "nickel-metal-hydride"
	case NickelCadmium:
		return "nickel-cadmium"
	case NickelZinc:
		return "nickel-zinc"
	case LithiumIronPhosphate:
		return "lithium-iron-phosphate"
	case RechargeableAlkalineManganese:
		return "rechargeable-alkaline-manganese"
	default:
		return "unknown"
	}
}
