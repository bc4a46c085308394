package host

import "strings"

// CharacteristicType is the discriminator tag of a characteristic.
type CharacteristicType string

// Characteristic type tags (HAP short-form UUIDs).
const (
	CharacteristicPowerState       CharacteristicType = "25"
	CharacteristicBrightness       CharacteristicType = "8"
	CharacteristicHue              CharacteristicType = "13"
	CharacteristicSaturation       CharacteristicType = "2F"
	CharacteristicColorTemperature CharacteristicType = "CE" //nolint:misspell // HAP uses American "color"
	CharacteristicName             CharacteristicType = "23"
)

// ServiceType is the discriminator tag of a service.
type ServiceType string

// Service type tags (HAP short-form UUIDs).
const (
	ServiceAccessoryInformation ServiceType = "3E"
	ServiceLightbulb            ServiceType = "43"
	ServiceOutlet               ServiceType = "47"
	ServiceSwitch               ServiceType = "49"
)

// Category classifies an accessory as a whole.
type Category string

// Accessory categories.
const (
	CategoryOther     Category = "other"
	CategoryLightbulb Category = "lightbulb"
	CategoryOutlet    Category = "outlet"
	CategorySwitch    Category = "switch"
	CategorySensor    Category = "sensor"
	CategoryBridge    Category = "bridge"
)

var characteristicNames = map[string]CharacteristicType{
	"on":                CharacteristicPowerState,
	"power_state":       CharacteristicPowerState,
	"brightness":        CharacteristicBrightness,
	"hue":               CharacteristicHue,
	"saturation":        CharacteristicSaturation,
	"color_temperature": CharacteristicColorTemperature, //nolint:misspell // HAP uses American "color"
	"name":              CharacteristicName,
}

var serviceNames = map[string]ServiceType{
	"accessory_information": ServiceAccessoryInformation,
	"lightbulb":             ServiceLightbulb,
	"outlet":                ServiceOutlet,
	"switch":                ServiceSwitch,
}

// ParseCharacteristicType resolves a friendly name ("brightness") or a
// short code ("8") to a CharacteristicType. Unknown names are returned
// upper-cased so that arbitrary HAP codes pass through.
func ParseCharacteristicType(s string) CharacteristicType {
	s = strings.TrimSpace(s)
	if t, ok := characteristicNames[strings.ToLower(s)]; ok {
		return t
	}
	return CharacteristicType(strings.ToUpper(s))
}

// ParseServiceType resolves a friendly name or short code to a ServiceType.
func ParseServiceType(s string) ServiceType {
	s = strings.TrimSpace(s)
	if t, ok := serviceNames[strings.ToLower(s)]; ok {
		return t
	}
	return ServiceType(strings.ToUpper(s))
}

// ParseCategory resolves a category name. Unknown names map to CategoryOther.
func ParseCategory(s string) Category {
	switch c := Category(strings.ToLower(strings.TrimSpace(s))); c {
	case CategoryLightbulb, CategoryOutlet, CategorySwitch, CategorySensor, CategoryBridge:
		return c
	default:
		return CategoryOther
	}
}
