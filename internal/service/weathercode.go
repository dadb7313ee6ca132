package service

import (
	"fmt"

	"github.com/rainwatch/backend/internal/domain"
)

type codeLabel struct {
	label string
	icon  string
}

// weatherCodes maps WMO weather interpretation codes to Spanish labels.
var weatherCodes = map[int]codeLabel{
	0:  {"Despejado", "☀️"},
	1:  {"Mayormente despejado", "🌤️"},
	2:  {"Parcialmente nublado", "⛅"},
	3:  {"Nublado", "☁️"},
	45: {"Niebla", "🌫️"},
	48: {"Niebla con escarcha", "🌫️"},
	51: {"Llovizna ligera", "🌦️"},
	53: {"Llovizna moderada", "🌦️"},
	55: {"Llovizna densa", "🌧️"},
	56: {"Llovizna helada ligera", "🌧️"},
	57: {"Llovizna helada densa", "🌧️"},
	61: {"Lluvia ligera", "🌦️"},
	63: {"Lluvia moderada", "🌧️"},
	65: {"Lluvia fuerte", "🌧️"},
	66: {"Lluvia helada ligera", "🌧️"},
	67: {"Lluvia helada fuerte", "🌧️"},
	71: {"Nevada ligera", "🌨️"},
	73: {"Nevada moderada", "🌨️"},
	75: {"Nevada fuerte", "❄️"},
	77: {"Granos de nieve", "🌨️"},
	80: {"Chubascos ligeros", "🌦️"},
	81: {"Chubascos moderados", "🌧️"},
	82: {"Chubascos violentos", "⛈️"},
	85: {"Chubascos de nieve ligeros", "🌨️"},
	86: {"Chubascos de nieve fuertes", "🌨️"},
	95: {"Tormenta eléctrica", "⛈️"},
	96: {"Tormenta con granizo ligero", "⛈️"},
	99: {"Tormenta con granizo fuerte", "⛈️"},
}

// DescribeWeatherCode returns the label and icon of a weather code. Unknown
// codes get a generic label.
func DescribeWeatherCode(code int) domain.WeatherCondition {
	if c, ok := weatherCodes[code]; ok {
		return domain.WeatherCondition{Code: code, Label: c.label, Icon: c.icon}
	}
	return domain.WeatherCondition{Code: code, Label: fmt.Sprintf("Código %d", code), Icon: "❓"}
}
