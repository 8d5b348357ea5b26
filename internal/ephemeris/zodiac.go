package ephemeris

// Signs lists the tropical zodiac in order from 0° Aries.
var Signs = [12]string{
	"Aries", "Taurus", "Gemini", "Cancer", "Leo", "Virgo",
	"Libra", "Scorpio", "Sagittarius", "Capricorn", "Aquarius", "Pisces",
}

// SignOf returns the sign containing longitude and the degree within it.
func SignOf(longitude float64) (string, float64) {
	l := Normalize(longitude)
	idx := int(l / 30)
	if idx > 11 {
		idx = 11
	}
	deg := l - float64(idx)*30
	if deg < 0 {
		deg = 0
	}
	return Signs[idx], deg
}
