// Package extract pulls explicitly labelled complaint fields out of raw
// citizen text without a model round trip.
//
// Extraction is best effort and conservative: a field is only reported when
// an explicit pattern matches, and conflicting matches for the same field
// discard it.
package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// Result holds the recognised fields. Nil means "not recognised".
type Result struct {
	CategoryText *string
	Description  *string
	Reference    *string
	AddressText  *string
	Latitude     *float64
	Longitude    *float64
}

// Empty reports whether nothing was recognised.
func (r Result) Empty() bool {
	return r.CategoryText == nil && r.Description == nil && r.Reference == nil &&
		r.AddressText == nil && r.Latitude == nil && r.Longitude == nil
}

type field int

const (
	fieldCategory field = iota
	fieldDescription
	fieldReference
	fieldAddress
	fieldLatitude
	fieldLongitude
	fieldCoordinates
)

var labelPattern = regexp.MustCompile(`(?i)\b(tipo\s+de\s+denuncia|tipo|categor[ií]a|category|type|descripci[oó]n|description|detalle|referencia|reference|direcci[oó]n|address|latitude|latitud|lat|longitude|longitud|long|lng|lon|coordenadas|coordinates|coords|ubicaci[oó]n|location)\s*[:=]`)

var (
	numberPattern = regexp.MustCompile(`^[-+]?\d{1,3}(?:\.\d+)?$`)
	pairPattern   = regexp.MustCompile(`^\(?\s*([-+]?\d{1,3}(?:\.\d+)?)\s*[,;\s]\s*([-+]?\d{1,3}(?:\.\d+)?)\s*\)?$`)
	// "lat -0.93 ... lng -78.61" with free text in between.
	latLngPattern = regexp.MustCompile(`(?i)\blat(?:itud|itude)?\b\s*[:=]?\s*([-+]?\d{1,2}(?:\.\d+)?)\b.{0,60}?\b(?:lon(?:gitud|gitude|g)?|lng)\b\s*[:=]?\s*([-+]?\d{1,3}(?:\.\d+)?)`)
	// Bare decimal pairs such as "-0.93412, -78.61523".
	barePairPattern = regexp.MustCompile(`([-+]?\d{1,2}\.\d{3,})\s*[,;]\s*([-+]?\d{1,3}\.\d{3,})`)
)

func classify(label string) field {
	l := strings.ToLower(strings.Join(strings.Fields(label), " "))
	l = strings.NewReplacer("í", "i", "ó", "o").Replace(l)
	switch l {
	case "tipo de denuncia", "tipo", "categoria", "category", "type":
		return fieldCategory
	case "descripcion", "description", "detalle":
		return fieldDescription
	case "referencia", "reference":
		return fieldReference
	case "direccion", "address":
		return fieldAddress
	case "latitude", "latitud", "lat":
		return fieldLatitude
	case "longitude", "longitud", "long", "lng", "lon":
		return fieldLongitude
	default:
		return fieldCoordinates
	}
}

// collector accumulates candidate values and drops fields that received two
// different values.
type collector struct {
	text     map[field]string
	numbers  map[field]float64
	conflict map[field]bool
}

func newCollector() *collector {
	return &collector{
		text:     make(map[field]string),
		numbers:  make(map[field]float64),
		conflict: make(map[field]bool),
	}
}

func (c *collector) addText(f field, v string) {
	if prev, ok := c.text[f]; ok && !strings.EqualFold(prev, v) {
		c.conflict[f] = true
		return
	}
	c.text[f] = v
}

func (c *collector) addNumber(f field, v float64) {
	if prev, ok := c.numbers[f]; ok && prev != v {
		c.conflict[f] = true
		return
	}
	c.numbers[f] = v
}

func (c *collector) textPtr(f field) *string {
	v, ok := c.text[f]
	if !ok || c.conflict[f] {
		return nil
	}
	return &v
}

func (c *collector) numberPtr(f field) *float64 {
	v, ok := c.numbers[f]
	if !ok || c.conflict[f] {
		return nil
	}
	return &v
}

// Fields extracts explicitly labelled fields from text.
func Fields(text string) Result {
	c := newCollector()

	for _, line := range strings.Split(text, "\n") {
		matches := labelPattern.FindAllStringSubmatchIndex(line, -1)
		for i, m := range matches {
			end := len(line)
			if i+1 < len(matches) {
				end = matches[i+1][0]
			}
			value := cleanValue(line[m[1]:end])
			if value == "" {
				continue
			}
			collectLabelled(c, classify(line[m[2]:m[3]]), value)
		}
	}

	for _, m := range latLngPattern.FindAllStringSubmatch(text, -1) {
		addCoordinates(c, m[1], m[2])
	}

	if pairs := barePairPattern.FindAllStringSubmatch(text, -1); len(pairs) == 1 {
		addCoordinates(c, pairs[0][1], pairs[0][2])
	} else if len(pairs) > 1 {
		c.conflict[fieldLatitude] = true
		c.conflict[fieldLongitude] = true
	}

	return Result{
		CategoryText: c.textPtr(fieldCategory),
		Description:  c.textPtr(fieldDescription),
		Reference:    c.textPtr(fieldReference),
		AddressText:  c.textPtr(fieldAddress),
		Latitude:     c.numberPtr(fieldLatitude),
		Longitude:    c.numberPtr(fieldLongitude),
	}
}

func collectLabelled(c *collector, f field, value string) {
	switch f {
	case fieldLatitude:
		if lat, ok := parseCoordinate(value, 90); ok {
			c.addNumber(fieldLatitude, lat)
		}
	case fieldLongitude:
		if lng, ok := parseCoordinate(value, 180); ok {
			c.addNumber(fieldLongitude, lng)
		}
	case fieldCoordinates:
		if m := pairPattern.FindStringSubmatch(value); m != nil {
			addCoordinates(c, m[1], m[2])
		}
	default:
		c.addText(f, value)
	}
}

func addCoordinates(c *collector, latText, lngText string) {
	lat, okLat := parseCoordinate(latText, 90)
	lng, okLng := parseCoordinate(lngText, 180)
	if !okLat || !okLng {
		return
	}
	c.addNumber(fieldLatitude, lat)
	c.addNumber(fieldLongitude, lng)
}

func parseCoordinate(s string, limit float64) (float64, bool) {
	s = strings.TrimSpace(s)
	if !numberPattern.MatchString(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < -limit || v > limit {
		return 0, false
	}
	return v, true
}

func cleanValue(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, ",; \t")
	s = strings.TrimSpace(s)
	return strings.Trim(s, `"'`)
}
