package spatial

import (
	"math"
	"sort"
)

// ContinentAffines maps the unit square onto eight land bounding boxes.
type ContinentAffines struct {
	Africa            Affine `yaml:"africa" json:"africa"`
	Europe            Affine `yaml:"europe" json:"europe"`
	SouthAsia         Affine `yaml:"south_asia" json:"south_asia"`
	NorthAsia         Affine `yaml:"north_asia" json:"north_asia"`
	Oceania           Affine `yaml:"oceania" json:"oceania"`
	SouthAmerica      Affine `yaml:"south_america" json:"south_america"`
	SouthNorthAmerica Affine `yaml:"south_north_america" json:"south_north_america"`
	NorthNorthAmerica Affine `yaml:"north_north_america" json:"north_north_america"`
}

func DefaultContinentAffines() ContinentAffines {
	return ContinentAffines{
		Africa:            Affine{84.194319, 0, -20.062752, 0, -77.623846, 37.579421},
		Europe:            Affine{76.108853, 0, -11.964479, 0, 33.901968, 37.926872},
		SouthAsia:         Affine{80.942556, 0, 64.583540, 0, -61.381606, 51.672557},
		NorthAsia:         Affine{114.339049, 0, 64.495655, 0, 25.952988, 51.944267},
		Oceania:           Affine{68.287041, 0, 112.481901, 0, -38.751779, -10.228433},
		SouthAmerica:      Affine{49.92948, 0, -83.833822, 0, -68.381204, 12.211188},
		SouthNorthAmerica: Affine{55.379532, 0, -124.890724, 0, -30.170149, 42.55308},
		NorthNorthAmerica: Affine{114.424763, 0, -166.478008, 0, -29.9779543, 72.659041},
	}
}

type WeightedAffine struct {
	Name   string
	Affine Affine
	CDF    float64
}

func bboxFromAffine(m Affine) (west, east, south, north float64) {
	a, c, e, f := m[0], m[2], m[4], m[5]
	west, east = c, c+a
	if a < 0 {
		west, east = c+a, c
	}
	south, north = f, f+e
	if e < 0 {
		south, north = f+e, f
	}
	return west, east, south, north
}

// sphericalArea is the area of a lon/lat box on the unit sphere.
func sphericalArea(west, east, south, north float64) float64 {
	const deg2rad = math.Pi / 180
	width := math.Abs(east-west) * deg2rad
	band := math.Max(math.Sin(north*deg2rad)-math.Sin(south*deg2rad), 0)
	return math.Max(width*band, 0)
}

// ContinentCDF orders the continents by descending area and returns their
// cumulative share of the total.
func ContinentCDF(aff ContinentAffines) []WeightedAffine {
	items := []WeightedAffine{
		{Name: "africa", Affine: aff.Africa},
		{Name: "europe", Affine: aff.Europe},
		{Name: "south_asia", Affine: aff.SouthAsia},
		{Name: "north_asia", Affine: aff.NorthAsia},
		{Name: "oceania", Affine: aff.Oceania},
		{Name: "south_america", Affine: aff.SouthAmerica},
		{Name: "south_north_america", Affine: aff.SouthNorthAmerica},
		{Name: "north_north_america", Affine: aff.NorthNorthAmerica},
	}
	var total float64
	for i := range items {
		items[i].CDF = sphericalArea(bboxFromAffine(items[i].Affine))
		total += items[i].CDF
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].CDF > items[j].CDF })

	total = math.Max(total, 1e-12)
	var acc float64
	for i := range items {
		acc += items[i].CDF
		items[i].CDF = acc / total
	}
	return items
}

func pickContinent(cdf []WeightedAffine, u float64) Affine {
	i := sort.Search(len(cdf), func(i int) bool { return cdf[i].CDF > u })
	if i == len(cdf) {
		i = len(cdf) - 1
	}
	return cdf[i].Affine
}
