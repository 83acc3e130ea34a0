// Package geo holds the static city coordinate reference table used to place
// aggregate cities on the map view.
package geo

// Coordinate is a WGS84 point.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Table maps a city display name to its coordinate. Matching is exact:
// "New York" and "new york" are different keys.
type Table map[string]Coordinate

// Lookup returns the coordinate for name, if known.
func (t Table) Lookup(name string) (Coordinate, bool) {
	c, ok := t[name]
	return c, ok
}

// Len 返回表中城市数量
func (t Table) Len() int { return len(t) }

// With returns a copy of t extended (or overridden) by extra.
func (t Table) With(extra map[string]Coordinate) Table {
	out := make(Table, len(t)+len(extra))
	for k, v := range t {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// Default returns a fresh copy of the built-in table.
func Default() Table {
	return Table(nil).With(cityCoordinates)
}

var cityCoordinates = map[string]Coordinate{
	"Chicago":           {Lat: 41.8781, Lng: -87.6298},
	"Montreal":          {Lat: 45.5017, Lng: -73.5673},
	"Hanoi":             {Lat: 21.0285, Lng: 105.8542},
	"Toronto":           {Lat: 43.6532, Lng: -79.3832},
	"Ho Chi Minh City":  {Lat: 10.8231, Lng: 106.6297},
	"Washington":        {Lat: 38.9072, Lng: -77.0369},
	"New York":          {Lat: 40.7128, Lng: -74.0060},
	"Miami":             {Lat: 25.7617, Lng: -80.1918},
	"Kyiv":              {Lat: 50.4501, Lng: 30.5234},
	"Cairo":             {Lat: 30.0444, Lng: 31.2357},
	"Da Nang":           {Lat: 16.0544, Lng: 108.2022},
	"Lviv":              {Lat: 49.8397, Lng: 24.0297},
	"Gangnam-gu":        {Lat: 37.5172, Lng: 127.0473},
	"Denpasar":          {Lat: -8.6705, Lng: 115.2126},
	"Los Angeles":       {Lat: 34.0522, Lng: -118.2437},
	"Dnipro":            {Lat: 48.4647, Lng: 35.0462},
	"Jakarta":           {Lat: -6.2088, Lng: 106.8456},
	"Medan":             {Lat: 3.5952, Lng: 98.6722},
	"Frankfurt am Main": {Lat: 50.1109, Lng: 8.6821},
	"Melbourne":         {Lat: -37.8136, Lng: 144.9631},
	"Minsk":             {Lat: 53.9006, Lng: 27.5590},
	"Gwanak-gu":         {Lat: 37.4784, Lng: 126.9516},
	"Sydney":            {Lat: -33.8688, Lng: 151.2093},
	"Riyadh":            {Lat: 24.7136, Lng: 46.6753},
	"Warsaw":            {Lat: 52.2297, Lng: 21.0122},
	"Paris":             {Lat: 48.8566, Lng: 2.3522},
	"Upland":            {Lat: 34.0975, Lng: -117.6484},
	"Wroclaw":           {Lat: 51.1079, Lng: 17.0385},
	"Chisinau":          {Lat: 47.0105, Lng: 28.8638},
	"Jeddah":            {Lat: 21.4858, Lng: 39.1925},
	"Biên Hòa":          {Lat: 10.9574, Lng: 106.8426},
	"Pekanbaru":         {Lat: 0.5071, Lng: 101.4478},
	"Haiphong":          {Lat: 20.8449, Lng: 106.6881},
	"Orlando":           {Lat: 28.5383, Lng: -81.3792},
	"Kuwait City":       {Lat: 29.3759, Lng: 47.9774},
	"Rio de Janeiro":    {Lat: -22.9068, Lng: -43.1729},
	"Amsterdam":         {Lat: 52.3676, Lng: 4.9041},
	"Seoul":             {Lat: 37.5665, Lng: 126.9780},
	"Brooklyn":          {Lat: 40.6782, Lng: -73.9442},
	"Ulan Bator":        {Lat: 47.8864, Lng: 106.9057},
	"Hải Dương":         {Lat: 20.9373, Lng: 106.3146},
	"Dammam":            {Lat: 26.4207, Lng: 50.0888},
	"Dongjak-gu":        {Lat: 37.5124, Lng: 126.9393},
	"Riverside":         {Lat: 33.9533, Lng: -117.3962},
	"The Bronx":         {Lat: 40.8448, Lng: -73.8648},
	"Surabaya":          {Lat: -7.2575, Lng: 112.7521},
	"Lahore":            {Lat: 31.5204, Lng: 74.3587},
	"Singapore":         {Lat: 1.3521, Lng: 103.8198},
	"Buon Ma Thuot":     {Lat: 12.6667, Lng: 108.0500},
	"Vilnius":           {Lat: 54.6872, Lng: 25.2797},
	"London":            {Lat: 51.5074, Lng: -0.1278},
	"Berlin":            {Lat: 52.5200, Lng: 13.4050},
	"Tokyo":             {Lat: 35.6762, Lng: 139.6503},
	"Bangkok":           {Lat: 13.7563, Lng: 100.5018},
	"Mumbai":            {Lat: 19.0760, Lng: 72.8777},
	"São Paulo":         {Lat: -23.5505, Lng: -46.6333},
	"Mexico City":       {Lat: 19.4326, Lng: -99.1332},
	"Dubai":             {Lat: 25.2048, Lng: 55.2708},
}
