package region

// Vancouver returns the approximate centroids of the 24 neighbourhoods used
// in Vancouver Police Department crime data.
func Vancouver() []Region {
	return []Region{
		{Name: "Arbutus Ridge", Centroid: Point{Lat: 49.2463, Lng: -123.1620}},
		{Name: "Central Business District", Centroid: Point{Lat: 49.2820, Lng: -123.1171}},
		{Name: "Dunbar-Southlands", Centroid: Point{Lat: 49.2380, Lng: -123.1850}},
		{Name: "Fairview", Centroid: Point{Lat: 49.2640, Lng: -123.1300}},
		{Name: "Grandview-Woodland", Centroid: Point{Lat: 49.2750, Lng: -123.0670}},
		{Name: "Hastings-Sunrise", Centroid: Point{Lat: 49.2780, Lng: -123.0400}},
		{Name: "Kensington-Cedar Cottage", Centroid: Point{Lat: 49.2470, Lng: -123.0720}},
		{Name: "Kerrisdale", Centroid: Point{Lat: 49.2240, Lng: -123.1590}},
		{Name: "Killarney", Centroid: Point{Lat: 49.2180, Lng: -123.0380}},
		{Name: "Kitsilano", Centroid: Point{Lat: 49.2680, Lng: -123.1680}},
		{Name: "Marpole", Centroid: Point{Lat: 49.2100, Lng: -123.1300}},
		{Name: "Mount Pleasant", Centroid: Point{Lat: 49.2630, Lng: -123.0970}},
		{Name: "Musqueam", Centroid: Point{Lat: 49.2300, Lng: -123.1980}},
		{Name: "Oakridge", Centroid: Point{Lat: 49.2260, Lng: -123.1230}},
		{Name: "Renfrew-Collingwood", Centroid: Point{Lat: 49.2480, Lng: -123.0400}},
		{Name: "Riley Park", Centroid: Point{Lat: 49.2440, Lng: -123.1030}},
		{Name: "Shaughnessy", Centroid: Point{Lat: 49.2460, Lng: -123.1380}},
		{Name: "South Cambie", Centroid: Point{Lat: 49.2450, Lng: -123.1210}},
		{Name: "Stanley Park", Centroid: Point{Lat: 49.3017, Lng: -123.1417}},
		{Name: "Strathcona", Centroid: Point{Lat: 49.2780, Lng: -123.0880}},
		{Name: "Sunset", Centroid: Point{Lat: 49.2190, Lng: -123.0900}},
		{Name: "Victoria-Fraserview", Centroid: Point{Lat: 49.2180, Lng: -123.0630}},
		{Name: "West End", Centroid: Point{Lat: 49.2850, Lng: -123.1340}},
		{Name: "West Point Grey", Centroid: Point{Lat: 49.2650, Lng: -123.2000}},
	}
}
