package hospitals

import (
	"math"
	"sort"
)

// earthRadiusKM is the mean earth radius used by the haversine formula
const earthRadiusKM = 6371.0

// HaversineKM returns the great-circle distance between two points in
// kilometers
func HaversineKM(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKM * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// sortByDistance fills in each hospital's distance from the origin and
// orders the slice nearest first
func sortByDistance(hospitals []Hospital, originLat, originLng float64) {
	for i := range hospitals {
		km := HaversineKM(originLat, originLng, hospitals[i].Latitude, hospitals[i].Longitude)
		hospitals[i].DistanceKM = math.Round(km*10) / 10
	}
	sort.Slice(hospitals, func(i, j int) bool {
		return hospitals[i].DistanceKM < hospitals[j].DistanceKM
	})
}
