// Package geo holds the spherical helpers shared by the simulator and the risk engine.
package geo

import (
	"math"

	"herdwatch/types"
)

const earthRadiusKM = 6371.0

// Compass lists the eight candidate directions in enumeration order.
var Compass = []string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// HaversineKM calculates the great-circle distance between two points
// on the earth (specified in decimal degrees).
func HaversineKM(a, b types.Point) float64 {
	radLat1 := a.Lat * math.Pi / 180
	radLon1 := a.Lng * math.Pi / 180
	radLat2 := b.Lat * math.Pi / 180
	radLon2 := b.Lng * math.Pi / 180

	deltaLat := radLat2 - radLat1
	deltaLon := radLon2 - radLon1

	h := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(radLat1)*math.Cos(radLat2)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKM * c
}

// Destination returns the point reached by travelling km along an initial bearing (degrees from north).
func Destination(p types.Point, bearingDeg, km float64) types.Point {
	lat1 := p.Lat * math.Pi / 180
	lon1 := p.Lng * math.Pi / 180
	brng := bearingDeg * math.Pi / 180
	d := km / earthRadiusKM

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(d) + math.Cos(lat1)*math.Sin(d)*math.Cos(brng))
	lon2 := lon1 + math.Atan2(math.Sin(brng)*math.Sin(d)*math.Cos(lat1), math.Cos(d)-math.Sin(lat1)*math.Sin(lat2))

	return types.Point{Lat: lat2 * 180 / math.Pi, Lng: normalizeLon(lon2 * 180 / math.Pi)}
}

// BearingOf returns the bearing in degrees of compass direction i.
func BearingOf(i int) float64 {
	return float64(i) * 45
}

// Midpoint averages two nearby positions. Corridor distances are small enough
// that the planar mean is within metres of the great-circle midpoint.
func Midpoint(a, b types.Point) types.Point {
	return types.Point{Lat: (a.Lat + b.Lat) / 2, Lng: (a.Lng + b.Lng) / 2}
}

// Centroid is the vertex mean of a polygon; zero point for an empty polygon.
// A closing vertex that repeats the first is counted once.
func Centroid(polygon []types.Point) types.Point {
	if len(polygon) == 0 {
		return types.Point{}
	}
	if n := len(polygon); n > 1 && polygon[0] == polygon[n-1] {
		polygon = polygon[:n-1]
	}
	var sumLat, sumLng float64
	for _, p := range polygon {
		sumLat += p.Lat
		sumLng += p.Lng
	}
	n := float64(len(polygon))
	return types.Point{Lat: sumLat / n, Lng: sumLng / n}
}

func normalizeLon(lon float64) float64 {
	for lon > 180 {
		lon -= 360
	}
	for lon < -180 {
		lon += 360
	}
	return lon
}
