package types

import "testing"

func TestBoundingBoxAllows(t *testing.T) {
	box := BoundingBox{MinLat: 3, MaxLat: 12, MinLon: 24, MaxLon: 36}
	tests := []struct {
		name string
		box  BoundingBox
		p    Point
		want bool
	}{
		{"inside", box, Point{Lat: 7, Lng: 30}, true},
		{"inside margin band", box, Point{Lat: 3.1, Lng: 30}, false},
		{"outside", box, Point{Lat: 13, Lng: 30}, false},
		{"zero box is unbounded", BoundingBox{}, Point{Lat: 7, Lng: 30}, true},
		{"zero box far away", BoundingBox{}, Point{Lat: -40, Lng: 170}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.box.Allows(tt.p, 0.25); got != tt.want {
				t.Errorf("Allows(%+v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}
