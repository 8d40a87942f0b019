// Package geocode names alert locations with Google Maps reverse geocoding.
package geocode

import (
	"context"
	"fmt"
	"log"
	"sync"

	"googlemaps.github.io/maps"

	"herdwatch/types"
)

// ReverseGeocoder is satisfied by *maps.Client.
type ReverseGeocoder interface {
	ReverseGeocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

// mapsClient is a singleton maps client instance.
var (
	mapsClient *maps.Client
	mapsErr    error
	clientOnce sync.Once
)

// InitMapsClient initializes and returns a singleton Google Maps client.
func InitMapsClient(apiKey string) (*maps.Client, error) {
	clientOnce.Do(func() {
		if apiKey == "" {
			mapsErr = fmt.Errorf("MAPS_CREDENTIALS environment variable not set")
			return
		}
		mapsClient, mapsErr = maps.NewClient(maps.WithAPIKey(apiKey))
		if mapsErr != nil {
			mapsErr = fmt.Errorf("failed to create maps client: %w", mapsErr)
		}
	})
	return mapsClient, mapsErr
}

// placeTypes are tried in order when picking a short name from the components.
var placeTypes = []string{"locality", "administrative_area_level_2", "administrative_area_level_1"}

// LocationName reverse geocodes p and returns the most specific place name.
func LocationName(ctx context.Context, client ReverseGeocoder, p types.Point) (string, error) {
	req := &maps.GeocodingRequest{
		LatLng: &maps.LatLng{Lat: p.Lat, Lng: p.Lng},
	}
	results, err := client.ReverseGeocode(ctx, req)
	if err != nil {
		return "", fmt.Errorf("reverse geocode %.4f,%.4f: %w", p.Lat, p.Lng, err)
	}
	if len(results) == 0 {
		return "", nil
	}

	for _, want := range placeTypes {
		for _, r := range results {
			for _, c := range r.AddressComponents {
				for _, t := range c.Types {
					if t == want && c.LongName != "" {
						return c.LongName, nil
					}
				}
			}
		}
	}
	return results[0].FormattedAddress, nil
}

// FallbackName labels a location by its nearest settlement.
func FallbackName(a types.Alert) string {
	if a.Triggers.NearestSettlement != "" {
		return fmt.Sprintf("%.0f km from %s", a.Triggers.SettlementKM, a.Triggers.NearestSettlement)
	}
	return fmt.Sprintf("%.3f, %.3f", a.Location.Lat, a.Location.Lng)
}

// LabelAlerts fills LocationName on every alert. Lookups run concurrently; a failed or
// empty lookup falls back to the nearest settlement. client may be nil.
func LabelAlerts(ctx context.Context, client ReverseGeocoder, alerts []types.Alert) {
	var wg sync.WaitGroup
	for i := range alerts {
		alert := &alerts[i]
		if client == nil {
			alert.LocationName = FallbackName(*alert)
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			name, err := LocationName(ctx, client, alert.Location)
			if err != nil {
				log.Printf("Failed to geocode alert %s: %v", alert.ID, err)
			}
			if name == "" {
				name = FallbackName(*alert)
			}
			alert.LocationName = name
		}()
	}
	wg.Wait()
}
