package location

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/oschwald/geoip2-golang"
	gocache "github.com/patrickmn/go-cache"

	"github.com/suraksha/alertwatch/internal/models"
)

// GeoIPSource resolves client IPs against a MaxMind city database.
// Lookups are memoized since the database is static for the process
// lifetime.
type GeoIPSource struct {
	reader *geoip2.Reader
	cache  *gocache.Cache
}

func NewGeoIPSource(dbPath string) (*GeoIPSource, error) {
	reader, err := geoip2.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening geoip database: %w", err)
	}
	return &GeoIPSource{
		reader: reader,
		cache:  gocache.New(1*time.Hour, 10*time.Minute),
	}, nil
}

func (g *GeoIPSource) Locate(ctx context.Context, clientIP string) (models.Coordinate, error) {
	if cached, ok := g.cache.Get(clientIP); ok {
		return cached.(models.Coordinate), nil
	}

	ip := net.ParseIP(clientIP)
	if ip == nil {
		return models.Coordinate{}, fmt.Errorf("unparseable client address %q", clientIP)
	}

	city, err := g.reader.City(ip)
	if err != nil {
		return models.Coordinate{}, fmt.Errorf("geoip lookup for %s: %w", clientIP, err)
	}
	if city.Location.Latitude == 0 && city.Location.Longitude == 0 {
		return models.Coordinate{}, fmt.Errorf("no position for %s", clientIP)
	}

	coord := models.Coordinate{
		Latitude:  city.Location.Latitude,
		Longitude: city.Location.Longitude,
	}
	g.cache.Set(clientIP, coord, gocache.DefaultExpiration)
	return coord, nil
}

func (g *GeoIPSource) Close() error {
	return g.reader.Close()
}
