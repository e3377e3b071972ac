package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/tingold/geobson/feature"
	"github.com/tingold/geobson/geom"
	"github.com/tingold/geobson/internal/logger"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	Addr     string        `short:"a" long:"addr"      env:"LISTEN_ADDRESS" description:"Address to listen on"      default:"localhost"`
	Port     int           `short:"p" long:"port"      env:"LISTEN_PORT"    description:"Port to listen on"         default:"8080"`
	CacheTTL time.Duration `long:"cache-ttl"           env:"CACHE_TTL"      description:"Encoded payload lifetime" default:"5m"`
}

type City struct {
	Name       string
	Country    string
	Longitude  float64
	Latitude   float64
	Population int
	Capital    bool
}

var cities = []City{
	{"Tokyo", "Japan", 139.6917, 35.6895, 13960000, true},
	{"New York", "United States", -73.9857, 40.7484, 8336817, false},
	{"London", "United Kingdom", -0.1276, 51.5074, 8982000, true},
	{"Paris", "France", 2.3522, 48.8566, 2161000, true},
	{"Beijing", "China", 116.4074, 39.9042, 21540000, true},
	{"Moscow", "Russia", 37.6173, 55.7558, 12615000, true},
	{"São Paulo", "Brazil", -46.6333, -23.5505, 12300000, false},
	{"Mumbai", "India", 72.8777, 19.0760, 12400000, false},
	{"Los Angeles", "United States", -118.2437, 34.0522, 3971883, false},
	{"Shanghai", "China", 121.4737, 31.2304, 24870000, false},
	{"Istanbul", "Turkey", 28.9784, 41.0082, 15520000, false},
	{"Buenos Aires", "Argentina", -58.3816, -34.6037, 3075646, true},
	{"Cairo", "Egypt", 31.2357, 30.0444, 10230000, true},
	{"Sydney", "Australia", 151.2093, -33.8688, 5312000, false},
	{"Berlin", "Germany", 13.4050, 52.5200, 3669491, true},
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	opts.Logger.Setup()

	fc := cityCollection()

	router, err := NewRouter(fc, opts.CacheTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build router")
	}

	listenAddr := fmt.Sprintf("%s:%d", opts.Addr, opts.Port)
	log.Info().
		Str("addr", listenAddr).
		Int("features", len(fc.Features)).
		Dur("cache_ttl", opts.CacheTTL).
		Msg("Web server started")

	if err := http.ListenAndServe(listenAddr, router); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

func cityCollection() *feature.FeatureCollection {
	fc := feature.NewFeatureCollection()
	for i, city := range cities {
		f := feature.NewFeature(geom.Point{Coordinate: geom.XY(city.Longitude, city.Latitude)})
		f.Attributes = feature.TableOf(
			"name", city.Name,
			"country", city.Country,
			"population", city.Population,
			"capital", city.Capital,
		)
		f.SetID(feature.Int(i + 1))
		fc.Append(f)
	}
	return fc
}
