package main

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tingold/geobson"
	"github.com/tingold/geobson/feature"
	"github.com/tingold/geobson/fgb"
	"github.com/tingold/geobson/geom"

	"github.com/gorilla/mux"
	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
)

var errBadBBox = errors.New("bbox must be minx,miny,maxx,maxy")

var contentTypes = map[string]string{
	"bson":    "application/bson",
	"geojson": "application/geo+json",
	"fgb":     "application/octet-stream",
}

// Router serves one feature collection in every supported encoding.
type Router struct {
	*mux.Router
	Codec    *geobson.Codec
	Features *feature.FeatureCollection
	Cache    *gocache.Cache
}

// NewRouter builds the routes for fc. Encoded payloads are cached for ttl.
func NewRouter(fc *feature.FeatureCollection, ttl time.Duration) (*Router, error) {
	c, err := geobson.NewCodec(&geobson.Options{Factory: geom.WGS84(), Logger: log.Logger})
	if err != nil {
		return nil, err
	}

	r := &Router{
		Router:   mux.NewRouter(),
		Codec:    c,
		Features: fc,
		Cache:    gocache.New(ttl, 2*ttl),
	}

	r.Use(requestLogger)
	r.Use(corsMiddleware)
	r.Methods("GET").Name("data").Path("/data.{ext:bson|geojson|fgb}").HandlerFunc(r.handleData)

	return r, nil
}

func (r *Router) handleData(w http.ResponseWriter, req *http.Request) {
	ext := mux.Vars(req)["ext"]
	bbox := req.URL.Query().Get("bbox")

	key := ext + "|" + bbox
	if data, found := r.Cache.Get(key); found {
		w.Header().Set("Content-Type", contentTypes[ext])
		_, _ = w.Write(data.([]byte))
		return
	}

	fc := r.Features
	if bbox != "" {
		env, err := parseBBox(bbox)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		fc = filter(fc, env)
	}

	data, err := r.encode(fc, ext)
	if err != nil {
		log.Error().Err(err).Str("ext", ext).Msg("Failed to encode features")
		http.Error(w, "encoding failed", http.StatusInternalServerError)
		return
	}
	r.Cache.Set(key, data, gocache.DefaultExpiration)

	w.Header().Set("Content-Type", contentTypes[ext])
	_, _ = w.Write(data)
}

func (r *Router) encode(fc *feature.FeatureCollection, ext string) ([]byte, error) {
	switch ext {
	case "bson":
		return r.Codec.Marshal(fc)
	case "geojson":
		return r.Codec.MarshalGeoJSON(fc)
	case "fgb":
		if len(fc.Features) == 0 {
			return nil, fmt.Errorf("no features to write")
		}
		var buf bytes.Buffer
		err := fgb.WriteFeatures(&buf, fc, &fgb.Options{
			Name:         "world_cities",
			Description:  "Major world cities",
			IncludeIndex: true,
			CRS:          fgb.WGS84(),
			Logger:       log.Logger,
		})
		return buf.Bytes(), err
	default:
		return nil, fmt.Errorf("unsupported extension %q", ext)
	}
}

func parseBBox(s string) (geom.Envelope, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return geom.Envelope{}, errBadBBox
	}

	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return geom.Envelope{}, errBadBBox
		}
		v[i] = f
	}
	return geom.NewEnvelope(v[0], v[2], v[1], v[3]), nil
}

// filter returns the features whose bounds overlap env.
func filter(fc *feature.FeatureCollection, env geom.Envelope) *feature.FeatureCollection {
	out := feature.NewFeatureCollection()
	for _, f := range fc.Features {
		if f == nil {
			continue
		}
		b, ok := geom.EnvelopeOf(f.Geometry)
		if !ok {
			continue
		}
		if b.MaxX < env.MinX || b.MinX > env.MaxX || b.MaxY < env.MinY || b.MinY > env.MaxY {
			continue
		}
		out.Append(f)
	}
	return out
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(ww, r)

		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.statusCode).
			Str("ip", r.RemoteAddr).
			Dur("duration", time.Since(start)).
			Msg("Request processed")
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}
