package config

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/fixora/fixora-api/models"
)

// Defaults for values that are tunable but rarely changed. The duplicate
// radius and the sync radius both default to 100m but are configured
// independently; they are not required to match.
const (
	DefaultDuplicateRadiusMeters = 100.0
	DefaultSyncRadiusMeters      = 100.0
	DefaultMinConfidence         = 0.80
	DefaultMinDescriptionLength  = 10
)

// Config holds the project config values
type Config struct {
	URL          string
	DatabaseName string
	BaseURL      string
	Port         string

	PredictURL  string
	ClassifyURL string
	GeocodeURL  string

	CloudinaryURL string

	DuplicateRadiusMeters float64
	SyncRadiusMeters      float64
	MinConfidence         float64
	MinDescriptionLength  int
}

// New sets up all config related services
func New() *Config {

	//setup zap logger and replace default logger
	logger, _ := setLogger(os.Getenv("APP_ENV"))
	defer logger.Sync()
	_ = zap.ReplaceGlobals(logger)

	return &Config{
		URL:          os.Getenv("DB_URI"),
		DatabaseName: os.Getenv("DB_NAME"),
		BaseURL:      os.Getenv("BASE_URL"),
		Port:         os.Getenv("PORT"),

		PredictURL:  os.Getenv("PREDICT_URL"),
		ClassifyURL: os.Getenv("CLASSIFY_URL"),
		GeocodeURL:  os.Getenv("GEOCODE_URL"),

		CloudinaryURL: os.Getenv("CLOUDINARY_URL"),

		DuplicateRadiusMeters: envFloat("DUPLICATE_RADIUS_METERS", DefaultDuplicateRadiusMeters),
		SyncRadiusMeters:      envFloat("SYNC_RADIUS_METERS", DefaultSyncRadiusMeters),
		MinConfidence:         envFloat("MIN_CLASSIFICATION_CONFIDENCE", DefaultMinConfidence),
		MinDescriptionLength:  envInt("MIN_DESCRIPTION_LENGTH", DefaultMinDescriptionLength),
	}

}

func setLogger(env string) (*zap.Logger, error) {
	switch env {
	case "production":
		return zap.NewProduction()
	case "development":
		return zap.NewDevelopment()
	default:
		return zap.NewExample(), nil
	}
}

func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		zap.S().Warnf("invalid float for %s: %q, using default %v", key, v, def)
		return def
	}
	return f
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		zap.S().Warnf("invalid int for %s: %q, using default %v", key, v, def)
		return def
	}
	return i
}

// ErrorStatus is a useful function that will log, write http headers and body
// for a given message, status code and err
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().With(err).Error(message)
	w.WriteHeader(httpStatusCode)
	b, _ := json.Marshal(models.ErrorMessageResponse{Response: models.MessageError{Message: message, Error: fmt.Sprintf("%v", err)}})
	w.Write(b)
}
