package search

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/fixora/fixora-api/api"
	"github.com/fixora/fixora-api/config"
	"github.com/fixora/fixora-api/databases"
	"github.com/fixora/fixora-api/models"
)

// Report searches report descriptions. Requires a text index on the
// description field.
type Report struct {
	DB databases.ReportDatabase
}

// ReportSearchHandler handles GET /api/v1/search/reports?q=...
// Optional status and category query params narrow the result.
func (s Report) ReportSearchHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		config.ErrorStatus("search query is required", http.StatusBadRequest, w, fmt.Errorf("empty q parameter"))
		return
	}

	conditions := []bson.M{
		{"$text": bson.M{"$search": query}},
	}
	if status := r.URL.Query().Get("status"); status != "" {
		if !models.ReportStatus(status).IsValid() {
			config.ErrorStatus("unknown status filter", http.StatusBadRequest, w, fmt.Errorf("status %q", status))
			return
		}
		conditions = append(conditions, bson.M{"status": status})
	}
	if category := r.URL.Query().Get("category"); category != "" {
		conditions = append(conditions, bson.M{"categorySlug": category})
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := s.DB.Find(ctx, bson.M{"$and": conditions})
	if err != nil {
		config.ErrorStatus("failed to search reports", http.StatusNotFound, w, err)
		return
	}
	// Because the frontend requires that the data elements exist, if
	// len == 0 then we will just return an empty data object
	if len(dbResp) == 0 {
		dbResp = []models.Report{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
