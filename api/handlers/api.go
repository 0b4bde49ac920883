package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/fixora/fixora-api/api"
	"github.com/fixora/fixora-api/api/duplicates"
	"github.com/fixora/fixora-api/api/geocode"
	"github.com/fixora/fixora-api/api/handlers/search"
	"github.com/fixora/fixora-api/api/ml"
	"github.com/fixora/fixora-api/api/scheduler"
	"github.com/fixora/fixora-api/api/storage"
	"github.com/fixora/fixora-api/config"
	"github.com/fixora/fixora-api/databases"
	"github.com/fixora/fixora-api/models"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router    *mux.Router
	Config    config.Config
	Scheduler *scheduler.Scheduler
	dbHelper  databases.DatabaseHelper
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	// setup go-guardian for middleware
	m := api.MiddlewareDB{DB: databases.NewUserDatabase(a.dbHelper)}
	m.SetupGoGuardian()

	r := mux.NewRouter()

	rdb := databases.NewReportDatabase(a.dbHelper)
	udb := databases.NewUserDatabase(a.dbHelper)
	odb := databases.NewOrganizationDatabase(a.dbHelper)
	pdb := databases.NewPushTokenDatabase(a.dbHelper)

	mlClient := ml.NewClient(a.Config.PredictURL, a.Config.ClassifyURL)
	geocoder := geocode.NewClient(a.Config.GeocodeURL)

	var uploader *storage.Uploader
	if a.Config.CloudinaryURL != "" {
		var err error
		uploader, err = storage.NewUploader(a.Config.CloudinaryURL)
		if err != nil {
			zap.S().Errorw("cloudinary unavailable, storing raw image payloads", "error", err)
		}
	}

	submission := Submission{
		RDB:      rdb,
		ODB:      odb,
		UDB:      udb,
		PDB:      pdb,
		ML:       mlClient,
		Uploader: uploader,
		Geocoder: geocoder,
		Finder:   duplicates.Finder{DB: rdb, DefaultRadiusMeters: a.Config.DuplicateRadiusMeters},
		Linker:   duplicates.Linker{DB: rdb},
		Config:   a.Config,
	}
	report := Report{
		RDB:      rdb,
		PDB:      pdb,
		Uploader: uploader,
		Linker:   duplicates.Linker{DB: rdb},
		Resolver: duplicates.Resolver{DB: rdb},
		Synchronizer: duplicates.Synchronizer{
			DB:           rdb,
			Scanner:      duplicates.FullScan{DB: rdb},
			RadiusMeters: a.Config.SyncRadiusMeters,
		},
	}
	user := User{DB: udb, PDB: pdb}
	reportSearch := search.Report{DB: rdb}
	admin := Admin{UDB: udb}
	g := Geocode{Client: geocoder}
	metricsHandler := MetricsHandler{}
	cloudinaryHandler := CloudinaryHandler{}

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()

	apiCreate.Handle("/auth/token", api.Middleware(http.HandlerFunc(m.CreateToken))).Methods("POST")
	apiCreate.Handle("/auth/logout", api.Middleware(http.HandlerFunc(api.RevokeToken))).Methods("DELETE")
	apiCreate.Handle("/auth/admin/login", http.HandlerFunc(admin.AdminLoginHandler)).Methods("POST")

	apiCreate.Handle("/reports", api.Middleware(http.HandlerFunc(submission.CreateReportHandler))).Methods("POST")
	apiCreate.Handle("/reports", api.Middleware(http.HandlerFunc(report.ReportsHandler))).Methods("GET")
	apiCreate.Handle("/reports/user/{user_id}", api.Middleware(http.HandlerFunc(report.ReportsByUserIDHandler))).Methods("GET")
	apiCreate.Handle("/reports/{report_id}", api.Middleware(http.HandlerFunc(report.ReportByIDHandler))).Methods("GET")
	apiCreate.Handle("/reports/{report_id}/status", api.Middleware(http.HandlerFunc(report.UpdateReportStatusHandler))).Methods("PUT")
	apiCreate.Handle("/reports/{report_id}/link", api.Middleware(http.HandlerFunc(report.LinkReportHandler))).Methods("POST")
	apiCreate.Handle("/reports/{report_id}/merge-images", api.Middleware(http.HandlerFunc(report.MergeImagesHandler))).Methods("POST")
	apiCreate.Handle("/reports/{report_id}/related", api.Middleware(http.HandlerFunc(report.RelatedReportsHandler))).Methods("GET")
	apiCreate.Handle("/reports/{report_id}/duplicate-stats", api.Middleware(http.HandlerFunc(report.DuplicateStatsHandler))).Methods("GET")
	apiCreate.Handle("/reports/{report_id}/proof", api.Middleware(http.HandlerFunc(report.UploadProofHandler))).Methods("POST")

	apiCreate.Handle("/user/create-user", http.HandlerFunc(user.UserCreateHandler)).Methods("POST")
	apiCreate.Handle("/user/{user_id}", api.Middleware(http.HandlerFunc(user.UserHandler))).Methods("GET")
	apiCreate.Handle("/user/{user_id}/push-token", api.Middleware(http.HandlerFunc(user.RegisterPushTokenHandler))).Methods("POST")

	apiCreate.Handle("/search/reports", api.Middleware(http.HandlerFunc(reportSearch.ReportSearchHandler))).Methods("GET")

	apiCreate.Handle("/geocode/reverse", api.Middleware(http.HandlerFunc(g.ReverseHandler))).Methods("GET")
	apiCreate.Handle("/geocode/search", api.Middleware(http.HandlerFunc(g.SearchHandler))).Methods("GET")

	apiCreate.Handle("/metrics", api.Middleware(http.HandlerFunc(metricsHandler.GetRouteMetrics))).Methods("GET")
	apiCreate.Handle("/metrics/summary", api.Middleware(http.HandlerFunc(metricsHandler.GetSummary))).Methods("GET")

	apiCreate.Handle("/generate-signature", api.Middleware(http.HandlerFunc(cloudinaryHandler.GenerateSignature))).Methods("POST")

	r.HandleFunc("/ws/reports", HandleReportsWebSocket)

	r.Use(api.MetricsMiddleware)
	r.Use(api.TimeoutMiddleware(30 * time.Second))

	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("fixora-api has connected to the database")

	api.InitMetrics()

	// start the duplicate link reconciler
	a.Scheduler = scheduler.NewScheduler(databases.NewReportDatabase(a.dbHelper))
	a.Scheduler.Start()

	// initialize api router
	a.initializeRoutes()
	return nil

}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
