package cmd

import (
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the practice API",
	Long:  `Serves the practice API: parse, timeline, transpose and midi export endpoints plus the live session socket.`,
	Run: func(cmd *cobra.Command, args []string) {
		serve()
	},
}

// NewRouter wires every API route. Split out so tests can drive the full
// routing table without a listener.
func NewRouter() *mux.Router {
	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/healthz", HandleHealth).Methods("GET")
	router.HandleFunc("/parse", HandleParse).Methods("POST")
	router.HandleFunc("/timeline", HandleTimeline).Methods("POST")
	router.HandleFunc("/transpose", HandleTranspose).Methods("POST")
	router.HandleFunc("/export", HandleExport).Methods("POST")
	router.HandleFunc("/session", HandleSession).Methods("GET")
	return router
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Info("request", "method", r.Method, "path", r.URL.Path, "dur", time.Since(start))
	})
}

func serve() {
	LoadConfig()

	handler := cors.New(cors.Options{
		AllowedOrigins: serverConfig.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(logRequests(NewRouter()))

	slog.Info("listening", "addr", serverConfig.Addr)
	log.Fatal(http.ListenAndServe(serverConfig.Addr, handler))
}
