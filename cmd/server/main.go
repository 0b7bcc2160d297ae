package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/dipawards/console/internal/api"
	"github.com/dipawards/console/internal/middleware"
	"github.com/dipawards/console/internal/services"
	"github.com/dipawards/console/internal/store"
)

func main() {
	_ = godotenv.Load()

	addr := os.Getenv("ADMIN_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	var st store.Store
	if dbPath := os.Getenv("ADMIN_DB"); dbPath != "" {
		s, err := store.OpenSQLite(dbPath)
		if err != nil {
			log.Fatalf("open store: %v", err)
		}
		defer s.Close()
		st = s
		log.Printf("store: sqlite at %s", dbPath)
	} else {
		st = store.NewMemoryStore()
		log.Printf("store: in-memory (set ADMIN_DB to persist)")
	}

	// First-run convenience: seed the stored hash from ADMIN_PASSWORD when
	// none exists yet. Rotation afterwards stays out of band.
	if pw := os.Getenv("ADMIN_PASSWORD"); pw != "" {
		snap, err := st.ReadOnce(services.PathAdminPasswordHash)
		if err != nil {
			log.Fatalf("read admin password hash: %v", err)
		}
		if !snap.Exists() {
			if err := st.Write(services.PathAdminPasswordHash, services.HashSecret(pw)); err != nil {
				log.Fatalf("seed admin password hash: %v", err)
			}
			log.Printf("seeded admin password hash")
		}
	}

	mux := http.NewServeMux()
	api.NewRouter(st).Register(mux)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":   true,
			"name": "Dipawards Admin Console",
		})
	})

	// Serve the dashboard UI build alongside the API when configured.
	if staticDir := os.Getenv("ADMIN_STATIC_DIR"); staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	}

	handler := middleware.SecureHeaders(middleware.NoStore(middleware.WithAuth(mux)))

	log.Printf("admin console listening on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
