package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"

	"turn-guidance-service/internal/adapters/location"
	"turn-guidance-service/internal/adapters/repositories"
	"turn-guidance-service/internal/adapters/reroute"
	"turn-guidance-service/internal/adapters/speech"
	"turn-guidance-service/internal/adapters/viewport"
	"turn-guidance-service/internal/api"
	"turn-guidance-service/internal/api/handlers"
	"turn-guidance-service/internal/config"
	"turn-guidance-service/internal/navigation"
	"turn-guidance-service/internal/platform/db"
	"turn-guidance-service/internal/ports"
)

// main is the application composition root.
// It wires the storage, reroute, GPS and viewport adapters around one
// navigation session and serves the control API.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	port := config.Get("PORT", "8080")
	resumeKey := config.Get("RESUME_KEY", "default")

	tuning, err := config.LoadTuning(config.Get("GUIDANCE_CONFIG", "guidance.yml"))
	if err != nil {
		log.Fatal(err)
	}

	driver, dsn := config.Database()
	conn, err := db.Open(driver, dsn)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	stores, err := repositories.NewStores(driver, conn)
	if err != nil {
		log.Fatal(err)
	}

	var rerouter ports.Rerouter
	if key := config.Get("REROUTE_API_KEY", ""); key != "" {
		ors, err := reroute.NewORSRerouter(config.Get("REROUTE_URL", "https://api.openrouteservice.org"), key)
		if err != nil {
			log.Fatal(err)
		}
		rerouter = ors
	} else {
		log.Println("REROUTE_API_KEY not set, off-route recovery disabled")
	}

	hub := viewport.NewHub()
	sess := navigation.NewSession(tuning, navigation.Sinks{
		Speaker:  speech.Fanout{speech.LogSpeaker{}, hub},
		Viewport: hub,
		State:    hub,
	}, navigation.Deps{
		Rerouter:  rerouter,
		Progress:  stores.Resume,
		Trace:     stores.Trace,
		ResumeKey: resumeKey,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loopDone := make(chan error, 1)
	go func() { loopDone <- sess.Run(ctx) }()

	if device := config.Get("GPS_DEVICE", ""); device != "" {
		var gps ports.LocationSource = location.NewSerialSource(device, config.GetInt("GPS_BAUD", 9600))
		go func() {
			if err := gps.Run(ctx, sess.Offer); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("device=%s event=gps_stopped err=%v", device, err)
			}
		}()
	}

	router := api.NewRouter(&handlers.SessionHandler{
		Nav:       sess,
		Resume:    stores.Resume,
		ResumeKey: resumeKey,
	}, hub)

	// WriteTimeout stays zero: /ws connections are long lived.
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("server shutdown: %v", err)
		}
	}()

	log.Printf("Server listening addr=:%s driver=%s", port, driver)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}

	if err := <-loopDone; err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("navigation loop: %v", err)
	}
}
