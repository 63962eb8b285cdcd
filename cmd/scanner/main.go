package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Jaanshi06/Wi-fi-Based-Attendance-System/internal/attendance"
	"github.com/Jaanshi06/Wi-fi-Based-Attendance-System/internal/config"
	"github.com/Jaanshi06/Wi-fi-Based-Attendance-System/internal/netscan"
	"github.com/Jaanshi06/Wi-fi-Based-Attendance-System/internal/session"
	"github.com/Jaanshi06/Wi-fi-Based-Attendance-System/internal/store"
)

// Scanner periodically reconciles the ARP table against the roster for
// a fixed teacher/class, the headless counterpart of the dashboard's
// "Run Scan Now".
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	if err := store.Migrate(ctx, db.Client); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()
	cache := session.NewCache(redisClient.Client, cfg.ScanResultTTL)

	repo := attendance.NewRepository(db.Client)
	svc := attendance.NewService(repo, netscan.ARPTable{}, cfg.MacUseDash)
	sess := session.Session{Teacher: cfg.ScanTeacher, Class: cfg.ScanClass}

	log.Printf("scanner started: class=%s teacher=%s interval=%s run_once=%v",
		sess.Class, sess.Teacher, cfg.ScanInterval, cfg.RunOnce)

	runScan(ctx, svc, cache, sess)
	if cfg.RunOnce {
		return
	}

	ticker := time.NewTicker(cfg.ScanInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Println("scanner stopped")
			return
		case <-ticker.C:
			runScan(ctx, svc, cache, sess)
		}
	}
}

func runScan(ctx context.Context, svc *attendance.Service, cache *session.Cache, sess session.Session) {
	result, err := svc.Scan(ctx, sess)
	if err != nil {
		log.Printf("scan failed: %v", err)
		return
	}
	for _, st := range result.Marked {
		log.Printf("marked: %s (%s)", st.Name, st.Roll)
	}
	for _, st := range result.Already {
		log.Printf("already marked: %s (%s)", st.Name, st.Roll)
	}
	for _, e := range result.Errors {
		log.Printf("attendance error for %s: %s", e.Student.Name, e.Err)
	}
	log.Printf("scan complete: %d device(s) seen, %d newly present, %d already, %d error(s)",
		len(result.DetectedMACs), result.Count, len(result.Already), len(result.Errors))

	if err := cache.SaveResult(ctx, sess, result); err != nil {
		log.Printf("scan result cache failed: %v", err)
	}
}
