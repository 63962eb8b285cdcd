package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Jaanshi06/Wi-fi-Based-Attendance-System/internal/attendance"
	"github.com/Jaanshi06/Wi-fi-Based-Attendance-System/internal/auth"
	"github.com/Jaanshi06/Wi-fi-Based-Attendance-System/internal/config"
	"github.com/Jaanshi06/Wi-fi-Based-Attendance-System/internal/httpmiddleware"
	"github.com/Jaanshi06/Wi-fi-Based-Attendance-System/internal/macaddr"
	"github.com/Jaanshi06/Wi-fi-Based-Attendance-System/internal/netscan"
	"github.com/Jaanshi06/Wi-fi-Based-Attendance-System/internal/report"
	"github.com/Jaanshi06/Wi-fi-Based-Attendance-System/internal/roster"
	"github.com/Jaanshi06/Wi-fi-Based-Attendance-System/internal/session"
	"github.com/Jaanshi06/Wi-fi-Based-Attendance-System/internal/store"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	db, err := store.NewDB(context.Background(), cfg.DatabaseURL)
	if err != nil {
		// An unreachable DB is tolerated (healthz reports it, queries
		// fail per request), but an unparseable DSN leaves no handle
		// to work with at all.
		if db == nil {
			return fmt.Errorf("open database: %w", err)
		}
		log.Printf("warning: db not reachable: %v", err)
	}
	defer db.Close()

	if err := store.Migrate(context.Background(), db.Client); err != nil {
		log.Printf("warning: migrations failed: %v", err)
	}

	redisClient := store.NewRedis(cfg.RedisAddr)

	repo := attendance.NewRepository(db.Client)
	svc := attendance.NewService(repo, netscan.ARPTable{}, cfg.MacUseDash)
	cache := session.NewCache(redisClient.Client, cfg.ScanResultTTL)
	sink := report.NewExcelSink(cfg.ExportDir)

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewRateLimiter(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := redisClient.Healthy(c.Request.Context())
		dbHealthy := db.Client.PingContext(c.Request.Context()) == nil
		status := http.StatusOK
		if !redisHealthy || !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
	})

	r.POST("/v1/auth/login", func(c *gin.Context) {
		var req struct {
			Name string `json:"name" binding:"required"`
			Key  string `json:"key" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.Key != cfg.AdminKey {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "bad credentials"})
			return
		}
		token, exp, err := auth.Issue(req.Name, "teacher", cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"access_token": token, "expires_at": exp.Unix()})
	})

	authGroup := r.Group("/v1", auth.Bearer(cfg.JWTSigningKey, cfg.JWTIssuer))

	authGroup.GET("/students", func(c *gin.Context) {
		ctx := c.Request.Context()
		students, err := repo.ListStudents(ctx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		_, collisions := roster.BuildIndex(students, cfg.MacUseDash)

		sess := sessionFromQuery(c)
		present := map[int64]struct{}{}
		if sess.Valid() {
			present, err = svc.PresentToday(ctx, sess, students)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
		}

		q := strings.ToLower(c.Query("q"))
		type studentRow struct {
			roster.Student
			CanonicalMAC string `json:"canonical_mac"`
			Present      bool   `json:"present"`
		}
		rows := make([]studentRow, 0, len(students))
		for _, st := range students {
			if q != "" && !strings.Contains(strings.ToLower(st.Name), q) && !strings.Contains(strings.ToLower(st.Roll), q) {
				continue
			}
			_, okPresent := present[st.ID]
			rows = append(rows, studentRow{
				Student:      st,
				CanonicalMAC: roster.CanonicalMAC(st, cfg.MacUseDash),
				Present:      okPresent,
			})
		}
		c.JSON(http.StatusOK, gin.H{"students": rows, "collisions": collisions})
	})

	authGroup.POST("/students", func(c *gin.Context) {
		var req struct {
			Name string `json:"name" binding:"required"`
			Roll string `json:"roll" binding:"required"`
			MAC  string `json:"mac" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		st, err := repo.CreateStudent(c.Request.Context(), req.Name, req.Roll, req.MAC)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		_, macOK := macaddr.Normalize(req.MAC, cfg.MacUseDash)
		c.JSON(http.StatusCreated, gin.H{"student": st, "mac_valid": macOK})
	})

	authGroup.DELETE("/students/:id", func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad student id"})
			return
		}
		if err := repo.DeleteStudent(c.Request.Context(), id); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusNoContent)
	})

	authGroup.GET("/teachers", func(c *gin.Context) {
		teachers, err := repo.ListTeachers(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"teachers": teachers})
	})

	authGroup.POST("/teachers", func(c *gin.Context) {
		var req struct {
			Name    string `json:"name" binding:"required"`
			Subject string `json:"subject" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		t, err := repo.CreateTeacher(c.Request.Context(), strings.TrimSpace(req.Name), strings.TrimSpace(req.Subject))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"teacher": t})
	})

	authGroup.POST("/scan", func(c *gin.Context) {
		var req session.Session
		if err := c.ShouldBindJSON(&req); err != nil || !req.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "teacher and class required"})
			return
		}
		result, err := svc.Scan(c.Request.Context(), req)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if err := cache.SaveResult(c.Request.Context(), req, result); err != nil {
			log.Printf("scan result cache failed: %v", err)
		}
		c.JSON(http.StatusOK, result)
	})

	authGroup.GET("/scan/last", func(c *gin.Context) {
		sess := sessionFromQuery(c)
		if !sess.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "teacher and class required"})
			return
		}
		var result attendance.ScanResult
		err := cache.LastResult(c.Request.Context(), sess, &result)
		if err == session.ErrNoResult {
			c.JSON(http.StatusNotFound, gin.H{"error": "no scan yet"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, result)
	})

	authGroup.POST("/attendance/manual", func(c *gin.Context) {
		var req struct {
			Teacher   string `json:"teacher" binding:"required"`
			Class     string `json:"class" binding:"required"`
			StudentID int64  `json:"student_id" binding:"required"`
			Status    string `json:"status" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		sess := session.Session{Teacher: req.Teacher, Class: req.Class}
		if err := svc.SetStatus(c.Request.Context(), sess, req.StudentID, req.Status); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		// Stale cached scan results would show the old tick state.
		if err := cache.Clear(c.Request.Context(), sess); err != nil {
			log.Printf("scan cache clear failed: %v", err)
		}
		c.JSON(http.StatusCreated, gin.H{"status": req.Status})
	})

	authGroup.GET("/attendance/recent", func(c *gin.Context) {
		limit := 500
		if v := c.Query("limit"); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				limit = parsed
			}
		}
		records, err := repo.RecentRecords(c.Request.Context(), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"records": records})
	})

	authGroup.GET("/reports/monthly", func(c *gin.Context) {
		sess := sessionFromQuery(c)
		if !sess.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "teacher and class required"})
			return
		}
		now := time.Now()
		year, month := now.Year(), now.Month()
		if v := c.Query("year"); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				year = parsed
			}
		}
		if v := c.Query("month"); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil && parsed >= 1 && parsed <= 12 {
				month = time.Month(parsed)
			}
		}

		ctx := c.Request.Context()
		students, err := repo.ListStudents(ctx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		grid, err := report.BuildMonthlyGrid(ctx, repo, students, sess, year, month)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		file, sheet, err := sink.Write(sess.Teacher, grid)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"file": file, "sheet": sheet, "days": grid.Days, "rows": len(grid.Rows)})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

func sessionFromQuery(c *gin.Context) session.Session {
	return session.Session{
		Teacher: strings.TrimSpace(c.Query("teacher")),
		Class:   strings.TrimSpace(c.Query("class")),
	}
}

// CORS middleware for browser requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
