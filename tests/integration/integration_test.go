package integration_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/mensa-app/mensa/internal/config"
	"github.com/mensa-app/mensa/internal/database"
	"github.com/mensa-app/mensa/internal/handlers"
	"github.com/mensa-app/mensa/internal/schedule"
	"github.com/mensa-app/mensa/internal/store"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

// TestWithMariaDB exercises the whole service against a real MariaDB container
func TestWithMariaDB(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	mariadbContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mariadb:11",
			ExposedPorts: []string{"3306/tcp"},
			Env: map[string]string{
				"MYSQL_ROOT_PASSWORD": "rootpass",
				"MYSQL_DATABASE":      "mensa",
				"MYSQL_USER":          "mensa",
				"MYSQL_PASSWORD":      "mensapass",
			},
			WaitingFor: wait.ForLog("ready for connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start MariaDB container: %v", err)
	}
	defer func() {
		if err := mariadbContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate MariaDB container: %v", err)
		}
	}()

	host, err := mariadbContainer.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	port, err := mariadbContainer.MappedPort(ctx, "3306")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	cfg := &config.Config{
		BodyLimit:         10 * 1024,
		IdentityHeader:    "X-Remote-User",
		UserDomainSuffix:  "@UZ.SNS.IT",
		DBType:            "mysql",
		DBHost:            host,
		DBPort:            port.Port(),
		DBDatabase:        "mensa",
		DBUser:            "mensa",
		DBPassword:        "mensapass",
		DBConnectionLimit: 5,
	}

	waitForDatabase(t, cfg)

	db, err := database.Connect(cfg)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	t.Run("LookupOrCreateRaceSafety", func(t *testing.T) {
		testLookupOrCreate(t, db)
	})

	t.Run("DeclarationRoundTrip", func(t *testing.T) {
		testDeclarationRoundTrip(t, db, cfg)
	})
}

// waitForDatabase pings the server directly until it accepts connections;
// the container log line can precede actual readiness.
func waitForDatabase(t *testing.T, cfg *config.Config) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBDatabase)

	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		conn, err := sql.Open("mysql", dsn)
		if err == nil {
			err = conn.Ping()
			conn.Close()
			if err == nil {
				return
			}
		}
		time.Sleep(time.Second)
	}
	t.Fatal("Database never became reachable")
}

func testLookupOrCreate(t *testing.T, db *gorm.DB) {
	first, err := store.GetOrCreateUser(db, "alice@UZ.SNS.IT")
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	second, err := store.GetOrCreateUser(db, "alice@UZ.SNS.IT")
	if err != nil {
		t.Fatalf("Failed to look up user: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("Expected same user row, got %d and %d", first.ID, second.ID)
	}

	date := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	p1, err := store.GetOrCreatePhase(db, date, 1)
	if err != nil {
		t.Fatalf("Failed to create phase: %v", err)
	}
	p2, err := store.GetOrCreatePhase(db, date, 1)
	if err != nil {
		t.Fatalf("Failed to look up phase: %v", err)
	}
	if p1.ID != p2.ID {
		t.Errorf("Expected same phase row, got %d and %d", p1.ID, p2.ID)
	}
}

func testDeclarationRoundTrip(t *testing.T, db *gorm.DB, cfg *config.Config) {
	sched := schedule.Default()
	lunch := func() time.Time {
		return time.Date(2024, 1, 10, 12, 30, 0, 0, time.UTC)
	}
	app := handlers.NewApp(db, cfg, sched, lunch)

	req := httptest.NewRequest("POST", "/state", strings.NewReader("statement=spaghetti"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Remote-User", "x@UZ.SNS.IT")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	if resp.StatusCode != 302 {
		t.Fatalf("Expected status 302, got %d", resp.StatusCode)
	}

	req = httptest.NewRequest("GET", "/json", nil)
	req.Header.Set("X-Remote-User", "x@UZ.SNS.IT")
	resp, err = app.Test(req, -1)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	var result struct {
		Statements []struct {
			Username string `json:"username"`
			Value    string `json:"value"`
		} `json:"statements"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(result.Statements) != 1 {
		t.Fatalf("Expected 1 statement, got %d", len(result.Statements))
	}
	if result.Statements[0].Username != "x" || result.Statements[0].Value != "spaghetti" {
		t.Errorf("Unexpected statement: %+v", result.Statements[0])
	}
}
