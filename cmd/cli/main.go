package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/yourorg/estateman/internal/infrastructure/logger"
	"github.com/yourorg/estateman/internal/repository"
	"github.com/yourorg/estateman/internal/service"
	"github.com/yourorg/estateman/pkg/config"
	"github.com/yourorg/estateman/pkg/database"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "auth":
		handleAuth(args)
	case "houses":
		handleHouses(args)
	case "tenants":
		handleTenants(args)
	case "sync":
		handleSync(args)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func handleAuth(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: estateman auth <login|logout|who>")
		return
	}

	subCmd := args[0]
	switch subCmd {
	case "login":
		loginUser(args[1:])
	case "logout":
		logoutUser()
	case "who":
		whoAmI()
	default:
		fmt.Printf("unknown auth command: %s\n", subCmd)
	}
}

func handleHouses(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: estateman houses <list|vacant|stats>")
		return
	}

	subCmd := args[0]
	switch subCmd {
	case "list":
		listHouses("/houses")
	case "vacant":
		listHouses("/houses/vacant")
	case "stats":
		houseStats()
	default:
		fmt.Printf("unknown houses command: %s\n", subCmd)
	}
}

func handleTenants(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: estateman tenants <list|expiring>")
		return
	}

	subCmd := args[0]
	switch subCmd {
	case "list":
		listTenants("/tenants")
	case "expiring":
		listTenants("/tenants/expiring")
	default:
		fmt.Printf("unknown tenants command: %s\n", subCmd)
	}
}

// handleSync runs reconciliation jobs against the database directly,
// bypassing the API. Intended for cron and one-off operator use.
func handleSync(args []string) {
	if len(args) < 1 || args[0] != "houses" {
		fmt.Println("Usage: estateman sync houses")
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.NewLogger(cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := database.NewConnectionPool(ctx, &database.Config{
		Host:     cfg.DatabaseHost,
		Port:     cfg.DatabasePort,
		User:     cfg.DatabaseUser,
		Password: cfg.DatabasePassword,
		Database: cfg.DatabaseName,
		SSLMode:  cfg.DatabaseSSLMode,
	}, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()
	db := pool.GetDB()

	houseRepo := repository.NewPostgresHouseRepository(db, log)
	tenantRepo := repository.NewPostgresTenantRepository(db, log)
	occupancy := service.NewOccupancyService(houseRepo, tenantRepo, log)

	corrected, err := occupancy.Sync(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sync failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✓ Occupancy sync complete: %d house(s) corrected\n", corrected)
}

// Auth commands
func loginUser(args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	username := fs.String("username", "", "username or email")
	password := fs.String("password", "", "password")

	fs.Parse(args)

	if *username == "" || *password == "" {
		fmt.Println("Error: username and password are required")
		fs.PrintDefaults()
		return
	}

	payload := map[string]string{"username": *username, "password": *password}
	data, _ := json.Marshal(payload)
	resp, err := http.Post(getAPIURL()+"/auth/login", "application/json", bytes.NewReader(data))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == 200 {
		if token, ok := result["access_token"].(string); ok {
			saveToken(token)
			fmt.Printf("✓ Logged in as: %s\n", *username)
		}
	} else {
		fmt.Printf("✗ Login failed: %v\n", result)
	}
}

func logoutUser() {
	os.Remove(tokenFile())
	fmt.Println("✓ Logged out")
}

func whoAmI() {
	token := loadToken()
	if token == "" {
		fmt.Println("Not logged in")
		return
	}

	req, _ := http.NewRequest("GET", getAPIURL()+"/users/me", nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var me map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&me)
	if resp.StatusCode == 200 {
		fmt.Printf("✓ Logged in as: %v (%v)\n", me["username"], me["role"])
	} else {
		fmt.Println("Session expired, log in again")
	}
}

// House commands
func listHouses(path string) {
	req, _ := http.NewRequest("GET", getAPIURL()+path, nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var houses []map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&houses)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNUMBER\tTYPE\tSTATUS\tRENT")
	for _, h := range houses {
		fmt.Fprintf(w, "%v\t%v\t%v\t%v\t%v\n", h["id"], h["house_number"], h["house_type"], h["status"], h["rent_amount"])
	}
	w.Flush()
}

func houseStats() {
	req, _ := http.NewRequest("GET", getAPIURL()+"/houses/stats", nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var stats map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&stats)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for k, v := range stats {
		fmt.Fprintf(w, "%s\t%v\n", k, v)
	}
	w.Flush()
}

// Tenant commands
func listTenants(path string) {
	req, _ := http.NewRequest("GET", getAPIURL()+path, nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var tenants []map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&tenants)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tHOUSE\tSTATUS\tMOVE-IN\tCONTRACT-END")
	for _, t := range tenants {
		fmt.Fprintf(w, "%v\t%v\t%v\t%v\t%v\n", t["id"], t["house_id"], t["status"], t["move_in_date"], t["contract_end"])
	}
	w.Flush()
}

// Helper functions
func getAPIURL() string {
	if url := os.Getenv("ESTATEMAN_API"); url != "" {
		return url
	}
	return "http://localhost:8080/api"
}

func tokenFile() string {
	home, _ := os.UserHomeDir()
	return home + "/.estateman/token"
}

func saveToken(token string) error {
	home, _ := os.UserHomeDir()
	os.MkdirAll(home+"/.estateman", 0700)
	return os.WriteFile(tokenFile(), []byte(token), 0600)
}

func loadToken() string {
	data, _ := os.ReadFile(tokenFile())
	return string(data)
}

func addAuthHeader(req *http.Request) {
	token := loadToken()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func printUsage() {
	fmt.Print(`EstateMan CLI

Usage:
  estateman <command> [options]

Commands:
  auth     Authentication (login, logout, who)
  houses   House listings (list, vacant, stats)
  tenants  Tenant listings (list, expiring)
  sync     Reconciliation jobs run directly against the database (houses)
  help     Show this help message

Environment Variables:
  ESTATEMAN_API    API endpoint (default: http://localhost:8080/api)

Examples:
  estateman auth login -username admin -password pass
  estateman houses vacant
  estateman tenants expiring
  estateman sync houses
`)
}
