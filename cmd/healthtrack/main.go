package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/healthmonitree/healthtrack/internal/app"
	"github.com/healthmonitree/healthtrack/internal/config"
	"github.com/healthmonitree/healthtrack/internal/store"
)

var (
	configPath = flag.String("config", config.GetEnvDefault("HEALTHTRACK_CONFIG", ""), "Path to config file")
	dataDir    = flag.String("data", config.GetEnvDefault("HEALTHTRACK_DATA_DIR", ""), "Path to data directory")
	version    = "dev"
)

func main() {
	// Handle subcommands before flag parsing
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "user":
			handleUserCommand(os.Args[2:])
			return
		case "config":
			handleConfigCommand(os.Args[2:])
			return
		case "version":
			fmt.Printf("healthtrack %s\n", version)
			return
		}
	}

	flag.Parse()
	runServer()
}

func runServer() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.Load(*configPath, *dataDir)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}
	if *configPath != "" {
		if err := config.Watch(*configPath, func(_ *config.Config) {
			logger.Info("config file changed; restart to apply")
		}); err != nil {
			logger.Warn("config watch failed", zap.Error(err))
		}
	}

	st, err := store.New(cfg)
	if err != nil {
		logger.Fatal("Failed to open storage", zap.Error(err))
	}

	application, err := app.New(cfg, st, logger)
	if err != nil {
		logger.Fatal("Failed to build application", zap.Error(err))
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		application.Shutdown()
		os.Exit(0)
	}()

	if err := application.Start(); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func handleUserCommand(args []string) {
	if len(args) == 0 || args[0] != "add" {
		fmt.Println("Usage: healthtrack user add")
		return
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	cfg, err := config.Load(*configPath, *dataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	st, err := store.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open storage: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	reader := bufio.NewReader(os.Stdin)
	fmt.Print("Email: ")
	email, _ := reader.ReadString('\n')
	email = strings.TrimSpace(email)

	fmt.Print("Display name: ")
	name, _ := reader.ReadString('\n')
	name = strings.TrimSpace(name)

	fmt.Print("Password: ")
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read password: %v\n", err)
		os.Exit(1)
	}
	if email == "" || len(password) < 8 {
		fmt.Fprintln(os.Stderr, "email and a password of at least 8 characters are required")
		os.Exit(1)
	}

	existing, err := st.GetUserByEmail(email)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lookup failed: %v\n", err)
		os.Exit(1)
	}
	if existing != nil {
		fmt.Fprintln(os.Stderr, "email already registered")
		os.Exit(1)
	}

	hash, err := bcrypt.GenerateFromPassword(password, bcrypt.DefaultCost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to hash password: %v\n", err)
		os.Exit(1)
	}

	user := &store.User{Email: email, DisplayName: name, PasswordHash: string(hash)}
	if err := st.CreateUser(user); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create user: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Created user %s (%s)\n", user.Email, user.ID)
}

func handleConfigCommand(args []string) {
	if len(args) == 0 || args[0] != "init" {
		fmt.Println("Usage: healthtrack config init [path]")
		return
	}

	path := "healthtrack.yaml"
	if len(args) > 1 {
		path = args[1]
	}
	if err := config.WriteDefault(path); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write config: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote default config to %s\n", path)
}
