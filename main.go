package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/cardtracker/cardtracker/config"
	"github.com/cardtracker/cardtracker/database"
	"github.com/cardtracker/cardtracker/database/model"
	"github.com/cardtracker/cardtracker/logger"
	"github.com/cardtracker/cardtracker/web"
	"github.com/cardtracker/cardtracker/web/service"

	"github.com/spf13/cobra"
)

func initLogger() {
	level, err := logger.ParseLevel(config.GetLogLevel())
	if err != nil {
		log.Fatal(err)
	}
	logger.InitLogger(level)
}

func initDB() error {
	return database.InitDB(config.GetDatabaseConfig())
}

func runWebServer() {
	log.Printf("%v %v", config.GetName(), config.GetVersion())
	initLogger()
	defer logger.CloseLogger()

	if err := initDB(); err != nil {
		log.Fatal(err)
	}
	defer database.CloseDB()

	server := web.NewServer()
	if err := server.Start(); err != nil {
		logger.Error("start server err:", err)
		return
	}

	sigCh := make(chan os.Signal, 1)
	// Trap shutdown signals
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGINT)
	for {
		sig := <-sigCh

		switch sig {
		case syscall.SIGHUP:
			logger.Info("Received SIGHUP, restarting")
			if err := server.Stop(); err != nil {
				logger.Warning("stop server err:", err)
			}
			server = web.NewServer()
			if err := server.Start(); err != nil {
				logger.Error("restart server err:", err)
				return
			}
		default:
			logger.Info("Received ", sig, ", shutting down")
			if err := server.Stop(); err != nil {
				logger.Warning("stop server err:", err)
			}
			return
		}
	}
}

func migrateDb() {
	if err := initDB(); err != nil {
		fmt.Println("migrate failed:", err)
		os.Exit(1)
	}
	defer database.CloseDB()
	fmt.Println("migration done")
}

func promoteUser(username string) {
	if err := initDB(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer database.CloseDB()

	userService := service.UserService{}
	if err := userService.GrantRole(username, model.RoleAdmin); err != nil {
		fmt.Printf("promote %s failed: %v\n", username, err)
		os.Exit(1)
	}
	fmt.Printf("%s is now an admin\n", username)
}

func main() {
	if err := config.Load(); err != nil {
		fmt.Println("load config failed:", err)
		os.Exit(1)
	}

	rootCmd := &cobra.Command{
		Use:   config.GetName(),
		Short: "Card collection tracker",
		Run: func(cmd *cobra.Command, args []string) {
			runWebServer()
		},
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the web server",
		Run: func(cmd *cobra.Command, args []string) {
			runWebServer()
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migrate the database schema and exit",
		Run: func(cmd *cobra.Command, args []string) {
			migrateDb()
		},
	}

	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}
	promoteCmd := &cobra.Command{
		Use:   "promote <username>",
		Short: "Grant the admin role to a user",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			promoteUser(args[0])
		},
	}
	userCmd.AddCommand(promoteCmd)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(config.GetName(), config.GetVersion())
		},
	}

	rootCmd.AddCommand(runCmd, migrateCmd, userCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
