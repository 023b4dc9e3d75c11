package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	_ "sistema-vacunacion/docs" // Swagger docs
)

// @title Sistema de Vacunación API
// @version 1.0
// @description Vaccination records API for a pediatric hospital: patients, vaccines, dose schedules and administered doses.
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email soporte@hospital.local

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

var envFile string

var rootCmd = &cobra.Command{
	Use:   "vacunacion",
	Short: "Vaccination records service",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if envFile == "" {
			return
		}
		if err := godotenv.Overload(envFile); err != nil {
			log.Printf("⚠️ Error loading %s, skipping: %v", envFile, err)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "env file overriding the process environment")
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalln(err.Error())
	}
}
