// cascade-sim runs the in-process cascade simulator as a standalone server,
// so suites and ad-hoc clients can target it over the network.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"gocascade/internal/simulator"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	var port int

	rootCmd := &cobra.Command{
		Use:   "cascade-sim",
		Short: "Serve a simulated cascade analytics server",
		Long: `Serve the in-process simulator over HTTP.

The simulator speaks the same v3 REST surface as a real cascade server:
frames, column statistics, GBM/GLM training, and predictions, with the
same error envelope. It keeps everything in memory.

Example: cascade-sim --port 54321`,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr := fmt.Sprintf(":%d", port)
			log.Printf("[Simulator] Listening on %s", addr)
			return simulator.New().Run(addr)
		},
	}

	rootCmd.Flags().IntVar(&port, "port", 54321, "Port to listen on")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
