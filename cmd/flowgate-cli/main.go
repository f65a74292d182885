// flowgate CLI — инструмент командной строки для управления
// flows и blocks через HTTP API.
//
// Использование:
//
//	flowgate [--api-url URL] [--token TOKEN] [--json] <command> [flags]
//
// Команды:
//
//	flow      Управление flows
//	block     Управление определениями blocks
//	execute   Выполнение опубликованного flow
//	logs      Просмотр execution logs
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kosarev/flowgate/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var token string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "flowgate",
		Short:         "flowgate CLI — BFF flow composition tool",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "http://localhost:3003", "API server URL")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("FLOWGATE_TOKEN"), "Bearer token for authoring endpoints")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL, token) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewFlowCmd(clientFn, outputFn),
		cli.NewBlockCmd(clientFn, outputFn),
		cli.NewExecuteCmd(clientFn, outputFn),
		cli.NewLogsCmd(clientFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
