package main

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"

	"imageforensics/internal/domain"
)

var (
	submitServer  string
	submitTimeout time.Duration
)

var submitCmd = &cobra.Command{
	Use:   "submit <folder>",
	Short: "Send a folder to a running server for processing",
	Long: "Posts the folder path to /process-folder on a running server. The path is\n" +
		"resolved by the server, so it must be visible on the server's filesystem.",
	Args: cobra.ExactArgs(1),
	RunE: runSubmit,
}

func init() {
	submitCmd.Flags().StringVar(&submitServer, "server", "http://localhost:8080", "server base URL")
	submitCmd.Flags().DurationVar(&submitTimeout, "timeout", 5*time.Minute, "request timeout")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	client := resty.New().
		SetTimeout(submitTimeout).
		SetBaseURL(submitServer).
		SetHeader("Accept", "application/json")

	folder := args[0]
	resp, err := client.R().
		SetContext(cmd.Context()).
		SetBody(domain.ProcessFolderRequest{FolderPath: &folder}).
		Post("/process-folder")
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if _, err := out.Write(resp.Body()); err != nil {
		return err
	}
	fmt.Fprintln(out)

	if resp.IsError() {
		return fmt.Errorf("server returned %s", resp.Status())
	}
	return nil
}
