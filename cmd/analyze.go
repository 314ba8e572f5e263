package main

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"

	"imageforensics/internal/domain"
	"imageforensics/internal/service"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <folder>",
	Short: "Process a folder locally and print the JSON result",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync()

	svc, err := service.New(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}

	var body any
	results, err := svc.ProcessFolder(cmd.Context(), args[0])
	switch {
	case err == nil:
		body = domain.NewProcessFolderResponse(results)
	case errors.Is(err, domain.ErrFolderNotFound), errors.Is(err, domain.ErrFolderNotAllowed):
		body = domain.ErrorResponse{Error: err.Error()}
	default:
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(body)
}
