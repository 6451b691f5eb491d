package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/factchecker/claimradar/internal/verify"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	checkInputID   string
	checkResources []string
)

var checkCmd = &cobra.Command{
	Use:   "check [text...]",
	Short: "Verify text from arguments or stdin and print the result as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		if text == "" {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			text = string(data)
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		svc, err := buildServices(cfg)
		if err != nil {
			return err
		}
		defer svc.Close()

		inputID := checkInputID
		if inputID == "" {
			inputID = uuid.New().String()
		}

		result, err := svc.engine.Verify(cmd.Context(), verify.Request{
			InputID:   inputID,
			Text:      text,
			Resources: checkResources,
		})
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	checkCmd.Flags().StringVar(&checkInputID, "input-id", "", "input identifier (default: random UUID)")
	checkCmd.Flags().StringSliceVarP(&checkResources, "resource", "r", nil, "trusted resource URL (repeatable)")
}
