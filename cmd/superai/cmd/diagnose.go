package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/xela07ax/superai/internal/domain"
	"github.com/xela07ax/superai/internal/engine"
)

// diagnoseCmd represents the diagnose command
var diagnoseCmd = &cobra.Command{
	Use:   "diagnose",
	Short: "Run a single AI supervisor analysis and print the result",
	Long: `Run the supervisor-diagnose pipeline once, without the HTTP server.
Agent and incident data are JSON objects, given inline or as @file.

Examples:
  superai diagnose --type health-check --agent '{"name":"Chat Agent","successRate":84,"latency":245}'
  superai diagnose --type diagnose --agent @agent.json --incident @incident.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		analysisType, _ := cmd.Flags().GetString("type")
		agentArg, _ := cmd.Flags().GetString("agent")
		incidentArg, _ := cmd.Flags().GetString("incident")

		req := domain.AnalysisRequest{AnalysisType: domain.AnalysisType(analysisType)}
		if agentArg != "" {
			req.AgentData = &domain.AgentData{}
			if err := decodeArg(agentArg, req.AgentData); err != nil {
				return fmt.Errorf("--agent: %w", err)
			}
		}
		if incidentArg != "" {
			req.IncidentData = &domain.IncidentData{}
			if err := decodeArg(incidentArg, req.IncidentData); err != nil {
				return fmt.Errorf("--incident: %w", err)
			}
		}

		cfg, logger, err := loadConfigAndLogger()
		if err != nil {
			return err
		}
		defer logger.Sync()

		ctx := engine.WithTraceID(context.Background(), uuid.New().String())
		a, err := buildApp(ctx, cfg, logger, false)
		if err != nil {
			return err
		}
		defer a.close()

		result, err := a.diagnosis.Diagnose(ctx, req)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

// decodeArg читает JSON из строки или из файла (@path).
func decodeArg(arg string, dst interface{}) error {
	raw := []byte(arg)
	if path, ok := strings.CutPrefix(arg, "@"); ok {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		raw = data
	}
	return json.Unmarshal(raw, dst)
}

func init() {
	diagnoseCmd.Flags().String("type", string(domain.AnalysisDiagnose), "analysis type: diagnose, suggest-fix, health-check")
	diagnoseCmd.Flags().String("agent", "", "agent data as JSON or @file")
	diagnoseCmd.Flags().String("incident", "", "incident data as JSON or @file")
}
