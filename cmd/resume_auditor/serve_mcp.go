package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/jonathan/resume-auditor/internal/tool"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
)

// serverVersion is reported to MCP clients during initialization.
const serverVersion = "v1.0.0"

var serveMCPCommand = &cobra.Command{
	Use:   "serve-mcp",
	Short: "Serve the audit_candidate tool over MCP stdio",
	Long: `Starts a Model Context Protocol server on stdin/stdout exposing the
audit_candidate tool. Each call runs one audit with the same retry policy as
the audit command. Logs go to stderr so they never corrupt the protocol stream.`,
	RunE: runServeMCP,
}

var serveMCPResumeDir string

func init() {
	serveMCPCommand.Flags().StringVar(&serveMCPResumeDir, "resume-dir", "", "Directory clients may name résumé files from via resume_path (default: resume_path disabled)")
	rootCmd.AddCommand(serveMCPCommand)
}

func runServeMCP(cmd *cobra.Command, _ []string) error {
	cfg, err := loadSettings(cmd, nil)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	svc, err := buildServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	log.SetOutput(os.Stderr)

	server := newMCPServer(svc.job, cfg.MaxDocumentBytes, serveMCPResumeDir)
	if cfg.Verbose {
		log.Printf("[MCP] serving %s on stdio", tool.MetadataAuditCandidate.Name)
	}
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		return fmt.Errorf("mcp server stopped: %w", err)
	}
	return nil
}

func newMCPServer(auditor tool.Auditor, maxDocumentBytes int64, resumeDir string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "resume-auditor", Version: serverVersion}, nil)
	handler := tool.NewAudit(auditor)
	handler.ResumeDir = resumeDir
	if maxDocumentBytes > 0 {
		handler.MaxDocumentBytes = maxDocumentBytes
	}
	handler.Register(server)
	return server
}
