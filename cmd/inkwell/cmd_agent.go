package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/user/inkwell/internal/directory"
	"github.com/user/inkwell/internal/types"
)

func init() {
	rootCmd.AddCommand(agentCmd)
	agentCmd.AddCommand(agentAddCmd, agentListCmd, agentRemoveCmd, agentEnableCmd, agentDisableCmd)

	agentAddCmd.Flags().String("id", "", "agent identifier (required)")
	agentAddCmd.Flags().String("endpoint", "", "agent HTTP endpoint (required)")
	agentAddCmd.Flags().String("credential", "", "bearer credential for the endpoint")
	_ = agentAddCmd.MarkFlagRequired("id")
	_ = agentAddCmd.MarkFlagRequired("endpoint")
}

func agentDirectory() *directory.Directory {
	cfg := loadConfig()
	return directory.New(filepath.Join(cfg.DataDir, "agents.json"))
}

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Manage agent endpoints",
}

var agentAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a new agent",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, _ := cmd.Flags().GetString("id")
		endpoint, _ := cmd.Flags().GetString("endpoint")
		credential, _ := cmd.Flags().GetString("credential")

		dir := agentDirectory()
		err := dir.Add(&types.AgentConfig{
			ID:         types.AgentID(id),
			Endpoint:   endpoint,
			Credential: credential,
			Active:     true,
		})
		if err != nil {
			return fmt.Errorf("add agent: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Agent %q added.\n", id)
		return nil
	},
}

var agentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered agents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := agentDirectory()
		agents, err := dir.List()
		if err != nil {
			return fmt.Errorf("list agents: %w", err)
		}

		if len(agents) == 0 {
			fmt.Println("No agents registered.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tENDPOINT\tACTIVE")
		for _, a := range agents {
			fmt.Fprintf(w, "%s\t%s\t%t\n", a.ID, a.Endpoint, a.Active)
		}
		return w.Flush()
	},
}

var agentRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove an agent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := agentDirectory()
		if err := dir.Remove(types.AgentID(args[0])); err != nil {
			return fmt.Errorf("remove agent: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Agent %q removed.\n", args[0])
		return nil
	},
}

var agentEnableCmd = &cobra.Command{
	Use:   "enable <id>",
	Short: "Mark an agent active",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := agentDirectory()
		if err := dir.SetActive(types.AgentID(args[0]), true); err != nil {
			return fmt.Errorf("enable agent: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Agent %q enabled.\n", args[0])
		return nil
	},
}

var agentDisableCmd = &cobra.Command{
	Use:   "disable <id>",
	Short: "Mark an agent inactive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := agentDirectory()
		if err := dir.SetActive(types.AgentID(args[0]), false); err != nil {
			return fmt.Errorf("disable agent: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Agent %q disabled.\n", args[0])
		return nil
	},
}
