package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// NewWorkflowCmd создаёт группу команд для управления workflows.
func NewWorkflowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workflow",
		Short: "Manage workflows",
	}

	cmd.AddCommand(
		newWorkflowListCmd(clientFn, outputFn),
		newWorkflowCreateCmd(clientFn, outputFn),
		newWorkflowShowCmd(clientFn, outputFn),
		newWorkflowUpdateCmd(clientFn, outputFn),
		newWorkflowDeleteCmd(clientFn, outputFn),
		newWorkflowValidateCmd(clientFn, outputFn),
	)

	return cmd
}

func newWorkflowListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all workflows",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			workflows, err := client.ListWorkflows()
			if err != nil {
				return err
			}

			headers := []string{"ID", "NAME", "WEBHOOK", "CREATED"}
			rows := make([][]string, len(workflows))
			for i, wf := range workflows {
				rows[i] = []string{wf.ID, wf.Name, wf.WebhookSlug, wf.CreatedAt}
			}

			out.Print(headers, rows, workflows)
			return nil
		},
	}
}

func newWorkflowCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var name string
	var webhookSlug string
	var graphFile string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new workflow from a graph file",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			graph, err := readGraphFile(graphFile)
			if err != nil {
				return err
			}

			wf, err := client.CreateWorkflow(CreateWorkflowRequest{
				Name:        name,
				WebhookSlug: webhookSlug,
				Graph:       graph,
			})
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Workflow created: %s", wf.ID))
			out.Print(
				[]string{"ID", "NAME", "WEBHOOK", "CREATED"},
				[][]string{{wf.ID, wf.Name, wf.WebhookSlug, wf.CreatedAt}},
				wf,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Workflow name (required)")
	cmd.Flags().StringVar(&webhookSlug, "webhook-slug", "", "Webhook slug for external triggering")
	cmd.Flags().StringVar(&graphFile, "graph-file", "", "Path to graph JSON file (required)")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("graph-file")

	return cmd
}

func newWorkflowShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show workflow details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			wf, err := client.GetWorkflow(args[0])
			if err != nil {
				return err
			}

			out.Print(
				[]string{"ID", "NAME", "WEBHOOK", "CREATED"},
				[][]string{{wf.ID, wf.Name, wf.WebhookSlug, wf.CreatedAt}},
				wf,
			)
			return nil
		},
	}
}

func newWorkflowUpdateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var name string
	var webhookSlug string
	var graphFile string

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update a workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			req := UpdateWorkflowRequest{}
			if cmd.Flags().Changed("name") {
				req.Name = &name
			}
			if cmd.Flags().Changed("webhook-slug") {
				req.WebhookSlug = &webhookSlug
			}
			if cmd.Flags().Changed("graph-file") {
				graph, err := readGraphFile(graphFile)
				if err != nil {
					return err
				}
				req.Graph = graph
			}

			wf, err := client.UpdateWorkflow(args[0], req)
			if err != nil {
				return err
			}

			out.Success("Workflow updated")
			out.Print(
				[]string{"ID", "NAME", "WEBHOOK", "CREATED"},
				[][]string{{wf.ID, wf.Name, wf.WebhookSlug, wf.CreatedAt}},
				wf,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New workflow name")
	cmd.Flags().StringVar(&webhookSlug, "webhook-slug", "", "New webhook slug")
	cmd.Flags().StringVar(&graphFile, "graph-file", "", "Path to new graph JSON file")

	return cmd
}

func newWorkflowDeleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.DeleteWorkflow(args[0]); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Workflow deleted: %s", args[0]))
			return nil
		},
	}
}

func newWorkflowValidateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var graphFile string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a graph file without creating a workflow",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			graph, err := readGraphFile(graphFile)
			if err != nil {
				return err
			}

			result, err := client.ValidateGraph(graph)
			if err != nil {
				return err
			}

			if !result.Valid {
				out.Error(fmt.Sprintf("graph is invalid: %s", result.Error))
				os.Exit(1)
			}

			out.Success("Graph is valid")
			out.Print(
				[]string{"ORDER"},
				[][]string{{strings.Join(result.Order, " -> ")}},
				result,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&graphFile, "graph-file", "", "Path to graph JSON file (required)")
	cmd.MarkFlagRequired("graph-file")

	return cmd
}

// readGraphFile читает файл графа и проверяет что это валидный JSON.
func readGraphFile(path string) (json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph file: %w", err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("graph file is not valid JSON")
	}
	return json.RawMessage(data), nil
}
