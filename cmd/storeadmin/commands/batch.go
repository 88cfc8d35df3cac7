package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/storeadmin/internal/constants"
	"github.com/fivetwenty-io/storeadmin/pkg/admin"
)

// batchFile is the document accepted by the batch command.
type batchFile struct {
	Operations []admin.BatchOperation `yaml:"operations"`
}

// batchOutcome is the printable form of an admin.BatchResult.
type batchOutcome struct {
	ID       string       `json:"id"              yaml:"id"`
	Success  bool         `json:"success"         yaml:"success"`
	Error    string       `json:"error,omitempty" yaml:"error,omitempty"`
	Duration string       `json:"duration"        yaml:"duration"`
	Data     admin.Record `json:"data,omitempty"  yaml:"data,omitempty"`
}

// NewBatchCommand creates the batch command.
func NewBatchCommand() *cobra.Command {
	var (
		file        string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Run a batch of operations",
		Long: `Run create, update, patch, delete and get operations from a YAML or JSON
file concurrently. Each operation names a resource such as "products":

  operations:
    - id: add-rice
      type: create
      resource: products
      data: {name: Basmati Rice, price: 12.5}
    - id: drop-old
      type: delete
      resource: products
      recordId: "42"

A failed operation does not stop the others. The command fails when any
operation failed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			operations, err := readBatchFile(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}

			return withSession(cmd, func(ctx context.Context, sess *session) error {
				executor := admin.NewBatchExecutor(sess.client, concurrency)
				results := executor.Execute(ctx, operations)

				return renderBatchResults(cmd.OutOrStdout(), results)
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "batch file, - for stdin")
	cmd.Flags().IntVar(&concurrency, "concurrency", constants.DefaultConcurrencyLimit, "operations run at the same time")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func readBatchFile(stdin io.Reader, file string) ([]admin.BatchOperation, error) {
	var (
		content []byte
		err     error
	)

	if file == "-" {
		content, err = io.ReadAll(stdin)
	} else {
		// #nosec G304 -- the path is chosen by the user running the CLI
		content, err = os.ReadFile(file)
	}

	if err != nil {
		return nil, fmt.Errorf("reading batch file: %w", err)
	}

	var doc batchFile

	err = yaml.Unmarshal(content, &doc)
	if err != nil {
		return nil, fmt.Errorf("parsing batch file: %w", err)
	}

	for index := range doc.Operations {
		if doc.Operations[index].ID == "" {
			doc.Operations[index].ID = strconv.Itoa(index + 1)
		}
	}

	return doc.Operations, nil
}

func renderBatchResults(w io.Writer, results []admin.BatchResult) error {
	outcomes := make([]batchOutcome, 0, len(results))
	failed := 0

	for _, result := range results {
		outcome := batchOutcome{
			ID:       result.ID,
			Success:  result.Success,
			Duration: result.Duration.String(),
			Data:     result.Data,
		}

		if result.Error != nil {
			outcome.Error = result.Error.Error()
			failed++
		}

		outcomes = append(outcomes, outcome)
	}

	format := outputFormat()
	if format != constants.FormatTable {
		err := renderValue(w, format, outcomes)
		if err != nil {
			return err
		}
	} else {
		table := tablewriter.NewWriter(w)
		table.Header("ID", "Success", "Error", "Duration")

		for _, outcome := range outcomes {
			_ = table.Append([]string{outcome.ID, strconv.FormatBool(outcome.Success), outcome.Error, outcome.Duration})
		}

		if err := table.Render(); err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", constants.ErrBatchFailed, failed, len(results))
	}

	return nil
}
