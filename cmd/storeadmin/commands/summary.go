package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/storeadmin/internal/constants"
	"github.com/fivetwenty-io/storeadmin/pkg/admin"
)

// NewSummaryCommand creates the dashboard summary command.
func NewSummaryCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "summary",
		Aliases: []string{"dashboard"},
		Short:   "Show the dashboard summary",
		Long: `Show totals, revenue, the order status distribution, low stock items and
the most recent orders.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, sess *session) error {
				summary, err := sess.client.Summary(ctx)
				if err != nil {
					return err
				}

				format := outputFormat()
				if format != constants.FormatTable {
					return renderValue(cmd.OutOrStdout(), format, summary)
				}

				return renderSummary(cmd.OutOrStdout(), summary)
			})
		},
	}
}

func renderSummary(w io.Writer, summary *admin.DashboardSummary) error {
	totals := tablewriter.NewWriter(w)
	totals.Header("Metric", "Value")
	_ = totals.Append([]string{"Users", strconv.Itoa(summary.Users)})
	_ = totals.Append([]string{"Products", strconv.Itoa(summary.Products)})
	_ = totals.Append([]string{"Orders", strconv.Itoa(summary.Orders)})
	_ = totals.Append([]string{"Revenue", summary.Revenue.StringFixed(2)})

	if err := totals.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	if len(summary.StatusDistribution) > 0 {
		_, _ = fmt.Fprintln(w, "\nOrder status:")

		statuses := tablewriter.NewWriter(w)
		statuses.Header("Status", "Count", "Share")

		for _, share := range summary.StatusDistribution {
			_ = statuses.Append([]string{share.Status, strconv.Itoa(share.Count), share.Percentage.String() + "%"})
		}

		if err := statuses.Render(); err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}
	}

	switch {
	case summary.InventoryUnavailable:
		_, _ = fmt.Fprintln(w, "\nLow stock: inventory unavailable")
	case len(summary.LowStock) > 0:
		_, _ = fmt.Fprintln(w, "\nLow stock:")

		stock := tablewriter.NewWriter(w)
		stock.Header("Product ID", "Product", "Available")

		for _, item := range summary.LowStock {
			_ = stock.Append([]string{item.ProductID, item.ProductName, strconv.FormatInt(item.AvailableStock, 10)})
		}

		if err := stock.Render(); err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}
	}

	if len(summary.RecentOrders) > 0 {
		_, _ = fmt.Fprintln(w, "\nRecent orders:")

		return renderList(w, ordersResource, summary.RecentOrders)
	}

	return nil
}
