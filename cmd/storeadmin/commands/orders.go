package commands

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/storeadmin/internal/constants"
	"github.com/fivetwenty-io/storeadmin/pkg/admin"
	"github.com/fivetwenty-io/storeadmin/pkg/listcache"
)

const ordersResource = "orders"

func ordersGetter(client admin.Client) (admin.ResourceClient, error) {
	return client.Orders(), nil
}

// NewOrdersCommand creates the orders command group.
func NewOrdersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     ordersResource,
		Aliases: []string{"order"},
		Short:   "Manage orders",
		Long:    "List and filter orders, view statistics and move orders through their status lifecycle",
	}

	cmd.AddCommand(newOrdersListCommand())
	cmd.AddCommand(newGetCommand(ordersResource, ordersGetter))
	cmd.AddCommand(newOrdersCreateCommand())
	cmd.AddCommand(newUpdateCommand(ordersResource, ordersGetter, false))
	cmd.AddCommand(newUpdateCommand(ordersResource, ordersGetter, true))
	cmd.AddCommand(newDeleteCommand(ordersResource, ordersGetter))
	cmd.AddCommand(newOrdersStatsCommand())
	cmd.AddCommand(newOrdersStatusCommand())
	cmd.AddCommand(newOrdersByPhoneCommand())

	return cmd
}

func newOrdersListCommand() *cobra.Command {
	var (
		search    string
		status    string
		from      string
		to        string
		withStats bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List orders",
		Long: `List orders, optionally filtered.

--search matches customer name, email and phone and the order number.
--from and --to take YYYY-MM-DD and are both inclusive, in the configured
timezone.`,
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := normalizeStatus(status, true)
			if err != nil {
				return err
			}

			return withResource(cmd, ordersGetter, func(ctx context.Context, sess *session, _ admin.ResourceClient) error {
				cache := listcache.NewOrders(ctx, sess.client.Orders(),
					listcache.WithAutoFetch(false),
					listcache.WithLogger(sess.logger),
					listcache.WithLocation(sess.location),
				)

				err := cache.SetDateRange(from, to)
				if err != nil {
					return err
				}

				cache.SetStatusFilter(status)
				cache.Search(search)

				if withStats {
					err = cache.Refresh(ctx)
				} else {
					err = cache.Refetch(ctx)
				}

				if err != nil {
					return err
				}

				snapshot := cache.Snapshot()
				reportWarnings(cmd.ErrOrStderr(), snapshot.Warnings)

				err = renderList(cmd.OutOrStdout(), ordersResource, snapshot.Items)
				if err != nil || !withStats {
					return err
				}

				stats, _ := cache.Stats()

				return renderStats(cmd.OutOrStdout(), stats)
			})
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "filter by customer or order number")
	cmd.Flags().StringVar(&status, "status", "", "only orders in this status")
	cmd.Flags().StringVar(&from, "from", "", "only orders placed on or after this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "only orders placed on or before this date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&withStats, "stats", false, "also show order statistics")

	return cmd
}

func newOrdersCreateCommand() *cobra.Command {
	var (
		data    string
		file    string
		retries int
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an order",
		Long: `Create an order from a JSON or YAML document.

A six digit orderId is generated when the document has none, and generated
again when the backend reports it as a duplicate.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := readData(cmd.InOrStdin(), data, file)
			if err != nil {
				return err
			}

			return withResource(cmd, ordersGetter, func(ctx context.Context, _ *session, source admin.ResourceClient) error {
				record, err := admin.CreateOrderWithRetry(ctx, source, payload, retries)
				if err != nil {
					return err
				}

				return renderRecord(cmd.OutOrStdout(), record)
			})
		},
	}

	addDataFlags(cmd, &data, &file)
	cmd.Flags().IntVar(&retries, "retries", constants.DefaultOrderCreateRetries, "attempts when the generated order id collides")

	return cmd
}

func newOrdersStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show order statistics",
		Long:  "Display order totals, revenue and the per status breakdown",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withResource(cmd, ordersGetter, func(ctx context.Context, sess *session, _ admin.ResourceClient) error {
				stats, err := sess.client.Orders().GetStats(ctx)
				if err != nil {
					return err
				}

				return renderStats(cmd.OutOrStdout(), stats)
			})
		},
	}
}

func newOrdersStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status ID STATUS",
		Short: "Change the status of an order",
		Long:  "Move an order to STATUS, one of " + strings.Join(admin.OrderStatuses, ", "),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := normalizeStatus(args[1], false)
			if err != nil {
				return err
			}

			return withResource(cmd, ordersGetter, func(ctx context.Context, sess *session, _ admin.ResourceClient) error {
				record, err := sess.client.Orders().UpdateStatus(ctx, args[0], status)
				if err != nil {
					return err
				}

				return renderRecord(cmd.OutOrStdout(), record)
			})
		},
	}
}

func newOrdersByPhoneCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "by-phone PHONE",
		Short: "List the orders of a customer",
		Long:  "List every order placed with the given customer phone number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withResource(cmd, ordersGetter, func(ctx context.Context, sess *session, _ admin.ResourceClient) error {
				result, err := sess.client.Orders().GetByPhone(ctx, args[0])
				if err != nil {
					return err
				}

				reportWarnings(cmd.ErrOrStderr(), result.Warnings)

				return renderList(cmd.OutOrStdout(), ordersResource, result.Data)
			})
		},
	}
}

// normalizeStatus upper-cases status and checks it is a known order status.
func normalizeStatus(status string, allowEmpty bool) (string, error) {
	status = strings.ToUpper(strings.TrimSpace(status))
	if status == "" && allowEmpty {
		return "", nil
	}

	if !slices.Contains(admin.OrderStatuses, status) {
		return "", fmt.Errorf("%w: %q, expected one of %s",
			constants.ErrInvalidStatus, status, strings.Join(admin.OrderStatuses, ", "))
	}

	return status, nil
}

func renderStats(w io.Writer, stats *admin.OrderStats) error {
	if stats == nil {
		_, _ = fmt.Fprintln(w, "Order statistics unavailable")

		return nil
	}

	format := outputFormat()
	if format != constants.FormatTable {
		return renderValue(w, format, stats)
	}

	table := tablewriter.NewWriter(w)
	table.Header("Property", "Value")
	_ = table.Append([]string{"Total Orders", strconv.FormatInt(stats.TotalOrders, 10)})
	_ = table.Append([]string{"Total Revenue", stats.TotalRevenue.StringFixed(2)})
	_ = table.Append([]string{"Average Order Value", stats.AverageOrderValue.StringFixed(2)})

	for _, status := range admin.OrderStatuses {
		_ = table.Append([]string{status, strconv.FormatInt(stats.CountFor(status), 10)})
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}
