package commands

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/storeadmin/internal/constants"
	"github.com/fivetwenty-io/storeadmin/pkg/admin"
)

const (
	grainsResource  = "grains"
	couponsResource = "coupons"
	promosResource  = "promos"
)

// inactiveGrains lists grains through the endpoint that includes inactive
// ones, so list and search see the whole catalogue.
type inactiveGrains struct {
	admin.GrainsClient
}

func (g inactiveGrains) GetAll(ctx context.Context, params map[string]string) (admin.ListResult, error) {
	return g.GetAllIncludingInactive(ctx, params)
}

// NewGrainsCommand creates the grains command group.
func NewGrainsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     grainsResource,
		Aliases: []string{"grain"},
		Short:   "Manage grains",
		Long:    "Manage the grain catalogue. list shows active grains; all includes inactive ones.",
	}

	getter := func(client admin.Client) (admin.ResourceClient, error) { return client.Grains(), nil }
	allGetter := func(client admin.Client) (admin.ResourceClient, error) {
		return inactiveGrains{client.Grains()}, nil
	}

	addCRUDCommands(cmd, grainsResource, getter)

	all := newListCommand(grainsResource, allGetter)
	all.Use = "all"
	all.Aliases = nil
	all.Short = "List grains including inactive ones"
	cmd.AddCommand(all)

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show grain statistics",
		Long:  "Display the grain statistics reported by the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withResource(cmd, getter, func(ctx context.Context, sess *session, _ admin.ResourceClient) error {
				stats, err := sess.client.Grains().GetStats(ctx)
				if err != nil {
					return err
				}

				return renderRecord(cmd.OutOrStdout(), stats)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "deactivate ID",
		Short: "Deactivate a grain",
		Long:  "Mark a grain inactive without deleting it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withResource(cmd, getter, func(ctx context.Context, sess *session, _ admin.ResourceClient) error {
				record, err := sess.client.Grains().Deactivate(ctx, args[0])
				if err != nil {
					return err
				}

				return renderRecord(cmd.OutOrStdout(), record)
			})
		},
	})

	return cmd
}

// NewCouponsCommand creates the coupons command group.
func NewCouponsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     couponsResource,
		Aliases: []string{"coupon"},
		Short:   "Manage coupons",
		Long:    "Manage coupons, validate and apply coupon codes",
	}

	getter := func(client admin.Client) (admin.ResourceClient, error) { return client.Coupons(), nil }

	addCRUDCommands(cmd, couponsResource, getter)
	cmd.AddCommand(newCouponsValidateCommand(getter))
	cmd.AddCommand(newCouponsApplyCommand(getter))
	cmd.AddCommand(newCouponsAdditionalCommand(getter))

	return cmd
}

func newCouponsValidateCommand(getter resourceGetter) *cobra.Command {
	var amount, userID string

	cmd := &cobra.Command{
		Use:   "validate CODE",
		Short: "Validate a coupon code",
		Long:  "Check whether CODE applies to an order of the given amount and show the discount",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orderAmount, err := parseAmount(amount)
			if err != nil {
				return err
			}

			req := &admin.CouponValidationRequest{Code: args[0], OrderAmount: orderAmount}
			if userID != "" {
				req.UserID = &userID
			}

			return withResource(cmd, getter, func(ctx context.Context, sess *session, _ admin.ResourceClient) error {
				validation, err := sess.client.Coupons().Validate(ctx, req)
				if validation == nil {
					return err
				}

				format := outputFormat()
				if format != constants.FormatTable {
					return renderValue(cmd.OutOrStdout(), format, validation)
				}

				out := cmd.OutOrStdout()
				if !validation.Valid {
					_, _ = fmt.Fprintf(out, "Coupon %s is not valid: %s\n", args[0], validation.Message)

					return nil
				}

				_, _ = fmt.Fprintf(out, "Coupon %s is valid, discount %s\n", args[0], validation.DiscountAmount.StringFixed(2))

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "", "order amount")
	cmd.Flags().StringVar(&userID, "user", "", "user the order belongs to")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func newCouponsApplyCommand(getter resourceGetter) *cobra.Command {
	var req admin.CouponApplyRequest

	var amount, discount string

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Record a coupon use",
		Long:  "Record that a coupon was applied to an order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error

			req.OrderAmount, err = parseAmount(amount)
			if err != nil {
				return err
			}

			req.DiscountApplied, err = parseAmount(discount)
			if err != nil {
				return err
			}

			return withResource(cmd, getter, func(ctx context.Context, sess *session, _ admin.ResourceClient) error {
				record, err := sess.client.Coupons().Apply(ctx, &req)
				if err != nil {
					return err
				}

				return renderRecord(cmd.OutOrStdout(), record)
			})
		},
	}

	cmd.Flags().StringVar(&req.CouponID, "coupon", "", "coupon id")
	cmd.Flags().StringVar(&req.OrderID, "order", "", "order id")
	cmd.Flags().StringVar(&req.UserID, "user", "", "user id")
	cmd.Flags().StringVar(&amount, "amount", "", "order amount")
	cmd.Flags().StringVar(&discount, "discount", "", "discount applied")

	for _, name := range []string{"coupon", "order", "amount", "discount"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func newCouponsAdditionalCommand(getter resourceGetter) *cobra.Command {
	var amount string

	cmd := &cobra.Command{
		Use:   "additional",
		Short: "List additional item coupons",
		Long:  "List the additional item coupons available for an order of the given amount",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			orderAmount, err := parseAmount(amount)
			if err != nil {
				return err
			}

			return withResource(cmd, getter, func(ctx context.Context, sess *session, _ admin.ResourceClient) error {
				result, err := sess.client.Coupons().AdditionalItemCoupons(ctx, orderAmount)
				if err != nil {
					return err
				}

				return renderList(cmd.OutOrStdout(), couponsResource, result.Data)
			})
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "", "order amount")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

// NewPromosCommand creates the promos command group.
func NewPromosCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     promosResource,
		Aliases: []string{"promo"},
		Short:   "Manage promos",
		Long:    "Manage promotional banners and their display order",
	}

	getter := func(client admin.Client) (admin.ResourceClient, error) { return client.Promos(), nil }

	addCRUDCommands(cmd, promosResource, getter)

	cmd.AddCommand(&cobra.Command{
		Use:   "reorder ID...",
		Short: "Reorder promos",
		Long:  "Assign display positions 1..n to the given promos in argument order",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withResource(cmd, getter, func(ctx context.Context, sess *session, _ admin.ResourceClient) error {
				err := sess.client.Promos().Reorder(ctx, args)
				if err != nil {
					return err
				}

				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Reordered %d promos\n", len(args))

				return nil
			})
		},
	})

	return cmd
}

// parseAmount reads a non-negative money amount.
func parseAmount(value string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(value)
	if err != nil || amount.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %q", constants.ErrInvalidAmount, value)
	}

	return amount, nil
}
