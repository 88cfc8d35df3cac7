package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"github.com/fivetwenty-io/storeadmin/internal/http"
	"github.com/fivetwenty-io/storeadmin/pkg/admin"
)

// CouponsClient implements admin.CouponsClient.
type CouponsClient struct {
	*ResourceClient
}

// NewCouponsClient creates a new coupons client.
func NewCouponsClient(httpClient *http.Client, notifier admin.Notifier, logger admin.Logger) *CouponsClient {
	return &CouponsClient{
		ResourceClient: NewResourceClient(httpClient, ResourceDefinition{Entity: "Coupon", Path: "/coupons"}, notifier, logger),
	}
}

// Validate implements admin.CouponsClient.Validate. An invalid coupon is a
// result, not an error; only transport failures return a non-nil error.
// Validation is silent: it never notifies.
func (c *CouponsClient) Validate(ctx context.Context, req *admin.CouponValidationRequest) (*admin.CouponValidation, error) {
	items := req.Items
	if items == nil {
		items = []admin.Record{}
	}

	resp, err := c.httpClient.Post(ctx, c.def.Path+"/validate", map[string]any{
		"code":        req.Code,
		"orderAmount": money(req.OrderAmount),
		"userId":      req.UserID,
		"items":       items,
	})
	if err != nil {
		result := &admin.CouponValidation{Message: "Failed to validate coupon", ErrorCode: admin.CouponErrorNetwork}

		respErr := &admin.ResponseError{}
		if errors.As(err, &respErr) {
			body := gjson.ParseBytes(respErr.Body)
			if msg := body.Get("message"); msg.Type == gjson.String && msg.Str != "" {
				result.Message = msg.Str
			}

			if code := body.Get("error"); code.Type == gjson.String && code.Str != "" {
				result.ErrorCode = code.Str
			}
		}

		return result, newOperationError("validate", c.def.Entity, result.Message, err)
	}

	body := gjson.ParseBytes(resp.Body)
	if !body.Get("success").Bool() {
		message := body.Get("message").String()
		if message == "" {
			message = "Invalid coupon"
		}

		return &admin.CouponValidation{Message: message, ErrorCode: body.Get("error").String()}, nil
	}

	result := &admin.CouponValidation{
		Valid:          body.Get("valid").Bool(),
		DiscountAmount: decimalOf(body.Get("discountAmount")),
		Message:        body.Get("message").String(),
	}

	if coupon := body.Get("coupon"); coupon.IsObject() {
		result.Coupon, _ = admin.DecodeRecord(c.def.Entity, []byte(coupon.Raw))
	}

	return result, nil
}

// Apply implements admin.CouponsClient.Apply.
func (c *CouponsClient) Apply(ctx context.Context, req *admin.CouponApplyRequest) (admin.Record, error) {
	resp, err := c.httpClient.Post(ctx, c.def.Path+"/apply", map[string]any{
		"couponId":        req.CouponID,
		"orderId":         req.OrderID,
		"userId":          req.UserID,
		"orderAmount":     money(req.OrderAmount),
		"discountApplied": money(req.DiscountApplied),
	})
	if err != nil {
		return nil, c.fail("apply", "Failed to apply coupon", err)
	}

	body := gjson.ParseBytes(resp.Body)
	if !body.Get("success").Bool() {
		message := body.Get("message").String()
		if message == "" {
			message = "Failed to apply coupon"
		}

		return nil, &admin.OperationError{Op: "apply", Entity: c.def.Entity, Message: message, Err: admin.ErrCouponNotApplied}
	}

	message := body.Get("message").String()
	if message == "" {
		message = "Coupon applied successfully"
	}

	c.notifier.Notify(message, admin.NotificationSuccess)

	record, _ := admin.DecodeRecord(c.def.Entity, []byte(body.Get("data").Raw))

	return record, nil
}

// AdditionalItemCoupons implements admin.CouponsClient.AdditionalItemCoupons.
func (c *CouponsClient) AdditionalItemCoupons(ctx context.Context, orderValue decimal.Decimal) (admin.ListResult, error) {
	query := url.Values{"orderAmount": []string{orderValue.String()}}

	resp, err := c.httpClient.Get(ctx, c.def.Path+"/additional-items/available", query)
	if err != nil {
		return admin.EmptyList(), c.fail("additionalItemCoupons", "Failed to fetch additional item coupons", err)
	}

	if !gjson.GetBytes(resp.Body, "success").Bool() {
		return admin.EmptyList(), nil
	}

	return c.decodeList(resp.Body), nil
}

// money renders an amount as a JSON number rather than decimal's default
// quoted string.
func money(amount decimal.Decimal) json.Number {
	return json.Number(amount.String())
}

func decimalOf(value gjson.Result) decimal.Decimal {
	if !value.Exists() || value.Type == gjson.Null {
		return decimal.Zero
	}

	raw := value.Raw
	if value.Type == gjson.String {
		raw = value.Str
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}

	return d
}
