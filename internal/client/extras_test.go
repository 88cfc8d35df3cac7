package client

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/storeadmin/pkg/admin"
)

func TestGrainsClient(t *testing.T) {
	t.Parallel()

	client, notifier := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/grains/all":
			writeJSON(t, w, http.StatusOK, map[string]interface{}{"success": true, "data": []map[string]interface{}{{"id": 1}, {"id": 2, "isActive": false}}})
		case r.Method == http.MethodGet && r.URL.Path == "/grains/stats":
			writeJSON(t, w, http.StatusOK, map[string]interface{}{"success": true, "data": map[string]interface{}{"total": 2, "active": 1}})
		case r.Method == http.MethodPatch && r.URL.Path == "/grains/2/deactivate":
			writeJSON(t, w, http.StatusOK, map[string]interface{}{"id": 2, "isActive": false})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	ctx := context.Background()

	all, err := client.Grains().GetAllIncludingInactive(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all.Data, 2)

	stats, err := client.Grains().GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2", stats.String("total"))

	record, err := client.Grains().Deactivate(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, false, record["isActive"])
	assert.Equal(t, "Grain deactivated successfully", notifier.last().Message)

	_, err = client.Grains().Deactivate(ctx, "9")
	require.EqualError(t, err, "Failed to deactivate Grain")
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestCouponsClient_Validate(t *testing.T) {
	t.Parallel()

	t.Run("valid coupon", func(t *testing.T) {
		t.Parallel()

		client, notifier := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/coupons/validate", r.URL.Path)

			body := decodeBody(t, r)
			assert.Equal(t, "SAVE10", body["code"])
			assert.InDelta(t, 250.5, body["orderAmount"], 0.0001)
			assert.Equal(t, []interface{}{}, body["items"])

			writeJSON(t, w, http.StatusOK, map[string]interface{}{
				"success":        true,
				"valid":          true,
				"coupon":         map[string]interface{}{"id": 3, "code": "SAVE10"},
				"discountAmount": 25.05,
				"message":        "Coupon applied",
			})
		})

		result, err := client.Coupons().Validate(context.Background(), &admin.CouponValidationRequest{
			Code:        "SAVE10",
			OrderAmount: decimal.RequireFromString("250.50"),
		})
		require.NoError(t, err)
		assert.True(t, result.Valid)
		assert.True(t, decimal.RequireFromString("25.05").Equal(result.DiscountAmount))
		assert.Equal(t, "3", result.Coupon.ID())
		assert.Empty(t, notifier.all())
	})

	t.Run("rejected coupon is not an error", func(t *testing.T) {
		t.Parallel()

		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusOK, map[string]interface{}{"success": false, "error": "EXPIRED"})
		})

		result, err := client.Coupons().Validate(context.Background(), &admin.CouponValidationRequest{Code: "OLD"})
		require.NoError(t, err)
		assert.False(t, result.Valid)
		assert.Equal(t, "Invalid coupon", result.Message)
		assert.Equal(t, "EXPIRED", result.ErrorCode)
	})

	t.Run("backend error keeps its code", func(t *testing.T) {
		t.Parallel()

		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusBadRequest, map[string]string{"error": "MIN_ORDER", "message": "Minimum order is 500"})
		})

		result, err := client.Coupons().Validate(context.Background(), &admin.CouponValidationRequest{Code: "BIG"})
		require.Error(t, err)
		require.NotNil(t, result)
		assert.False(t, result.Valid)
		assert.Equal(t, "Minimum order is 500", result.Message)
		assert.Equal(t, "MIN_ORDER", result.ErrorCode)
	})

	t.Run("network failure", func(t *testing.T) {
		t.Parallel()

		client, notifier := unreachableClient(t)

		result, err := client.Coupons().Validate(context.Background(), &admin.CouponValidationRequest{Code: "ANY"})
		require.Error(t, err)
		require.NotNil(t, result)
		assert.Equal(t, "Failed to validate coupon", result.Message)
		assert.Equal(t, admin.CouponErrorNetwork, result.ErrorCode)
		assert.Empty(t, notifier.all())
	})
}

func TestCouponsClient_Apply(t *testing.T) {
	t.Parallel()

	client, notifier := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		if body["couponId"] == "bad" {
			writeJSON(t, w, http.StatusOK, map[string]interface{}{"success": false, "message": "Usage limit reached"})

			return
		}

		writeJSON(t, w, http.StatusOK, map[string]interface{}{"success": true, "data": map[string]interface{}{"id": 44}})
	})

	record, err := client.Coupons().Apply(context.Background(), &admin.CouponApplyRequest{CouponID: "3", OrderID: "123456"})
	require.NoError(t, err)
	assert.Equal(t, "44", record.ID())
	assert.Equal(t, "Coupon applied successfully", notifier.last().Message)

	_, err = client.Coupons().Apply(context.Background(), &admin.CouponApplyRequest{CouponID: "bad"})
	require.EqualError(t, err, "Usage limit reached")
	require.ErrorIs(t, err, admin.ErrCouponNotApplied)
}

func TestCouponsClient_AdditionalItemCoupons(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coupons/additional-items/available", r.URL.Path)
		assert.Equal(t, "999.99", r.URL.Query().Get("orderAmount"))
		writeJSON(t, w, http.StatusOK, map[string]interface{}{"success": true, "data": []map[string]interface{}{{"id": 1}}})
	})

	result, err := client.Coupons().AdditionalItemCoupons(context.Background(), decimal.RequireFromString("999.99"))
	require.NoError(t, err)
	assert.Len(t, result.Data, 1)
}

func TestPromosClient_Reorder(t *testing.T) {
	t.Parallel()

	client, notifier := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/promos/reorder", r.URL.Path)

		body := decodeBody(t, r)
		assert.Equal(t, []interface{}{
			map[string]interface{}{"id": float64(3), "order": float64(1)},
			map[string]interface{}{"id": "summer-banner", "order": float64(2)},
			map[string]interface{}{"id": float64(1), "order": float64(3)},
		}, body["promos"])

		writeJSON(t, w, http.StatusOK, map[string]bool{"success": true})
	})

	require.NoError(t, client.Promos().Reorder(context.Background(), []string{"3", "summer-banner", "1"}))
	assert.Equal(t, notification{"Promo order updated successfully", admin.NotificationSuccess}, notifier.last())
}

func TestAuthClient(t *testing.T) {
	t.Parallel()

	expiry := time.Now().Add(time.Hour).Truncate(time.Second)

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": expiry.Unix()}).
		SignedString([]byte("backend-secret"))
	require.NoError(t, err)

	client, notifier := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)

		switch r.URL.Path {
		case "/auth/admin/login":
			if body["password"] != "correct" {
				writeJSON(t, w, http.StatusUnauthorized, map[string]interface{}{"success": false, "message": "Invalid credentials"})

				return
			}

			assert.Equal(t, "admin", body["username"])
			writeJSON(t, w, http.StatusOK, map[string]interface{}{"success": true, "token": signed})
		case "/auth/admin/signup":
			assert.Equal(t, "s3cret", body["secretCode"])
			writeJSON(t, w, http.StatusOK, map[string]interface{}{"success": false})
		}
	})

	ctx := context.Background()

	_, err = client.Auth().Login(ctx, "admin", "wrong")
	require.EqualError(t, err, "Invalid credentials")
	assert.False(t, client.Auth().LoggedIn())

	token, err := client.Auth().Login(ctx, "admin", "correct")
	require.NoError(t, err)
	assert.True(t, expiry.Equal(token.ExpiresAt))
	assert.True(t, client.Auth().LoggedIn())

	_, err = client.Auth().Signup(ctx, &admin.SignupRequest{Username: "new", Email: "n@example.com", Password: "pw", SecretCode: "s3cret"})
	require.EqualError(t, err, "Signup failed")
	require.ErrorIs(t, err, admin.ErrSignupFailed)
	assert.Equal(t, notification{"Signup failed", admin.NotificationError}, notifier.last())

	client.Auth().Logout()
	assert.False(t, client.Auth().LoggedIn())
}
