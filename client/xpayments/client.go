// Package xpayments is a client SDK for the X-Payments Cloud payment API. It
// builds signed HTTP requests for payment operations, serializes structured
// request parameters into the wire body, and returns decoded JSON responses.
package xpayments

import (
	"context"
	"fmt"
)

const (
	controllerPayment       = "payment"
	controllerCustomer      = "customer"
	controllerBulkOperation = "bulk_operation"
)

// CardStatusAny matches saved cards in any status when listing customer cards.
const CardStatusAny = "any"

// Client exposes the X-Payments Cloud controller/action catalog. Responses
// come back as decoded JSON values; this layer enforces no response schema.
type Client struct {
	request *Request
}

// NewClient validates the credentials and creates an API client.
func NewClient(creds Credentials, options ...RequestOption) (*Client, error) {
	request, err := NewRequest(creds, options...)
	if err != nil {
		return nil, err
	}
	return &Client{request: request}, nil
}

// Request returns the underlying signed request sender.
func (c *Client) Request() *Request {
	return c.request
}

// Pay processes a payment.
func (c *Client) Pay(ctx context.Context, params PaymentRequest) (interface{}, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return c.request.Send(ctx, controllerPayment, "pay", params)
}

// TokenizeCard saves a card without charging it.
func (c *Client) TokenizeCard(ctx context.Context, params PaymentRequest) (interface{}, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return c.request.Send(ctx, controllerPayment, "tokenize_card", params)
}

type rebillParams struct {
	XPID        string `json:"xpid"`
	RefID       string `json:"refId"`
	CustomerID  string `json:"customerId"`
	Cart        Cart   `json:"cart"`
	CallbackURL string `json:"callbackUrl"`
}

// Rebill charges the customer's saved card for a previously processed payment.
func (c *Client) Rebill(ctx context.Context, xpid, refID, customerID string, cart Cart, callbackURL string) (interface{}, error) {
	return c.request.Send(ctx, controllerPayment, "rebill", rebillParams{
		XPID:        xpid,
		RefID:       refID,
		CustomerID:  customerID,
		Cart:        cart,
		CallbackURL: callbackURL,
	})
}

type actionParams struct {
	XPID   string `json:"xpid"`
	Amount *int   `json:"amount,omitempty"`
}

// action executes a secondary payment action. The amount field goes on the
// wire only when it is positive; zero means "whole payment" and is omitted.
func (c *Client) action(ctx context.Context, action, xpid string, amount int) (interface{}, error) {
	params := actionParams{XPID: xpid}
	if amount > 0 {
		params.Amount = &amount
	}
	return c.request.Send(ctx, controllerPayment, action, params)
}

// Capture captures a previously authorized payment, in full or in part.
func (c *Client) Capture(ctx context.Context, xpid string, amount int) (interface{}, error) {
	return c.action(ctx, "capture", xpid, amount)
}

// Void cancels a previously authorized payment, in full or in part.
func (c *Client) Void(ctx context.Context, xpid string, amount int) (interface{}, error) {
	return c.action(ctx, "void", xpid, amount)
}

// Refund returns a captured amount to the customer, in full or in part.
func (c *Client) Refund(ctx context.Context, xpid string, amount int) (interface{}, error) {
	return c.action(ctx, "refund", xpid, amount)
}

// Continue resumes a payment waiting on the gateway side.
func (c *Client) Continue(ctx context.Context, xpid string) (interface{}, error) {
	return c.action(ctx, "continue", xpid, 0)
}

// Accept accepts a payment flagged for fraud review.
func (c *Client) Accept(ctx context.Context, xpid string) (interface{}, error) {
	return c.action(ctx, "accept", xpid, 0)
}

// Decline declines a payment flagged for fraud review.
func (c *Client) Decline(ctx context.Context, xpid string) (interface{}, error) {
	return c.action(ctx, "decline", xpid, 0)
}

// GetInfo returns detailed payment information.
func (c *Client) GetInfo(ctx context.Context, xpid string) (interface{}, error) {
	return c.action(ctx, "get_info", xpid, 0)
}

type customerCardsParams struct {
	CustomerID string `json:"customerId"`
	Status     string `json:"status"`
}

// GetCustomerCards lists the customer's saved cards. An empty status defaults
// to CardStatusAny.
func (c *Client) GetCustomerCards(ctx context.Context, customerID, status string) (interface{}, error) {
	if len(status) == 0 {
		status = CardStatusAny
	}
	return c.request.Send(ctx, controllerCustomer, "get_cards", customerCardsParams{
		CustomerID: customerID,
		Status:     status,
	})
}

type bulkOperationPayment struct {
	XPID string `json:"xpid"`
}

type addBulkOperationParams struct {
	Operation string                 `json:"operation"`
	Payments  []bulkOperationPayment `json:"payments"`
}

type bulkOperationParams struct {
	BatchID string `json:"batch_id"`
}

// AddBulkOperation registers a batch operation over the given payment IDs.
func (c *Client) AddBulkOperation(ctx context.Context, operation string, xpids []string) (interface{}, error) {
	payments := make([]bulkOperationPayment, 0, len(xpids))
	for _, xpid := range xpids {
		payments = append(payments, bulkOperationPayment{XPID: xpid})
	}
	return c.request.Send(ctx, controllerBulkOperation, "add", addBulkOperationParams{
		Operation: operation,
		Payments:  payments,
	})
}

// StartBulkOperation starts a registered batch.
func (c *Client) StartBulkOperation(ctx context.Context, batchID string) (interface{}, error) {
	return c.request.Send(ctx, controllerBulkOperation, "start", bulkOperationParams{BatchID: batchID})
}

// StopBulkOperation stops a running batch.
func (c *Client) StopBulkOperation(ctx context.Context, batchID string) (interface{}, error) {
	return c.request.Send(ctx, controllerBulkOperation, "stop", bulkOperationParams{BatchID: batchID})
}

// GetBulkOperation returns the state of a batch.
func (c *Client) GetBulkOperation(ctx context.Context, batchID string) (interface{}, error) {
	return c.request.Send(ctx, controllerBulkOperation, "get", bulkOperationParams{BatchID: batchID})
}

// DeleteBulkOperation deletes a batch.
func (c *Client) DeleteBulkOperation(ctx context.Context, batchID string) (interface{}, error) {
	return c.request.Send(ctx, controllerBulkOperation, "delete", bulkOperationParams{BatchID: batchID})
}

// WebLocation returns the web location of the X-Payments Cloud instance.
func (c *Client) WebLocation() string {
	return fmt.Sprintf("https://%s/", c.request.ServerHost())
}

// AdminURL returns the admin backend URL of the X-Payments Cloud instance.
func (c *Client) AdminURL() string {
	return c.WebLocation() + "admin.php"
}

// PaymentURL returns the payment URL of the X-Payments Cloud instance.
func (c *Client) PaymentURL() string {
	return c.WebLocation() + "payment.php"
}
