package xpayments

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// YesNoFlag is a boolean that serializes as the literal "Y"/"N" tokens the
// gateway expects instead of JSON true/false. The translation is scoped to
// this type; it never applies to other boolean-shaped data.
type YesNoFlag bool

const (
	Yes YesNoFlag = true
	No  YesNoFlag = false
)

// MarshalJSON encodes the flag as "Y" or "N".
func (f YesNoFlag) MarshalJSON() ([]byte, error) {
	if f {
		return []byte(`"Y"`), nil
	}
	return []byte(`"N"`), nil
}

// UnmarshalJSON decodes "Y"/"N" back into the flag.
func (f *YesNoFlag) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "Y":
		*f = Yes
	case "N":
		*f = No
	default:
		return fmt.Errorf("invalid yes/no flag %q", s)
	}
	return nil
}

// TransactionType directs the gateway to authorize only or to authorize and
// capture in one step.
type TransactionType string

const (
	// TransactionTypeAuth authorizes the payment without capturing it.
	TransactionTypeAuth TransactionType = "A"
	// TransactionTypeSale authorizes and captures in a single step.
	TransactionTypeSale TransactionType = "S"
)

// Credentials identify the X-Payments Cloud account. All three values are
// required and are never serialized into a request body or logged.
type Credentials struct {
	Account   string
	APIKey    string
	SecretKey string
}

// Validate reports an empty credential field.
func (c Credentials) Validate() error {
	if err := requiredArg("account", c.Account); err != nil {
		return err
	}
	if err := requiredArg("apiKey", c.APIKey); err != nil {
		return err
	}
	return requiredArg("secretKey", c.SecretKey)
}

// Address is a billing or shipping address. Optional fields are pointers; a
// nil pointer is omitted from the wire form entirely.
type Address struct {
	Name    string `json:"name"`
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`

	Zip4    *string `json:"zip4,omitempty"`
	Company *string `json:"company,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Fax     *string `json:"fax,omitempty"`
}

// Validate reports the first empty required address field.
func (a Address) Validate() error {
	for _, field := range []struct {
		name  string
		value string
	}{
		{"name", a.Name},
		{"street", a.Street},
		{"city", a.City},
		{"state", a.State},
		{"zip", a.Zip},
		{"country", a.Country},
	} {
		if err := requiredArg(field.name, field.value); err != nil {
			return err
		}
	}
	return nil
}

// SubscriptionPlan describes the recurring schedule of a subscription item.
type SubscriptionPlan struct {
	Plan            string `json:"plan"`
	RecurringAmount string `json:"recurringAmount"`

	TrialDuration *int    `json:"trialDuration,omitempty"`
	TrialUnit     *string `json:"trialUnit,omitempty"`
	TrialAmount   *string `json:"trialAmount,omitempty"`
}

// Validate reports an empty required plan field.
func (p SubscriptionPlan) Validate() error {
	if err := requiredArg("plan", p.Plan); err != nil {
		return err
	}
	return requiredArg("recurringAmount", p.RecurringAmount)
}

// CartItem is a single cart line. Plan is present only for subscription items.
type CartItem struct {
	SKU   string `json:"sku"`
	Name  string `json:"name"`
	Price string `json:"price"`

	Quantity     *int              `json:"quantity,omitempty"`
	Subscription *YesNoFlag        `json:"subscription,omitempty"`
	Plan         *SubscriptionPlan `json:"plan,omitempty"`
}

// Validate reports an empty required item field, recursing into the plan when
// one is attached.
func (i CartItem) Validate() error {
	if err := requiredArg("sku", i.SKU); err != nil {
		return err
	}
	if err := requiredArg("name", i.Name); err != nil {
		return err
	}
	if err := requiredArg("price", i.Price); err != nil {
		return err
	}
	if i.Plan != nil {
		if err := i.Plan.Validate(); err != nil {
			return fmt.Errorf("plan: %w", err)
		}
	}
	return nil
}

// Cart is the purchase content of a payment request.
type Cart struct {
	BillingAddress Address    `json:"billingAddress"`
	Currency       string     `json:"currency"`
	Items          []CartItem `json:"items"`
	TotalCost      string     `json:"totalCost"`

	ShippingAddress *Address `json:"shippingAddress,omitempty"`
	ShippingCost    *string  `json:"shippingCost,omitempty"`
	TaxCost         *string  `json:"taxCost,omitempty"`
	Discount        *string  `json:"discount,omitempty"`
	Description     *string  `json:"description,omitempty"`
}

// Validate reports the first invalid cart field, recursing into addresses and
// items.
func (c Cart) Validate() error {
	if err := c.BillingAddress.Validate(); err != nil {
		return fmt.Errorf("billingAddress: %w", err)
	}
	if err := requiredArg("currency", c.Currency); err != nil {
		return err
	}
	if err := requiredArg("totalCost", c.TotalCost); err != nil {
		return err
	}
	for n, item := range c.Items {
		if err := item.Validate(); err != nil {
			return fmt.Errorf("items[%d]: %w", n, err)
		}
	}
	if c.ShippingAddress != nil {
		if err := c.ShippingAddress.Validate(); err != nil {
			return fmt.Errorf("shippingAddress: %w", err)
		}
	}
	return nil
}

// PaymentRequest carries the parameters of a pay or tokenize_card call. The
// struct marshals directly into the wire body: nil optionals are omitted,
// explicitly set zero values ("" or 0) are kept.
type PaymentRequest struct {
	Token     string `json:"token"`
	RefID     string `json:"refId"`
	ReturnURL string `json:"returnUrl"`
	Cart      Cart   `json:"cart"`

	CallbackURL          *string          `json:"callbackUrl,omitempty"`
	CustomerID           *string          `json:"customerId,omitempty"`
	ForceSaveCard        *YesNoFlag       `json:"forceSaveCard,omitempty"`
	ForceTransactionType *TransactionType `json:"forceTransactionType,omitempty"`
	ConfID               *int             `json:"confId,omitempty"`
}

// Validate reports the first invalid request field.
func (r PaymentRequest) Validate() error {
	if err := requiredArg("token", r.Token); err != nil {
		return err
	}
	if err := requiredArg("refId", r.RefID); err != nil {
		return err
	}
	if err := requiredArg("returnUrl", r.ReturnURL); err != nil {
		return err
	}
	if err := r.Cart.Validate(); err != nil {
		return fmt.Errorf("cart: %w", err)
	}
	return nil
}

// NewRefID generates a unique merchant reference ID for a payment request.
func NewRefID() string {
	return uuid.NewString()
}

// String returns a pointer to the given string. Helper for optional fields.
func String(s string) *string {
	return &s
}

// Int returns a pointer to the given int. Helper for optional fields.
func Int(n int) *int {
	return &n
}

// Flag returns a pointer to the given yes/no flag. Helper for optional fields.
func Flag(f YesNoFlag) *YesNoFlag {
	return &f
}

// Transaction returns a pointer to the given transaction type. Helper for
// optional fields.
func Transaction(t TransactionType) *TransactionType {
	return &t
}
