package dto

// RegisterRequest is the request body for user registration.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=100"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=8,max=128"`
}

// LoginRequest is the request body for user login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RegisterResponse is the response body for successful registration.
type RegisterResponse struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// DepositRequest is the request body for a wallet deposit.
// Amount is a decimal string with at most two fractional digits.
type DepositRequest struct {
	Amount      string `json:"amount" binding:"required"`
	Description string `json:"description,omitempty" binding:"max=255"`
}

// TransferRequest is the request body for a wallet transfer.
type TransferRequest struct {
	RecipientEmail string `json:"recipient_email" binding:"required,email"`
	Amount         string `json:"amount" binding:"required"`
	Description    string `json:"description,omitempty" binding:"max=255"`
}

// ReverseRequest is the request body for reversing a transaction.
type ReverseRequest struct {
	Reason string `json:"reason,omitempty" binding:"max=255"`
}

// TransactionResponse is the response body for a transaction record.
type TransactionResponse struct {
	ID                   string  `json:"id"`
	Type                 string  `json:"type"`
	Amount               string  `json:"amount"`
	SenderID             *string `json:"sender_id,omitempty"`
	ReceiverID           *string `json:"receiver_id,omitempty"`
	Status               string  `json:"status"`
	RelatedTransactionID *string `json:"related_transaction_id,omitempty"`
	Description          string  `json:"description"`
	CreatedAt            string  `json:"created_at"`
}

// BalanceResponse is the response for a balance query.
type BalanceResponse struct {
	Balance string `json:"balance"`
}

// TransactionListResponse wraps a transaction history.
type TransactionListResponse struct {
	Items []TransactionResponse `json:"items"`
	Total int                   `json:"total"`
}
