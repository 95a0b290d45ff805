package shopsession

import (
	"context"
	"time"
)

// Role identifies which storefront surface an account belongs to.
type Role string

const (
	// RoleCustomer is a shopper account. No approval step applies.
	RoleCustomer Role = "customer"
	// RoleSeller is a merchant account. Requires admin approval before use.
	RoleSeller Role = "seller"
	// RoleDeliverer is a dispatch account. Requires admin approval before use.
	RoleDeliverer Role = "deliverer"
	// RoleAdmin is an operator account. No approval step applies.
	RoleAdmin Role = "admin"
)

// ApprovalStatus is the admin review state carried on seller and deliverer
// profiles. It is absent (empty) and ignored for customers and admins.
type ApprovalStatus string

const (
	// StatusPending means the account is awaiting admin review.
	StatusPending ApprovalStatus = "pending"
	// StatusApproved means the account passed admin review.
	StatusApproved ApprovalStatus = "approved"
	// StatusRejected means the account failed admin review.
	StatusRejected ApprovalStatus = "rejected"
)

// User is the identity record returned by the backend on login and on
// the current-user fetch. Profile fields live separately in [Profile].
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	IsActive bool   `json:"isActive"`
}

// Profile carries the role-specific profile the backend serves alongside the
// user record. Status and Reason are only meaningful for sellers and
// deliverers.
type Profile struct {
	Status ApprovalStatus `json:"status,omitempty"`
	Reason string         `json:"reason,omitempty"`
}

// Account is the merged user+profile record the engine persists and exposes.
// It is constructed in exactly one place ([MergeAccount]) so login-time and
// refresh-time merges cannot drift.
type Account struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	Role         Role           `json:"role"`
	IsActive     bool           `json:"isActive"`
	Status       ApprovalStatus `json:"status,omitempty"`
	StatusReason string         `json:"statusReason,omitempty"`
}

// MergeAccount combines a user record and its profile into one [Account].
// This is the single merge boundary for both login and refresh.
func MergeAccount(u User, p Profile) Account {
	return Account{
		ID:           u.ID,
		Email:        u.Email,
		Role:         u.Role,
		IsActive:     u.IsActive,
		Status:       p.Status,
		StatusReason: p.Reason,
	}
}

// PendingItem is one buffered pre-login cart intent. Quantity is always ≥ 1.
type PendingItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// CartItem is one line of the server-authoritative cart.
type CartItem struct {
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// Cart is the server-authoritative cart adopted after reconciliation.
type Cart struct {
	Items      []CartItem `json:"items"`
	TotalPrice float64    `json:"totalPrice"`
}

// SessionSnapshot is a read-only view of the current session. A zero snapshot
// with Authenticated=false means no session is established.
type SessionSnapshot struct {
	Authenticated bool
	Token         string
	Account       Account
	Cart          *Cart
	ExpiresAt     time.Time
}

// LoginResult is returned by [Engine.Login] on gate acceptance. Destination
// is the role home the caller should redirect to.
type LoginResult struct {
	Destination string
	Session     SessionSnapshot
}

// LoginResponse is the backend payload for POST /auth/login.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// MeResponse is the backend payload for GET /auth/me.
type MeResponse struct {
	User    User    `json:"user"`
	Profile Profile `json:"profile"`
}

// BackendClient is the REST contract the engine depends on. The backend
// sub-package provides the HTTP implementation; tests substitute mocks.
//
// Implementations must map a 401 response on any call to [ErrUnauthorized],
// login credential rejections to [ErrInvalidCredentials] (wrapping the
// server-supplied message), and network or timeout failures to
// [ErrBackendUnavailable].
type BackendClient interface {
	Login(ctx context.Context, email, password string) (LoginResponse, error)
	CurrentUser(ctx context.Context, token string) (MeResponse, error)
	Cart(ctx context.Context, token string) (Cart, error)
	AddCartItem(ctx context.Context, token, productID string, quantity int) (Cart, error)
	ClearCart(ctx context.Context, token string) error
}
