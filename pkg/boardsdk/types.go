package boardsdk

import "time"

// ============================================================================
// Auth
// ============================================================================

type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest carries the refresh token for clients that do not use
// cookies. Browsers can send an empty body and rely on the refresh cookie.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken,omitempty"`
}

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// AuthResponse is returned by login and refresh. The same tokens are also
// set as HttpOnly cookies.
type AuthResponse struct {
	User             *User     `json:"user,omitempty"`
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

// ============================================================================
// Projects
// ============================================================================

type ProjectRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type Project struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	OwnerID     string    `json:"ownerId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Member struct {
	UserID  string    `json:"userId"`
	Email   string    `json:"email"`
	Name    string    `json:"name"`
	Role    string    `json:"role"`
	AddedAt time.Time `json:"addedAt"`
}

// ============================================================================
// Invitations
// ============================================================================

// Send result types.
const (
	SendTypeDirectAdd      = "direct_add"
	SendTypeInvitationSent = "invitation_sent"
	SendTypeResent         = "resent"
)

// Invitation statuses, derived by the server at request time.
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusDeclined = "declined"
	StatusExpired  = "expired"
)

type InviteRequest struct {
	Email string `json:"email"`
}

type Invitation struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"projectId"`
	Email       string     `json:"email"`
	InvitedByID string     `json:"invitedById"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	ExpiresAt   time.Time  `json:"expiresAt"`
	AcceptedAt  *time.Time `json:"acceptedAt,omitempty"`
	DeclinedAt  *time.Time `json:"declinedAt,omitempty"`
}

// SendInvitationResponse is a tagged union on Type: Member is set for
// direct_add, Invitation and Token for invitation_sent and resent.
type SendInvitationResponse struct {
	Type       string      `json:"type"`
	Message    string      `json:"message"`
	Member     *Member     `json:"member,omitempty"`
	Invitation *Invitation `json:"invitation,omitempty"`
	Token      string      `json:"token,omitempty"`
}

type InvitationHistory struct {
	Accepted []Invitation `json:"accepted"`
	Declined []Invitation `json:"declined"`
	Expired  []Invitation `json:"expired"`
	Total    int          `json:"total"`
}

// InvitationInfo is the public view of an invite link.
type InvitationInfo struct {
	Email              string    `json:"email"`
	ProjectID          string    `json:"projectId"`
	ProjectTitle       string    `json:"projectTitle"`
	ProjectDescription string    `json:"projectDescription"`
	InviterName        string    `json:"inviterName"`
	InviterEmail       string    `json:"inviterEmail"`
	Status             string    `json:"status"`
	CreatedAt          time.Time `json:"createdAt"`
	ExpiresAt          time.Time `json:"expiresAt"`
}

type RespondResponse struct {
	Message string  `json:"message"`
	Project Project `json:"project"`
}

// UserInvitation is one entry of the signed-in user's pending list.
type UserInvitation struct {
	ID           string    `json:"id"`
	ProjectID    string    `json:"projectId"`
	ProjectTitle string    `json:"projectTitle"`
	InviterName  string    `json:"inviterName"`
	InviterEmail string    `json:"inviterEmail"`
	CreatedAt    time.Time `json:"createdAt"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// ============================================================================
// Misc
// ============================================================================

type MessageResponse struct {
	Message string `json:"message"`
}

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

type HealthChecks struct {
	Database string `json:"database"`
}
