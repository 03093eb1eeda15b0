package domain

import "time"

const ActionLogin = "login"

const (
	OutcomeLoginSuccess      = "Login Success"
	OutcomeInvalidCredential = "Invalid Credential"
	OutcomeAccountInactive   = "Login Denied - Account not Active"
	OutcomeLoginError        = "Login Failed - Error"
)

type Entry struct {
	ID          string    `db:"id"`
	OccurredAt  time.Time `db:"occurred_at"`
	Action      string    `db:"action"`
	Outcome     string    `db:"outcome"`
	ActorUserID *string   `db:"actor_user_id"`
	Email       string    `db:"email"`
	ClientIP    string    `db:"client_ip"`
	TraceID     string    `db:"trace_id"`
}
