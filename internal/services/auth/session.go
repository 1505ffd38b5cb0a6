package auth

import (
	"encoding/json"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// SessionName is the cookie the session middleware must be registered
// under.
const SessionName = "lumen_session"

const (
	keyToken = "oauth_token"
	keyEmail = "user_email"
	keyName  = "user_name"
	keyState = "oauth_state"
)

// NewState mints a CSRF nonce for the OAuth round trip.
func NewState() string { return uuid.New().String() }

// SaveState stores the nonce ahead of the redirect to Google.
func SaveState(c *gin.Context, state string) error {
	session := sessions.Default(c)
	session.Set(keyState, state)
	return session.Save()
}

// ConsumeState checks the callback state against the stored nonce and
// clears it either way.
func ConsumeState(c *gin.Context, state string) bool {
	session := sessions.Default(c)
	stored, _ := session.Get(keyState).(string)
	session.Delete(keyState)
	_ = session.Save()
	return state != "" && stored == state
}

// SaveLogin stores the OAuth token and user identity in the session.
// The token is JSON-encoded because cookie sessions only take gob-friendly
// primitives.
func SaveLogin(c *gin.Context, token *oauth2.Token, email, name string) error {
	encoded, err := json.Marshal(token)
	if err != nil {
		return err
	}

	session := sessions.Default(c)
	session.Set(keyToken, string(encoded))
	session.Set(keyEmail, email)
	session.Set(keyName, name)
	return session.Save()
}

// TokenFromSession restores the OAuth token, reporting false when the
// visitor is not signed in.
func TokenFromSession(c *gin.Context) (*oauth2.Token, bool) {
	encoded, _ := sessions.Default(c).Get(keyToken).(string)
	if encoded == "" {
		return nil, false
	}

	var token oauth2.Token
	if err := json.Unmarshal([]byte(encoded), &token); err != nil {
		return nil, false
	}
	return &token, true
}

// UserFromSession returns the signed-in user's email and display name.
func UserFromSession(c *gin.Context) (email, name string) {
	session := sessions.Default(c)
	email, _ = session.Get(keyEmail).(string)
	name, _ = session.Get(keyName).(string)
	return email, name
}

// ClearSession logs the user out.
func ClearSession(c *gin.Context) error {
	session := sessions.Default(c)
	session.Clear()
	return session.Save()
}
