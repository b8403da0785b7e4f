package google

import (
	"context"
	"errors"
	"net/http"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const gmailUser = "me"

type ItfGoogle interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	// Refresh returns a valid token for tok, refreshing it when expired.
	Refresh(ctx context.Context, tok *oauth2.Token) (*oauth2.Token, error)
	Mailbox(ctx context.Context, tok *oauth2.Token) (Mailbox, error)
	GetConfig() *oauth2.Config
}

// Mailbox is the subset of the Gmail API used by the mail module.
type Mailbox interface {
	Profile(ctx context.Context) (string, error)
	ListMessageIDs(ctx context.Context, label string, max int64) ([]string, error)
	GetMessage(ctx context.Context, id string, format string, headers ...string) (*gmail.Message, error)
	Send(ctx context.Context, raw string, threadID string) error
}

type googleProvider struct {
	config *oauth2.Config
}

func New() ItfGoogle {
	redirectURL := os.Getenv("GOOGLE_REDIRECT_URL")
	if redirectURL == "" {
		redirectURL = "http://localhost:8080/api/v1/gmail_callback"
	}

	oauthConfgl := &oauth2.Config{
		ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		RedirectURL:  redirectURL,
		Scopes:       []string{gmail.GmailReadonlyScope, gmail.GmailSendScope},
		Endpoint:     google.Endpoint,
	}

	return &googleProvider{config: oauthConfgl}
}

// AuthCodeURL asks for offline access with a forced consent screen so a
// refresh token is issued on every link.
func (g *googleProvider) AuthCodeURL(state string) string {
	return g.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
}

func (g *googleProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return g.config.Exchange(ctx, code)
}

func (g *googleProvider) Refresh(ctx context.Context, tok *oauth2.Token) (*oauth2.Token, error) {
	return g.config.TokenSource(ctx, tok).Token()
}

func (g *googleProvider) Mailbox(ctx context.Context, tok *oauth2.Token) (Mailbox, error) {
	svc, err := gmail.NewService(ctx, option.WithTokenSource(g.config.TokenSource(ctx, tok)))
	if err != nil {
		return nil, err
	}
	return &gmailMailbox{svc: svc}, nil
}

func (g *googleProvider) GetConfig() *oauth2.Config {
	return g.config
}

// IsRevoked reports whether err is the token endpoint refusing a refresh
// token, which happens after the user revokes access.
func IsRevoked(err error) bool {
	var retrieveErr *oauth2.RetrieveError
	if !errors.As(err, &retrieveErr) {
		return false
	}
	if retrieveErr.ErrorCode == "invalid_grant" {
		return true
	}
	return retrieveErr.Response != nil &&
		(retrieveErr.Response.StatusCode == http.StatusBadRequest || retrieveErr.Response.StatusCode == http.StatusUnauthorized)
}

type gmailMailbox struct {
	svc *gmail.Service
}

func (m *gmailMailbox) Profile(ctx context.Context) (string, error) {
	profile, err := m.svc.Users.GetProfile(gmailUser).Context(ctx).Do()
	if err != nil {
		return "", err
	}
	return profile.EmailAddress, nil
}

func (m *gmailMailbox) ListMessageIDs(ctx context.Context, label string, max int64) ([]string, error) {
	resp, err := m.svc.Users.Messages.List(gmailUser).LabelIds(label).MaxResults(max).Context(ctx).Do()
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(resp.Messages))
	for _, msg := range resp.Messages {
		ids = append(ids, msg.Id)
	}
	return ids, nil
}

func (m *gmailMailbox) GetMessage(ctx context.Context, id string, format string, headers ...string) (*gmail.Message, error) {
	call := m.svc.Users.Messages.Get(gmailUser, id).Format(format).Context(ctx)
	if len(headers) > 0 {
		call = call.MetadataHeaders(headers...)
	}
	return call.Do()
}

func (m *gmailMailbox) Send(ctx context.Context, raw string, threadID string) error {
	_, err := m.svc.Users.Messages.Send(gmailUser, &gmail.Message{Raw: raw, ThreadId: threadID}).Context(ctx).Do()
	return err
}
