package gmail

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mbrt/gmailctl/cmd/gmailctl/localcred"
	"google.golang.org/api/gmail/v1"
)

// Connect authenticates against the Gmail API using the credential files
// under authDir (credentials.json plus the cached OAuth token) and returns
// a ready transport client. The modify scope covers every action the
// engine executes.
func Connect(ctx context.Context, authDir string, log *slog.Logger) (*Client, error) {
	svc, err := (localcred.Provider{}).ServiceWithScopes(ctx, authDir, gmail.GmailModifyScope)
	if err != nil {
		return nil, fmt.Errorf("gmail authentication failed (auth dir %s): %w", authDir, err)
	}
	log.Info("gmail service initialized", slog.String("auth_dir", authDir))
	return NewClient(svc, log), nil
}
