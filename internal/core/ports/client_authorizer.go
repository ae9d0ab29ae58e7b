package ports

import "context"

// ClientAuthorizer resolves a report client to the test sites it may query.
type ClientAuthorizer interface {
	// WhitelistedTestSites returns the client's test sites. A client without a
	// whitelist yields (nil, nil).
	WhitelistedTestSites(ctx context.Context, clientID string) ([]string, error)
}
