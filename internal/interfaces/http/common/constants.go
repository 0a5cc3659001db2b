package common

const (
	// MaxWebhookBody limits webhook request bodies when no explicit limit is configured.
	MaxWebhookBody = 1 << 20
	// BasicRealm is advertised in WWW-Authenticate challenges.
	BasicRealm = "visitor-webhook"
)
