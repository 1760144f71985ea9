package model

// WebViewRequest describes a single messages.requestWebView call.
type WebViewRequest struct {
	// Bot is the bot handle including the leading '@'.
	Bot         string
	URL         string
	Platform    string
	FromBotMenu bool
}
