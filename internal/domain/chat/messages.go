package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

const (
	WelcomeText = "Welcome to AstroApp Chat! I am the Astro Master. How can I guide you on your celestial journey today?"
	ResetText   = "Network settings have been reset. The app will attempt to connect directly to the Astro Master on your next message."
	// EmptyOutputText replaces a successful reply that carried no output.
	EmptyOutputText = "I apologize, but I'm having trouble processing that request."
	LocalSuffix     = "\n\n[Local Fallback Mode: Network connection issues detected]"
	RelayNote       = "\n\nTrying alternative connection method for your next message..."
	LocalOnlyNote   = "\n\nSwitching to local fallback mode for future messages due to continued network issues."

	networkErrorText = "Unable to reach the Astro Master (Network Error). This could be due to:\n" +
		"- The chat webhook server might be down or not responding\n" +
		"- The relay or a cross-origin policy rejecting the request\n" +
		"- Network connectivity problems\n" +
		"- Firewall or security settings blocking the request\n\n" +
		"Please try again in a few moments. The system will attempt to use alternative methods to reach the Astro Master."
)

// ErrorText renders a delivery failure for the user.
func ErrorText(err error) string {
	var srvErr *ServerError
	var netErr *NetworkError
	switch {
	case errors.As(err, &srvErr):
		if srvErr.Status == http.StatusNotFound {
			if srvErr.Hint != "" {
				return "The Astro Master needs to be awakened. " + srvErr.Hint
			}
			return "The Astro Master is currently in deep meditation. Please try again in a moment."
		}
		msg := srvErr.Message
		if msg == "" {
			msg = "Unknown error"
		}
		return fmt.Sprintf("Server error (%d): %s", srvErr.Status, msg)
	case errors.As(err, &netErr):
		return networkErrorText
	default:
		return "Connection error: " + err.Error()
	}
}

// escalationNote is appended to the error reply when the mode moved forward.
func escalationNote(from, to Mode) string {
	switch {
	case from == ModeDirect && to == ModeRelay:
		return RelayNote
	case from == ModeRelay && to == ModeLocalOnly:
		return LocalOnlyNote
	default:
		return ""
	}
}

type debugInfo struct {
	URL      string            `json:"url"`
	Method   string            `json:"method"`
	Headers  map[string]string `json:"headers,omitempty"`
	Payload  string            `json:"payload,omitempty"`
	Mode     Mode              `json:"mode"`
	Attempts int               `json:"attempts"`
	Status   int               `json:"status,omitempty"`
	Response string            `json:"response,omitempty"`
	Error    string            `json:"error"`
}

func debugDetail(mode Mode, target string, attempts int, err error) string {
	info := debugInfo{
		URL:      target,
		Method:   http.MethodPost,
		Mode:     mode,
		Attempts: attempts,
		Error:    err.Error(),
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		info.Headers = netErr.Headers
		info.Payload = netErr.Payload
		if netErr.Method != "" {
			info.Method = netErr.Method
		}
	}
	var srvErr *ServerError
	if errors.As(err, &srvErr) {
		info.Status = srvErr.Status
		info.Response = srvErr.Body
	}
	raw, mErr := json.MarshalIndent(info, "", "  ")
	if mErr != nil {
		return err.Error()
	}
	return string(raw)
}
