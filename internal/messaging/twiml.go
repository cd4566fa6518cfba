package messaging

import (
	"bytes"
	"encoding/xml"
)

const twimlHeader = `<?xml version="1.0" encoding="UTF-8"?>`

// MessagingResponse renders a single-message TwiML document for a webhook
// reply. The body is XML-escaped; WhatsApp formatting markers pass through.
func MessagingResponse(body string) string {
	var escaped bytes.Buffer
	_ = xml.EscapeText(&escaped, []byte(body))
	return twimlHeader + "<Response><Message>" + escaped.String() + "</Message></Response>"
}
